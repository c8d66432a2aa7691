package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"go.uber.org/zap"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for Deposit contract deployment.
type Blockchain interface {
	// GetContractStateByHash returns network state of the smart contract by its
	// address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// Actor sends transactions on behalf of the deploying account and awaits
// their results.
type Actor interface {
	// Sender returns the account paying for and signing the transactions.
	Sender() util.Uint160

	// Wait awaits transaction execution result, see [actor.Actor.Wait].
	Wait(h util.Uint256, vub uint32, err error) (*state.AppExecResult, error)
}

// Management deploys contracts through the native ContractManagement contract.
// Implemented by [management.Contract].
type Management interface {
	Deploy(nefFile *nef.File, manif *manifest.Manifest, data any) (util.Uint256, uint32, error)
}

// CommonDeployPrm groups common deployment parameters of the smart contract.
type CommonDeployPrm struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

// Prm groups all parameters of the Deposit contract deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Particular Neo blockchain instance to deploy the contract into.
	Blockchain Blockchain

	// Transaction sender, its account becomes the contract sender.
	Actor Actor

	Management Management

	Contract CommonDeployPrm

	// Owner of the deployed contract. Zero value makes the sender an owner.
	Owner util.Uint160
}

// ErrDeployFailed is returned when deployment transaction didn't HALT.
var ErrDeployFailed = errors.New("deployment transaction failed")

// ContractAddress returns address the contract gets being deployed by the
// sender.
func ContractAddress(sender util.Uint160, c CommonDeployPrm) util.Uint160 {
	return state.CreateContractHash(sender, c.NEF.Checksum, c.Manifest.Name)
}

// Deploy deploys Deposit contract described by Prm.Contract and returns its
// address. Deploy is idempotent: if the contract is already deployed by the
// same sender, its address is returned without sending any transactions.
func Deploy(ctx context.Context, prm Prm) (util.Uint160, error) {
	addr := ContractAddress(prm.Actor.Sender(), prm.Contract)
	l := prm.Logger.With(zap.Stringer("address", addr))

	l.Info("checking contract presence on the chain...")

	_, err := prm.Blockchain.GetContractStateByHash(addr)
	if err == nil {
		l.Info("contract is already deployed")
		return addr, nil
	}

	if !isErrContractNotFound(err) {
		return util.Uint160{}, fmt.Errorf("get contract state by address %s: %w", addr, err)
	}

	if err = ctx.Err(); err != nil {
		return util.Uint160{}, err
	}

	var data any
	if !prm.Owner.Equals(util.Uint160{}) {
		data = []any{prm.Owner}
		l = l.With(zap.Stringer("owner", prm.Owner))
	}

	l.Info("contract is missing on the chain, sending deployment transaction...")

	res, err := prm.Actor.Wait(prm.Management.Deploy(&prm.Contract.NEF, &prm.Contract.Manifest, data))
	if err != nil {
		return util.Uint160{}, fmt.Errorf("deploy contract: %w", err)
	}

	if res.VMState != vmstate.Halt {
		return util.Uint160{}, fmt.Errorf("%w: tx %s, state %s, exception: %s",
			ErrDeployFailed, res.Container.StringLE(), res.VMState, res.FaultException)
	}

	l.Info("contract successfully deployed", zap.Stringer("tx", res.Container))

	return addr, nil
}

func isErrContractNotFound(err error) bool {
	return strings.Contains(err.Error(), "Unknown contract")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/finpool/deposit-contract/internal/config"
	rpcdeposit "github.com/finpool/deposit-contract/rpc/deposit"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/nep17"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"
)

// wrapper over Neo RPC client providing services needed for depositctl
// commands.
type remoteBlockchain struct {
	log *zap.Logger
	cfg *config.Config
	rpc *rpcclient.Client
}

// newRemoteBlockchain dials Neo RPC server configured in cfg and returns
// remoteBlockchain based on the opened connection.
func newRemoteBlockchain(ctx context.Context, log *zap.Logger, cfg *config.Config) (*remoteBlockchain, error) {
	c, err := rpcclient.New(ctx, cfg.RPC.Endpoint, rpcclient.Options{
		DialTimeout:    cfg.RPC.DialTimeout,
		RequestTimeout: cfg.RPC.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("RPC client dial: %w", err)
	}

	err = c.Init()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("RPC client init: %w", err)
	}

	return &remoteBlockchain{
		log: log,
		cfg: cfg,
		rpc: c,
	}, nil
}

func (x *remoteBlockchain) close() {
	x.rpc.Close()
}

// account opens configured wallet and returns decrypted signing account.
func (x *remoteBlockchain) account() (*wallet.Account, error) {
	w, err := wallet.NewWalletFromFile(x.cfg.Wallet.Path)
	if err != nil {
		return nil, fmt.Errorf("open wallet: %w", err)
	}

	h := w.GetChangeAddress()
	if x.cfg.Wallet.Address != "" {
		h, err = config.ParseUint160(x.cfg.Wallet.Address)
		if err != nil {
			return nil, fmt.Errorf("wallet address: %w", err)
		}
	}

	acc := w.GetAccount(h)
	if acc == nil {
		return nil, fmt.Errorf("account %s is missing in the wallet", h.StringLE())
	}

	err = acc.Decrypt(x.cfg.Wallet.Password, w.Scrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypt account: %w", err)
	}

	return acc, nil
}

// actor returns transaction sender signing with the configured account.
// Contracts from the allowed list are additionally allowed to check the
// witness, this is needed by asset contracts when Deposit contract pulls
// assets from the account.
func (x *remoteBlockchain) actor(allowed ...util.Uint160) (*actor.Actor, error) {
	acc, err := x.account()
	if err != nil {
		return nil, err
	}

	signer := actor.SignerAccount{
		Signer: transaction.Signer{
			Account: acc.ScriptHash(),
			Scopes:  transaction.CalledByEntry,
		},
		Account: acc,
	}
	if len(allowed) > 0 {
		signer.Signer.Scopes |= transaction.CustomContracts
		signer.Signer.AllowedContracts = allowed
	}

	a, err := actor.New(x.rpc, []actor.SignerAccount{signer})
	if err != nil {
		return nil, fmt.Errorf("init actor: %w", err)
	}

	return a, nil
}

func (x *remoteBlockchain) contractHash() (util.Uint160, error) {
	return x.cfg.ContractHash()
}

func (x *remoteBlockchain) reader() (*rpcdeposit.ContractReader, error) {
	h, err := x.contractHash()
	if err != nil {
		return nil, err
	}

	return rpcdeposit.NewReader(invoker.New(x.rpc, nil), h), nil
}

func (x *remoteBlockchain) contract(allowed ...util.Uint160) (*rpcdeposit.Contract, *actor.Actor, error) {
	h, err := x.contractHash()
	if err != nil {
		return nil, nil, err
	}

	a, err := x.actor(allowed...)
	if err != nil {
		return nil, nil, err
	}

	return rpcdeposit.New(a, h), a, nil
}

// parseAmount converts decimal string into the asset's integer amount.
func (x *remoteBlockchain) parseAmount(asset util.Uint160, s string) (*big.Int, error) {
	decimals, err := nep17.NewReader(invoker.New(x.rpc, nil), asset).Decimals()
	if err != nil {
		return nil, fmt.Errorf("get decimals of %s: %w", asset.StringLE(), err)
	}

	amount, err := fixedn.FromString(s, decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	if amount.Sign() <= 0 {
		return nil, errors.New("amount must be positive")
	}

	return amount, nil
}

// await waits for the sent transaction and checks it succeeded.
func (x *remoteBlockchain) await(a *actor.Actor, h util.Uint256, vub uint32, err error) error {
	res, err := a.Wait(h, vub, err)
	if err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}

	if res.VMState != vmstate.Halt {
		return fmt.Errorf("transaction %s failed: %s", h.StringLE(), res.FaultException)
	}

	x.log.Info("transaction accepted", zap.Stringer("tx", h), zap.Int64("gas consumed", res.GasConsumed))

	return nil
}

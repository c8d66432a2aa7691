package deposit

import (
	"github.com/finpool/deposit-contract/common"
	"github.com/finpool/deposit-contract/contracts/deposit/depositconst"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// _deploy sets the contract owner. Deployment data is an optional array with
// a single owner script hash, transaction sender becomes the owner otherwise.
// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	ctx := storage.GetContext()

	owner := runtime.GetScriptContainer().Sender
	if data != nil {
		args := data.(struct {
			owner interop.Hash160
		})
		if len(args.owner) != 0 {
			owner = args.owner
		}
	}

	common.CheckAddress(owner)
	storage.Put(ctx, ownerKey, owner)

	runtime.Log("deposit contract initialized")
}

// OnNEP17Payment is a callback for NEP-17 compatible contracts. GAS is always
// accepted, other tokens are accepted only if their settings allow deposits.
// Data is either empty (the sender is credited) or a script hash of the
// account to credit. Payments with PullMarker data are accepted only as a
// part of DepositGas or DepositToken call, the pulling method credits them.
//
// It produces GasDeposited or TokenDeposited notification.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	ctx := storage.GetContext()
	asset := runtime.GetCallingScriptHash()

	rcv := data.(interop.Hash160)
	if rcv.Equals(depositconst.PullMarker) {
		completePull(ctx, asset, from, amount)
		return
	}

	common.CheckAmount(amount)

	switch len(rcv) {
	case interop.Hash160Len:
		common.CheckExternalAccount(rcv)
	case 0:
		common.CheckAddress(from)
		rcv = from
	default:
		panic(depositconst.ErrInvalidData)
	}

	if asset.Equals(gas.Hash) {
		credit(ctx, asset, rcv, amount)

		runtime.Log("GAS deposited")
		runtime.Notify("GasDeposited", rcv, amount)
		return
	}

	if !getSettings(ctx, asset).IsDepositAllowed {
		panic(depositconst.ErrDepositNotAllowed)
	}

	credit(ctx, asset, rcv, amount)

	runtime.Log("tokens deposited")
	runtime.Notify("TokenDeposited", rcv, asset, amount)
}

// DepositGas transfers the specified amount of GAS from the account to the
// contract and credits it. Transaction must be signed by the account with a
// witness scope allowing GAS contract to check it (e.g. CustomContracts).
//
// It produces GasDeposited notification.
func DepositGas(from interop.Hash160, amount int) {
	common.CheckAmount(amount)
	common.CheckExternalAccount(from)
	common.CheckWitness(from)

	ctx := storage.GetContext()
	if !pull(ctx, interop.Hash160(gas.Hash), from, amount) {
		panic(depositconst.ErrTransferFailed)
	}

	credit(ctx, interop.Hash160(gas.Hash), from, amount)

	runtime.Log("GAS deposited")
	runtime.Notify("GasDeposited", from, amount)
}

// WithdrawGas transfers the specified amount of GAS from the contract back to
// the account. It can be invoked only by the account owner.
//
// It produces GasWithdrawn notification.
func WithdrawGas(to interop.Hash160, amount int) {
	common.CheckAmount(amount)
	common.CheckExternalAccount(to)
	common.CheckWitness(to)

	ctx := storage.GetContext()
	self := runtime.GetExecutingScriptHash()

	debit(ctx, interop.Hash160(gas.Hash), to, amount)

	if !gas.Transfer(self, to, amount, nil) {
		panic(depositconst.ErrTransferFailed)
	}

	runtime.Log("GAS withdrawn")
	runtime.Notify("GasWithdrawn", to, amount)
}

// DepositToken transfers the specified amount of tokens from the account to
// the contract and credits it. Token settings must allow deposits, GAS is
// rejected. Transaction must be signed by the account with a witness scope
// allowing token contract to check it.
//
// It produces TokenDeposited notification.
func DepositToken(from, token interop.Hash160, amount int) {
	common.CheckAmount(amount)
	common.CheckExternalAccount(from)
	common.CheckAddress(token)
	if token.Equals(gas.Hash) {
		panic(depositconst.ErrGASToken)
	}
	common.CheckWitness(from)

	ctx := storage.GetContext()
	if !getSettings(ctx, token).IsDepositAllowed {
		panic(depositconst.ErrDepositNotAllowed)
	}

	if !pull(ctx, token, from, amount) {
		panic(depositconst.ErrTransferFailed)
	}

	credit(ctx, token, from, amount)

	runtime.Log("tokens deposited")
	runtime.Notify("TokenDeposited", from, token, amount)
}

// WithdrawToken transfers the specified amount of tokens from the contract
// back to the account. Token settings must allow withdrawals, GAS is
// rejected. It can be invoked only by the account owner.
//
// It produces TokenWithdrawn notification.
func WithdrawToken(to, token interop.Hash160, amount int) {
	common.CheckAmount(amount)
	common.CheckExternalAccount(to)
	common.CheckAddress(token)
	if token.Equals(gas.Hash) {
		panic(depositconst.ErrGASToken)
	}
	common.CheckWitness(to)

	ctx := storage.GetContext()
	if !getSettings(ctx, token).IsWithdrawalAllowed {
		panic(depositconst.ErrWithdrawalNotAllowed)
	}

	debit(ctx, token, to, amount)

	self := runtime.GetExecutingScriptHash()
	ok := contract.Call(token, "transfer", contract.All, self, to, amount, nil).(bool)
	if !ok {
		panic(depositconst.ErrTransferFailed)
	}

	runtime.Log("tokens withdrawn")
	runtime.Notify("TokenWithdrawn", to, token, amount)
}

// pull transfers assets from the depositor to the contract. The pending
// pull is stored for the duration of the transfer, so OnNEP17Payment can
// tell it from a foreign payment with the same data.
func pull(ctx storage.Context, asset, from interop.Hash160, amount int) bool {
	common.SetSerialized(ctx, pendingPullKey, pendingPull{
		Asset:  asset,
		From:   from,
		Amount: amount,
	})

	self := runtime.GetExecutingScriptHash()

	var ok bool
	if asset.Equals(gas.Hash) {
		ok = gas.Transfer(from, self, amount, depositconst.PullMarker)
	} else {
		ok = contract.Call(asset, "transfer", contract.All, from, self, amount, depositconst.PullMarker).(bool)
	}

	storage.Delete(ctx, pendingPullKey)
	return ok
}

// completePull consumes the pending pull matching the payment.
func completePull(ctx storage.Context, asset, from interop.Hash160, amount int) {
	data := storage.Get(ctx, pendingPullKey)
	if data == nil {
		panic(depositconst.ErrUnexpectedPull)
	}

	p := std.Deserialize(data.([]byte)).(pendingPull)
	if !p.Asset.Equals(asset) || !p.From.Equals(from) || p.Amount != amount {
		panic(depositconst.ErrUnexpectedPull)
	}

	storage.Delete(ctx, pendingPullKey)
}

// GetGasBalance returns GAS deposited by the account.
func GetGasBalance(account interop.Hash160) int {
	return balanceOf(storage.GetReadOnlyContext(), interop.Hash160(gas.Hash), account)
}

// GetTokenBalance returns tokens deposited by the account.
func GetTokenBalance(token, account interop.Hash160) int {
	return balanceOf(storage.GetReadOnlyContext(), token, account)
}

// GetTotalBalance returns the sum of all account balances in the asset
// (GAS hash for GAS). It never exceeds the amount held by the contract.
func GetTotalBalance(asset interop.Hash160) int {
	return totalOf(storage.GetReadOnlyContext(), asset)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

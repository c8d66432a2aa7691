package deposit

import (
	"github.com/finpool/deposit-contract/common"
	"github.com/finpool/deposit-contract/contracts/deposit/depositconst"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

const (
	balancePrefix  = 'b'
	totalPrefix    = 't'
	pendingPullKey = "p"
)

// pendingPull is a transfer to the contract requested by DepositGas or
// DepositToken and not yet received.
type pendingPull struct {
	Asset  interop.Hash160
	From   interop.Hash160
	Amount int
}

func balanceKey(asset, account interop.Hash160) []byte {
	return append(append([]byte{balancePrefix}, asset...), account...)
}

func totalKey(asset interop.Hash160) []byte {
	return append([]byte{totalPrefix}, asset...)
}

// balanceOf returns ledger balance of the account in the given asset.
func balanceOf(ctx storage.Context, asset, account interop.Hash160) int {
	return common.GetInt(ctx, balanceKey(asset, account))
}

// totalOf returns the sum of all balances in the given asset.
func totalOf(ctx storage.Context, asset interop.Hash160) int {
	return common.GetInt(ctx, totalKey(asset))
}

// credit increases account balance. Asset total bounds every balance, so it's
// the only value checked against MaxBalance.
func credit(ctx storage.Context, asset, account interop.Hash160, amount int) {
	total := totalOf(ctx, asset)
	if amount > depositconst.MaxBalance-total {
		panic(depositconst.ErrOverflow)
	}

	common.PutInt(ctx, balanceKey(asset, account), balanceOf(ctx, asset, account)+amount)
	common.PutInt(ctx, totalKey(asset), total+amount)
}

// debit decreases account balance. It must be called before any asset leaves
// the contract, so a recipient re-entering the contract sees the reduced
// balance.
func debit(ctx storage.Context, asset, account interop.Hash160, amount int) {
	balance := balanceOf(ctx, asset, account)
	if amount > balance {
		panic(depositconst.ErrNotEnoughFunds)
	}

	common.PutInt(ctx, balanceKey(asset, account), balance-amount)
	common.PutInt(ctx, totalKey(asset), totalOf(ctx, asset)-amount)
}

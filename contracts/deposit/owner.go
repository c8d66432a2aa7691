package deposit

import (
	"github.com/finpool/deposit-contract/common"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

const ownerKey = "owner"

// Owner returns the account allowed to change token settings.
func Owner() interop.Hash160 {
	return getOwner(storage.GetReadOnlyContext())
}

// TransferOwnership passes contract ownership to another account. It can be
// invoked only by the current owner.
//
// It produces OwnershipTransferred notification.
func TransferOwnership(newOwner interop.Hash160) {
	ctx := storage.GetContext()

	prevOwner := getOwner(ctx)
	common.CheckOwnerWitness(prevOwner)
	common.CheckAddress(newOwner)

	storage.Put(ctx, ownerKey, newOwner)

	runtime.Log("ownership transferred")
	runtime.Notify("OwnershipTransferred", prevOwner, newOwner)
}

func getOwner(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, ownerKey).(interop.Hash160)
}

func checkOwner(ctx storage.Context) {
	common.CheckOwnerWitness(getOwner(ctx))
}

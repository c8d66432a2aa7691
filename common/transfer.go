package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
)

var (
	// ErrInvalidAmount is thrown when a transferred amount is zero or negative.
	ErrInvalidAmount = "amount must be positive"
	// ErrInvalidAddress is thrown on malformed account or contract hashes.
	ErrInvalidAddress = "invalid address"
)

// CheckAmount panics with ErrInvalidAmount if amount is not positive.
func CheckAmount(amount int) {
	if amount <= 0 {
		panic(ErrInvalidAmount)
	}
}

// CheckAddress panics with ErrInvalidAddress if addr is not a script hash.
func CheckAddress(addr interop.Hash160) {
	if len(addr) != interop.Hash160Len {
		panic(ErrInvalidAddress)
	}
}

// CheckExternalAccount is CheckAddress which also rejects the executing
// contract itself: assets can't be moved from the contract to itself.
func CheckExternalAccount(addr interop.Hash160) {
	CheckAddress(addr)
	if addr.Equals(runtime.GetExecutingScriptHash()) {
		panic(ErrInvalidAddress)
	}
}

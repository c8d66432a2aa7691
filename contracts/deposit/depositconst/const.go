// Package depositconst holds constants shared by the Deposit contract and
// its off-chain clients.
package depositconst

const (
	// ErrNotEnoughFunds is thrown when a withdrawal exceeds the ledger balance.
	ErrNotEnoughFunds = "not enough funds."
	// ErrDepositNotAllowed is thrown when token settings disable deposits.
	ErrDepositNotAllowed = "deposit for this token is not allowed."
	// ErrWithdrawalNotAllowed is thrown when token settings disable withdrawals.
	ErrWithdrawalNotAllowed = "withdraw for this token is not allowed."
	// ErrTransferFailed is thrown when GAS or token contract refuses to move assets.
	ErrTransferFailed = "transfer failed"
	// ErrOverflow is thrown when a credit doesn't fit into the balance range.
	ErrOverflow = "balance overflow"
	// ErrGASSettings is thrown on attempt to store settings for GAS,
	// which is always accepted.
	ErrGASSettings = "GAS settings are fixed"
	// ErrGASToken is thrown when GAS is passed to token methods instead of
	// DepositGas and WithdrawGas.
	ErrGASToken = "GAS is not a token, use GAS methods"
	// ErrInvalidData is thrown when NEP-17 payment data is neither empty nor
	// a beneficiary script hash.
	ErrInvalidData = "invalid data argument, expected Hash160"
	// ErrUnexpectedPull is thrown when a payment carries PullMarker but
	// doesn't match the pull the contract is performing.
	ErrUnexpectedPull = "unexpected pull payment"

	// PullMarker is NEP-17 transfer data the contract uses when it pulls
	// assets from the depositor itself.
	PullMarker = "deposit:pull"

	// MaxBalance is the upper bound for every balance and for per-asset totals.
	MaxBalance = 1<<63 - 1
)

// Notification names.
const (
	GasDepositedEvent         = "GasDeposited"
	GasWithdrawnEvent         = "GasWithdrawn"
	TokenDepositedEvent       = "TokenDeposited"
	TokenWithdrawnEvent       = "TokenWithdrawn"
	OwnershipTransferredEvent = "OwnershipTransferred"
)

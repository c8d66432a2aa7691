/*
Package deposit implements Deposit contract which keeps GAS and NEP-17 tokens
on behalf of their depositors.

Every account has a separate balance per asset. GAS deposits are always
accepted, NEP-17 tokens are accepted and returned only if the contract owner
enabled corresponding direction in token settings. Tokens that were never
configured can be neither deposited nor withdrawn. GAS has no stored settings,
getTokenSettings reports it with both directions enabled and token methods
reject it.

Assets get into the contract in two ways: the contract pulls them from the
depositor (DepositGas, DepositToken; the transaction must be signed by the
depositor with a witness scope covering the asset contract) or the depositor
transfers them directly and the contract accounts them in OnNEP17Payment.
Direct transfers carrying the pull marker data are rejected, as are transfers
naming the contract itself as the beneficiary.
Withdrawals decrease the balance before assets leave the contract, any failed
asset transfer aborts the whole transaction.

# Contract notifications

GasDeposited notification. This notification is produced when GAS is
credited to the account balance.

	GasDeposited:
	  - name: account
	    type: Hash160
	  - name: amount
	    type: Integer

GasWithdrawn notification. This notification is produced when GAS is
returned to the account.

	GasWithdrawn:
	  - name: account
	    type: Hash160
	  - name: amount
	    type: Integer

TokenDeposited notification. This notification is produced when NEP-17
tokens are credited to the account balance.

	TokenDeposited:
	  - name: account
	    type: Hash160
	  - name: token
	    type: Hash160
	  - name: amount
	    type: Integer

TokenWithdrawn notification. This notification is produced when NEP-17
tokens are returned to the account.

	TokenWithdrawn:
	  - name: account
	    type: Hash160
	  - name: token
	    type: Hash160
	  - name: amount
	    type: Integer

OwnershipTransferred notification. This notification is produced when the
contract owner changes.

	OwnershipTransferred:
	  - name: previousOwner
	    type: Hash160
	  - name: newOwner
	    type: Hash160
*/
package deposit

/*
Contract storage model.

# Summary
Key-value storage format:
  - 'owner' -> interop.Hash160
    account allowed to change token settings
  - 's'<token interop.Hash160> -> std.Serialize(TokenSettings)
    deposit and withdrawal switches of the NEP-17 token
  - 'b'<asset interop.Hash160><account interop.Hash160> -> int
    balance of the account, GAS uses native GAS contract hash as an asset
  - 't'<asset interop.Hash160> -> int
    sum of all balances in the asset
  - 'p' -> std.Serialize(pendingPull)
    asset, depositor and amount of the pull in progress, removed as soon as
    the pulling transfer returns

# Accounting
Zero balances and totals are not stored. Sum of 'b' entries of the asset
always equals its 't' entry and never exceeds the amount of the asset owned
by the contract.
*/

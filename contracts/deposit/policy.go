package deposit

import (
	"github.com/finpool/deposit-contract/common"
	"github.com/finpool/deposit-contract/contracts/deposit/depositconst"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// TokenSettings describes which operations are enabled for a NEP-17 token.
type TokenSettings struct {
	Token               interop.Hash160
	IsWithdrawalAllowed bool
	IsDepositAllowed    bool
}

const settingsPrefix = 's'

func settingsKey(token interop.Hash160) []byte {
	return append([]byte{settingsPrefix}, token...)
}

// StoreTokenSettings creates or overwrites settings of the token. It can be
// invoked only by the contract owner. Existing balances are not affected.
func StoreTokenSettings(token interop.Hash160, withdrawalAllowed, depositAllowed bool) {
	ctx := storage.GetContext()

	checkOwner(ctx)
	common.CheckAddress(token)
	if token.Equals(gas.Hash) {
		panic(depositconst.ErrGASSettings)
	}

	common.SetSerialized(ctx, settingsKey(token), TokenSettings{
		Token:               token,
		IsWithdrawalAllowed: withdrawalAllowed,
		IsDepositAllowed:    depositAllowed,
	})

	runtime.Log("token settings stored")
}

// GetTokenSettings returns settings of the token. Tokens that have never been
// configured have both deposit and withdrawal disabled. GAS is reported with
// both directions enabled.
func GetTokenSettings(token interop.Hash160) TokenSettings {
	if token.Equals(gas.Hash) {
		return TokenSettings{
			Token:               token,
			IsWithdrawalAllowed: true,
			IsDepositAllowed:    true,
		}
	}

	return getSettings(storage.GetReadOnlyContext(), token)
}

// ListTokens returns iterator over TokenSettings of all configured tokens.
func ListTokens() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, []byte{settingsPrefix}, storage.ValuesOnly|storage.DeserializeValues)
}

func getSettings(ctx storage.Context, token interop.Hash160) TokenSettings {
	data := storage.Get(ctx, settingsKey(token))
	if data == nil {
		return TokenSettings{
			Token:               token,
			IsWithdrawalAllowed: false,
			IsDepositAllowed:    false,
		}
	}

	return std.Deserialize(data.([]byte)).(TokenSettings)
}

package deposit_test

import (
	"math/big"
	"path"
	"testing"

	"github.com/finpool/deposit-contract/common"
	"github.com/finpool/deposit-contract/contracts/deposit/depositconst"
	rpcdeposit "github.com/finpool/deposit-contract/rpc/deposit"
	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/core/native/nativenames"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

const (
	depositPath   = "."
	tokenPath     = "../../internal/testcontracts/nep17token"
	reentrantPath = "../../internal/testcontracts/reentrant"
)

type testEnv struct {
	e       *neotest.Executor
	hash    util.Uint160
	gasHash util.Uint160
	owner   neotest.Signer
	user    neotest.Signer
}

func newExecutor(t *testing.T) *neotest.Executor {
	bc, acc := chain.NewSingle(t)
	return neotest.NewExecutor(t, bc, acc, acc)
}

func newDepositEnv(t *testing.T) *testEnv {
	e := newExecutor(t)
	owner := e.NewAccount(t)

	c := neotest.CompileFile(t, e.CommitteeHash, depositPath, path.Join(depositPath, "config.yml"))
	e.DeployContract(t, c, []any{owner.ScriptHash()})

	return &testEnv{
		e:       e,
		hash:    c.Hash,
		gasHash: e.NativeHash(t, nativenames.Gas),
		owner:   owner,
		user:    e.NewAccount(t),
	}
}

func (env *testEnv) invoker(signer neotest.Signer) *neotest.ContractInvoker {
	return env.e.NewInvoker(env.hash, signer)
}

// deployToken deploys test NEP-17 token with the whole supply owned by holder.
func (env *testEnv) deployToken(t *testing.T, holder util.Uint160, supply *big.Int) util.Uint160 {
	c := neotest.CompileFile(t, env.e.CommitteeHash, tokenPath, path.Join(tokenPath, "config.yml"))
	env.e.DeployContract(t, c, []any{holder, supply})
	return c.Hash
}

func (env *testEnv) applicationLog(t *testing.T, h util.Uint256) *result.ApplicationLog {
	aer := env.e.CheckHalt(t, h)
	return &result.ApplicationLog{Executions: []state.Execution{aer.Execution}}
}

func (env *testEnv) tokenSettings(t *testing.T, token util.Uint160) rpcdeposit.DepositTokenSettings {
	s, err := env.invoker(env.user).TestInvoke(t, "getTokenSettings", token)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	var res rpcdeposit.DepositTokenSettings
	require.NoError(t, res.FromStackItem(s.Pop().Item()))
	return res
}

func iteratorToArray(iter *storage.Iterator) []stackitem.Item {
	stackItems := make([]stackitem.Item, 0)
	for iter.Next() {
		stackItems = append(stackItems, iter.Value())
	}
	return stackItems
}

func TestDeposit_Deploy(t *testing.T) {
	t.Run("explicit owner", func(t *testing.T) {
		env := newDepositEnv(t)
		env.invoker(env.user).Invoke(t, stackitem.NewBuffer(env.owner.ScriptHash().BytesBE()), "owner")
		env.invoker(env.user).Invoke(t, common.Version, "version")
	})
	t.Run("sender is owner by default", func(t *testing.T) {
		e := newExecutor(t)
		c := neotest.CompileFile(t, e.CommitteeHash, depositPath, path.Join(depositPath, "config.yml"))
		e.DeployContract(t, c, nil)
		e.CommitteeInvoker(c.Hash).Invoke(t, stackitem.NewBuffer(e.CommitteeHash.BytesBE()), "owner")
	})
}

func TestDeposit_GAS(t *testing.T) {
	env := newDepositEnv(t)
	u := env.invoker(env.user)
	acc := env.user.ScriptHash()

	h := u.Invoke(t, stackitem.Null{}, "depositGas", acc, 10)
	events, err := rpcdeposit.GasDepositedEventsFromApplicationLog(env.applicationLog(t, h))
	require.NoError(t, err)
	require.Equal(t, []*rpcdeposit.GasDepositedEvent{{Account: acc, Amount: big.NewInt(10)}}, events)
	u.Invoke(t, 10, "getGasBalance", acc)
	env.e.CheckGASBalance(t, env.hash, big.NewInt(10))

	h = u.Invoke(t, stackitem.Null{}, "withdrawGas", acc, 7)
	withdrawn, err := rpcdeposit.GasWithdrawnEventsFromApplicationLog(env.applicationLog(t, h))
	require.NoError(t, err)
	require.Equal(t, []*rpcdeposit.GasWithdrawnEvent{{Account: acc, Amount: big.NewInt(7)}}, withdrawn)
	u.Invoke(t, 3, "getGasBalance", acc)

	u.InvokeFail(t, depositconst.ErrNotEnoughFunds, "withdrawGas", acc, 100)
	u.Invoke(t, 3, "getGasBalance", acc)
	u.Invoke(t, 3, "getTotalBalance", env.gasHash)
	env.e.CheckGASBalance(t, env.hash, big.NewInt(3))

	t.Run("invalid amount", func(t *testing.T) {
		u.InvokeFail(t, common.ErrInvalidAmount, "depositGas", acc, 0)
		u.InvokeFail(t, common.ErrInvalidAmount, "depositGas", acc, -1)
		u.InvokeFail(t, common.ErrInvalidAmount, "withdrawGas", acc, 0)
	})
	t.Run("foreign account", func(t *testing.T) {
		other := env.e.NewAccount(t)
		u.InvokeFail(t, common.ErrWitnessFailed, "depositGas", other.ScriptHash(), 1)
		u.InvokeFail(t, common.ErrWitnessFailed, "withdrawGas", other.ScriptHash(), 1)
	})
	t.Run("ledger account", func(t *testing.T) {
		u.InvokeFail(t, common.ErrInvalidAddress, "depositGas", env.hash, 1)
		u.InvokeFail(t, common.ErrInvalidAddress, "withdrawGas", env.hash, 1)
	})
	t.Run("malformed account", func(t *testing.T) {
		u.InvokeFail(t, common.ErrInvalidAddress, "depositGas", []byte{1, 2, 3}, 1)
	})

	u.Invoke(t, 3, "getGasBalance", acc)
}

func TestDeposit_GASPayment(t *testing.T) {
	env := newDepositEnv(t)
	acc := env.user.ScriptHash()
	other := env.e.NewAccount(t).ScriptHash()
	g := env.e.NewInvoker(env.gasHash, env.user)
	u := env.invoker(env.user)

	h := g.Invoke(t, true, "transfer", acc, env.hash, 5, nil)
	events, err := rpcdeposit.GasDepositedEventsFromApplicationLog(env.applicationLog(t, h))
	require.NoError(t, err)
	require.Equal(t, []*rpcdeposit.GasDepositedEvent{{Account: acc, Amount: big.NewInt(5)}}, events)

	g.Invoke(t, true, "transfer", acc, env.hash, 3, other)
	g.InvokeFail(t, depositconst.ErrInvalidData, "transfer", acc, env.hash, 1, []byte{1, 2, 3})
	g.InvokeFail(t, depositconst.ErrUnexpectedPull, "transfer", acc, env.hash, 5, depositconst.PullMarker)
	g.InvokeFail(t, common.ErrInvalidAddress, "transfer", acc, env.hash, 4, env.hash)

	u.Invoke(t, 5, "getGasBalance", acc)
	u.Invoke(t, 3, "getGasBalance", other)
	u.Invoke(t, 8, "getTotalBalance", env.gasHash)
	env.e.CheckGASBalance(t, env.hash, big.NewInt(8))
}

func TestDeposit_Token(t *testing.T) {
	env := newDepositEnv(t)
	acc := env.user.ScriptHash()
	token := env.deployToken(t, acc, big.NewInt(1000))

	o := env.invoker(env.owner)
	u := env.invoker(env.user)
	tok := env.e.NewInvoker(token, env.user)

	o.Invoke(t, stackitem.Null{}, "storeTokenSettings", token, true, true)

	h := u.Invoke(t, stackitem.Null{}, "depositToken", acc, token, 25)
	deposited, err := rpcdeposit.TokenDepositedEventsFromApplicationLog(env.applicationLog(t, h))
	require.NoError(t, err)
	require.Equal(t, []*rpcdeposit.TokenDepositedEvent{{Account: acc, Token: token, Amount: big.NewInt(25)}}, deposited)
	u.Invoke(t, 25, "getTokenBalance", token, acc)
	tok.Invoke(t, 25, "balanceOf", env.hash)

	h = u.Invoke(t, stackitem.Null{}, "withdrawToken", acc, token, 20)
	withdrawn, err := rpcdeposit.TokenWithdrawnEventsFromApplicationLog(env.applicationLog(t, h))
	require.NoError(t, err)
	require.Equal(t, []*rpcdeposit.TokenWithdrawnEvent{{Account: acc, Token: token, Amount: big.NewInt(20)}}, withdrawn)
	u.Invoke(t, 5, "getTokenBalance", token, acc)
	tok.Invoke(t, 995, "balanceOf", acc)

	o.Invoke(t, stackitem.Null{}, "storeTokenSettings", token, false, true)
	u.InvokeFail(t, depositconst.ErrWithdrawalNotAllowed, "withdrawToken", acc, token, 5)
	u.Invoke(t, 5, "getTokenBalance", token, acc)

	u.Invoke(t, stackitem.Null{}, "depositToken", acc, token, 5)
	u.Invoke(t, 10, "getTokenBalance", token, acc)

	o.Invoke(t, stackitem.Null{}, "storeTokenSettings", token, true, false)
	u.InvokeFail(t, depositconst.ErrDepositNotAllowed, "depositToken", acc, token, 5)
	u.Invoke(t, stackitem.Null{}, "withdrawToken", acc, token, 10)
	u.Invoke(t, 0, "getTokenBalance", token, acc)
	u.Invoke(t, 0, "getTotalBalance", token)
	tok.Invoke(t, 0, "balanceOf", env.hash)

	t.Run("gas balance is separate", func(t *testing.T) {
		u.Invoke(t, 0, "getGasBalance", acc)
	})
}

func TestDeposit_TokenPayment(t *testing.T) {
	env := newDepositEnv(t)
	acc := env.user.ScriptHash()
	token := env.deployToken(t, acc, big.NewInt(100))
	tok := env.e.NewInvoker(token, env.user)
	u := env.invoker(env.user)

	tok.InvokeFail(t, depositconst.ErrDepositNotAllowed, "transfer", acc, env.hash, 10, nil)
	tok.InvokeFail(t, depositconst.ErrUnexpectedPull, "transfer", acc, env.hash, 10, depositconst.PullMarker)
	tok.Invoke(t, 100, "balanceOf", acc)

	env.invoker(env.owner).Invoke(t, stackitem.Null{}, "storeTokenSettings", token, false, true)

	h := tok.Invoke(t, true, "transfer", acc, env.hash, 10, nil)
	deposited, err := rpcdeposit.TokenDepositedEventsFromApplicationLog(env.applicationLog(t, h))
	require.NoError(t, err)
	require.Equal(t, []*rpcdeposit.TokenDepositedEvent{{Account: acc, Token: token, Amount: big.NewInt(10)}}, deposited)
	u.Invoke(t, 10, "getTokenBalance", token, acc)
	u.Invoke(t, 10, "getTotalBalance", token)

	tok.InvokeFail(t, depositconst.ErrUnexpectedPull, "transfer", acc, env.hash, 10, depositconst.PullMarker)
	tok.InvokeFail(t, common.ErrInvalidAddress, "transfer", acc, env.hash, 10, env.hash)
	tok.Invoke(t, 90, "balanceOf", acc)
	tok.Invoke(t, 10, "balanceOf", env.hash)
	u.Invoke(t, 0, "getTokenBalance", token, env.hash)
}

func TestDeposit_DefaultDeny(t *testing.T) {
	env := newDepositEnv(t)
	acc := env.user.ScriptHash()
	token := env.deployToken(t, acc, big.NewInt(100))
	u := env.invoker(env.user)

	require.Equal(t, rpcdeposit.DepositTokenSettings{Token: token}, env.tokenSettings(t, token))

	unknown := util.Uint160{1, 2, 3}
	require.Equal(t, rpcdeposit.DepositTokenSettings{Token: unknown}, env.tokenSettings(t, unknown))

	u.InvokeFail(t, depositconst.ErrDepositNotAllowed, "depositToken", acc, token, 1)
	u.InvokeFail(t, depositconst.ErrWithdrawalNotAllowed, "withdrawToken", acc, token, 1)
	u.InvokeFail(t, depositconst.ErrDepositNotAllowed, "depositToken", acc, unknown, 1)
}

func TestDeposit_TokenSettings(t *testing.T) {
	env := newDepositEnv(t)
	acc := env.user.ScriptHash()
	token := env.deployToken(t, acc, big.NewInt(100))
	o := env.invoker(env.owner)
	u := env.invoker(env.user)

	t.Run("not an owner", func(t *testing.T) {
		u.InvokeFail(t, common.ErrOwnerWitnessFailed, "storeTokenSettings", token, true, true)
		require.Equal(t, rpcdeposit.DepositTokenSettings{Token: token}, env.tokenSettings(t, token))
	})
	t.Run("invalid token", func(t *testing.T) {
		o.InvokeFail(t, common.ErrInvalidAddress, "storeTokenSettings", []byte{1, 2}, true, true)
		o.InvokeFail(t, depositconst.ErrGASSettings, "storeTokenSettings", env.gasHash, true, true)
	})
	t.Run("GAS", func(t *testing.T) {
		require.Equal(t, rpcdeposit.DepositTokenSettings{
			Token:               env.gasHash,
			IsWithdrawalAllowed: true,
			IsDepositAllowed:    true,
		}, env.tokenSettings(t, env.gasHash))
		u.InvokeFail(t, depositconst.ErrGASToken, "depositToken", acc, env.gasHash, 1)
		u.InvokeFail(t, depositconst.ErrGASToken, "withdrawToken", acc, env.gasHash, 1)
	})

	o.Invoke(t, stackitem.Null{}, "storeTokenSettings", token, true, true)
	u.Invoke(t, stackitem.Null{}, "depositToken", acc, token, 30)

	expected := rpcdeposit.DepositTokenSettings{Token: token, IsWithdrawalAllowed: false, IsDepositAllowed: true}
	for i := 0; i < 2; i++ {
		o.Invoke(t, stackitem.Null{}, "storeTokenSettings", token, false, true)
		require.Equal(t, expected, env.tokenSettings(t, token))
		u.Invoke(t, 30, "getTokenBalance", token, acc)
	}

	other := util.Uint160{9, 9, 9}
	o.Invoke(t, stackitem.Null{}, "storeTokenSettings", other, true, false)

	s, err := u.TestInvoke(t, "listTokens")
	require.NoError(t, err)
	items := iteratorToArray(s.Pop().Value().(*storage.Iterator))
	require.Len(t, items, 2)

	actual := make(map[util.Uint160]rpcdeposit.DepositTokenSettings)
	for _, item := range items {
		var ts rpcdeposit.DepositTokenSettings
		require.NoError(t, ts.FromStackItem(item))
		actual[ts.Token] = ts
	}
	require.Equal(t, map[util.Uint160]rpcdeposit.DepositTokenSettings{
		token: expected,
		other: {Token: other, IsWithdrawalAllowed: true},
	}, actual)
}

func TestDeposit_FailedTransfer(t *testing.T) {
	env := newDepositEnv(t)
	acc := env.user.ScriptHash()
	token := env.deployToken(t, acc, big.NewInt(100))
	u := env.invoker(env.user)
	tok := env.e.NewInvoker(token, env.user)

	env.invoker(env.owner).Invoke(t, stackitem.Null{}, "storeTokenSettings", token, true, true)
	u.Invoke(t, stackitem.Null{}, "depositToken", acc, token, 40)

	tok.Invoke(t, stackitem.Null{}, "setFailTransfers", true)
	u.InvokeFail(t, depositconst.ErrTransferFailed, "withdrawToken", acc, token, 15)
	u.InvokeFail(t, depositconst.ErrTransferFailed, "depositToken", acc, token, 15)
	u.Invoke(t, 40, "getTokenBalance", token, acc)
	u.Invoke(t, 40, "getTotalBalance", token)

	tok.Invoke(t, stackitem.Null{}, "setFailTransfers", false)
	u.Invoke(t, stackitem.Null{}, "withdrawToken", acc, token, 15)
	u.Invoke(t, 25, "getTokenBalance", token, acc)

	t.Run("not enough tokens", func(t *testing.T) {
		u.InvokeFail(t, depositconst.ErrTransferFailed, "depositToken", acc, token, 1000)
		u.Invoke(t, 25, "getTokenBalance", token, acc)
	})
}

func TestDeposit_Overflow(t *testing.T) {
	env := newDepositEnv(t)
	acc := env.user.ScriptHash()

	supply := new(big.Int).Add(big.NewInt(depositconst.MaxBalance), big.NewInt(1))
	token := env.deployToken(t, acc, supply)
	u := env.invoker(env.user)

	env.invoker(env.owner).Invoke(t, stackitem.Null{}, "storeTokenSettings", token, true, true)
	u.Invoke(t, stackitem.Null{}, "depositToken", acc, token, int64(depositconst.MaxBalance))
	u.InvokeFail(t, depositconst.ErrOverflow, "depositToken", acc, token, 1)
	u.Invoke(t, int64(depositconst.MaxBalance), "getTokenBalance", token, acc)
}

func TestDeposit_Reentrancy(t *testing.T) {
	env := newDepositEnv(t)

	c := neotest.CompileFile(t, env.e.CommitteeHash, reentrantPath, path.Join(reentrantPath, "config.yml"))
	env.e.DeployContract(t, c, nil)

	r := env.e.CommitteeInvoker(c.Hash)
	r.Invoke(t, stackitem.Null{}, "setTarget", env.hash)

	gasInv := env.e.CommitteeInvoker(env.gasHash).WithSigners(env.e.Validator)
	gasInv.Invoke(t, true, "transfer", env.e.Validator.ScriptHash(), c.Hash, 10, nil)

	r.Invoke(t, stackitem.Null{}, "deposit", 10)

	u := env.invoker(env.user)
	u.Invoke(t, 10, "getGasBalance", c.Hash)

	// The second withdrawal of 7 sees the balance already reduced to 3.
	r.InvokeFail(t, depositconst.ErrNotEnoughFunds, "withdraw", 7)
	u.Invoke(t, 10, "getGasBalance", c.Hash)
	env.e.CheckGASBalance(t, env.hash, big.NewInt(10))

	r.Invoke(t, stackitem.Null{}, "withdraw", 4)
	u.Invoke(t, 2, "getGasBalance", c.Hash)
	u.Invoke(t, 2, "getTotalBalance", env.gasHash)
	env.e.CheckGASBalance(t, env.hash, big.NewInt(2))
}

func TestDeposit_Conservation(t *testing.T) {
	env := newDepositEnv(t)
	u := env.invoker(env.user)
	acc := env.user.ScriptHash()

	second := env.e.NewAccount(t)
	s := env.invoker(second)

	u.Invoke(t, stackitem.Null{}, "depositGas", acc, 50)
	s.Invoke(t, stackitem.Null{}, "depositGas", second.ScriptHash(), 30)
	env.e.NewInvoker(env.gasHash, env.user).Invoke(t, true, "transfer", acc, env.hash, 20, second.ScriptHash())
	u.Invoke(t, stackitem.Null{}, "withdrawGas", acc, 45)
	s.Invoke(t, stackitem.Null{}, "withdrawGas", second.ScriptHash(), 50)

	u.Invoke(t, 5, "getGasBalance", acc)
	u.Invoke(t, 0, "getGasBalance", second.ScriptHash())
	u.Invoke(t, 5, "getTotalBalance", env.gasHash)
	env.e.CheckGASBalance(t, env.hash, big.NewInt(5))
}

func TestDeposit_TransferOwnership(t *testing.T) {
	env := newDepositEnv(t)
	o := env.invoker(env.owner)
	u := env.invoker(env.user)
	newOwner := env.user.ScriptHash()

	u.InvokeFail(t, common.ErrOwnerWitnessFailed, "transferOwnership", newOwner)
	o.InvokeFail(t, common.ErrInvalidAddress, "transferOwnership", []byte{1})

	h := o.Invoke(t, stackitem.Null{}, "transferOwnership", newOwner)
	events, err := rpcdeposit.OwnershipTransferredEventsFromApplicationLog(env.applicationLog(t, h))
	require.NoError(t, err)
	require.Equal(t, []*rpcdeposit.OwnershipTransferredEvent{{
		PreviousOwner: env.owner.ScriptHash(),
		NewOwner:      newOwner,
	}}, events)

	u.Invoke(t, stackitem.NewBuffer(newOwner.BytesBE()), "owner")

	token := util.Uint160{1, 2, 3}
	o.InvokeFail(t, common.ErrOwnerWitnessFailed, "storeTokenSettings", token, true, true)
	u.Invoke(t, stackitem.Null{}, "storeTokenSettings", token, true, true)
}

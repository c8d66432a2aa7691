package journal

import (
	"context"
	"fmt"
	"math"

	"github.com/finpool/deposit-contract/contracts/deposit/depositconst"
	rpcdeposit "github.com/finpool/deposit-contract/rpc/deposit"
	"github.com/nspcc-dev/neo-go/pkg/core/block"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/trigger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"go.uber.org/zap"
)

// Blockchain provides blocks and results of their transactions. Implemented
// by [rpcclient.Client].
type Blockchain interface {
	GetBlockByIndex(index uint32) (*block.Block, error)
	GetApplicationLog(hash util.Uint256, trig *trigger.Type) (*result.ApplicationLog, error)
}

// Scanner walks through the blocks and saves Deposit contract notifications
// into Store.
type Scanner struct {
	log      *zap.Logger
	chain    Blockchain
	contract util.Uint160
	store    *Store
}

// NewScanner returns Scanner of the given contract notifications.
func NewScanner(log *zap.Logger, chain Blockchain, contract util.Uint160, store *Store) *Scanner {
	return &Scanner{
		log:      log,
		chain:    chain,
		contract: contract,
		store:    store,
	}
}

// Scan processes blocks from the given range (both ends included) and returns
// the number of new entries. Already known entries are skipped, so ranges may
// overlap.
func (s *Scanner) Scan(ctx context.Context, from, to uint32) (int, error) {
	var n int

	for h := from; h <= to; h++ {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		b, err := s.chain.GetBlockByIndex(h)
		if err != nil {
			return n, fmt.Errorf("get block #%d: %w", h, err)
		}

		for _, tx := range b.Transactions {
			l, err := s.chain.GetApplicationLog(tx.Hash(), nil)
			if err != nil {
				return n, fmt.Errorf("get application log of tx %s: %w", tx.Hash().StringLE(), err)
			}

			entries, err := Extract(s.contract, h, l)
			if err != nil {
				return n, fmt.Errorf("tx %s: %w", tx.Hash().StringLE(), err)
			}

			for i := range entries {
				inserted, err := s.store.Append(ctx, entries[i])
				if err != nil {
					return n, err
				}
				if inserted {
					n++
				}
			}
		}

		if len(b.Transactions) > 0 {
			s.log.Debug("block processed", zap.Uint32("height", h), zap.Int("transactions", len(b.Transactions)))
		}

		if h == math.MaxUint32 {
			break
		}
	}

	s.log.Info("blocks scanned", zap.Uint32("from", from), zap.Uint32("to", to), zap.Int("new entries", n))

	return n, nil
}

// Extract returns entries corresponding to the balance changing notifications
// of the contract from the application log of a transaction. Only successful
// executions are taken into account.
func Extract(contract util.Uint160, height uint32, l *result.ApplicationLog) ([]Entry, error) {
	var (
		res   []Entry
		index = -1
	)

	for _, ex := range l.Executions {
		if ex.VMState != vmstate.Halt {
			continue
		}

		for _, ev := range ex.Events {
			index++

			if !ev.ScriptHash.Equals(contract) {
				continue
			}

			e := Entry{
				Tx:     l.Container,
				Index:  index,
				Height: height,
			}

			switch ev.Name {
			case depositconst.GasDepositedEvent:
				var v rpcdeposit.GasDepositedEvent
				if err := v.FromStackItem(ev.Item); err != nil {
					return nil, fmt.Errorf("notification #%d: %w", index, err)
				}
				e.Kind, e.Asset, e.Account, e.Amount = KindDeposit, gas.Hash, v.Account, v.Amount
			case depositconst.GasWithdrawnEvent:
				var v rpcdeposit.GasWithdrawnEvent
				if err := v.FromStackItem(ev.Item); err != nil {
					return nil, fmt.Errorf("notification #%d: %w", index, err)
				}
				e.Kind, e.Asset, e.Account, e.Amount = KindWithdrawal, gas.Hash, v.Account, v.Amount
			case depositconst.TokenDepositedEvent:
				var v rpcdeposit.TokenDepositedEvent
				if err := v.FromStackItem(ev.Item); err != nil {
					return nil, fmt.Errorf("notification #%d: %w", index, err)
				}
				e.Kind, e.Asset, e.Account, e.Amount = KindDeposit, v.Token, v.Account, v.Amount
			case depositconst.TokenWithdrawnEvent:
				var v rpcdeposit.TokenWithdrawnEvent
				if err := v.FromStackItem(ev.Item); err != nil {
					return nil, fmt.Errorf("notification #%d: %w", index, err)
				}
				e.Kind, e.Asset, e.Account, e.Amount = KindWithdrawal, v.Token, v.Account, v.Amount
			default:
				continue
			}

			res = append(res, e)
		}
	}

	return res, nil
}

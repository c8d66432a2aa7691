package journal

import (
	"context"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Report compares journal totals of the asset with the total balance stored
// by the contract.
type Report struct {
	Asset   util.Uint160
	Totals  Totals
	OnChain *big.Int
}

// Consistent checks that everything deposited minus everything withdrawn
// equals to the on-chain total.
func (r Report) Consistent() bool {
	return r.Totals.Balance().Cmp(r.OnChain) == 0
}

// Diff returns journal balance minus on-chain total.
func (r Report) Diff() *big.Int {
	return new(big.Int).Sub(r.Totals.Balance(), r.OnChain)
}

// Reconcile builds Report for the asset given its on-chain total (see
// getTotalBalance contract method).
func (s *Store) Reconcile(ctx context.Context, asset util.Uint160, onChainTotal *big.Int) (Report, error) {
	t, err := s.Totals(ctx, asset)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Asset:   asset,
		Totals:  t,
		OnChain: onChainTotal,
	}, nil
}

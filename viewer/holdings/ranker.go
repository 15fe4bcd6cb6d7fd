// Package holdings filters and orders an address's token holdings by
// economic significance.
package holdings

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TokenHolding is one non-native balance owned by an address. Amount and
// Fiat are derived from Raw at construction time; Fiat is nil when the token
// is unpriced.
type TokenHolding struct {
	ContractAddress string
	Symbol          string
	Decimals        int
	Raw             string
	Rate            *decimal.Decimal
	Amount          decimal.Decimal
	Fiat            *decimal.Decimal
}

// Ranker orders holdings by fiat value. The significance floor is
// configurable because the cutoff is a product decision, not a protocol one.
type Ranker struct {
	floor decimal.Decimal
}

// NewRanker creates a ranker that drops holdings whose fiat value does not
// exceed floor.
func NewRanker(floor decimal.Decimal) *Ranker {
	return &Ranker{floor: floor}
}

// Rank returns a fresh list containing only priced holdings whose fiat value
// is above the floor, sorted by fiat value descending. The sort is stable:
// equal values keep their input order, so repeated renders of the same data
// never flicker. Excluded holdings are not an error; they are simply dropped.
func (r *Ranker) Rank(in []TokenHolding) []TokenHolding {
	out := make([]TokenHolding, 0, len(in))
	for _, h := range in {
		if h.Rate == nil || h.Rate.Sign() <= 0 {
			continue
		}
		if h.Fiat == nil || !h.Fiat.GreaterThan(r.floor) {
			continue
		}
		out = append(out, h)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Fiat.GreaterThan(*out[j].Fiat)
	})

	return out
}

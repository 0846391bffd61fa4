package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Advisor computes replenishment suggestions from historical outbound
// velocity and current balances. Pure derived analytics: it never touches
// the write path and takes no ledger locks.
type Advisor struct {
	repo Repository
}

// NewAdvisor creates a new reorder advisor.
func NewAdvisor(repo Repository) *Advisor {
	return &Advisor{repo: repo}
}

// SuggestParams configures one advisor run.
type SuggestParams struct {
	WindowDays   int            // lookback window for outbound demand
	CoverageDays int            // days of stock the suggestion targets
	MinQty       types.Quantity // suggestions below this are dropped
	Now          time.Time      // zero means time.Now().UTC()
}

// Suggestion is one replenishment row.
type Suggestion struct {
	ProductID      id.ID          `json:"productId"`
	SKU            string         `json:"sku"`
	Name           string         `json:"name"`
	AvgDailyDemand types.Quantity `json:"avgDailyDemand"`
	OnHandTotal    types.Quantity `json:"onHandTotal"`
	SuggestedQty   types.Quantity `json:"suggestedQty"`
	WindowDays     int            `json:"windowDays"`
	CoverageDays   int            `json:"coverageDays"`
}

// Suggest sums outbound demand per product over the window, derives average
// daily demand and a coverage target, and suggests topping balances up to
// the target. Each intermediate result is rounded to two places before the
// next step; the rounding points are load-bearing for the emitted numbers.
func (a *Advisor) Suggest(ctx context.Context, p SuggestParams) ([]Suggestion, error) {
	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	days := p.WindowDays
	if days <= 0 {
		days = 1
	}
	cutoff := now.AddDate(0, 0, -days)

	outbound, err := a.repo.OutboundTotalsSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("sum outbound demand: %w", err)
	}
	if len(outbound) == 0 {
		return []Suggestion{}, nil
	}

	onHand, err := a.repo.OnHandTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum on-hand totals: %w", err)
	}

	productIDs := make([]id.ID, 0, len(outbound))
	for pid := range outbound {
		productIDs = append(productIDs, pid)
	}
	refs, err := a.repo.ProductRefs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}

	windowQty := types.NewQuantityFromInt(int64(days))
	coverageQty := types.NewQuantityFromInt(int64(p.CoverageDays))

	suggestions := make([]Suggestion, 0, len(outbound))
	for pid, totalOut := range outbound {
		avgDaily := types.RoundQuantity(totalOut.Div(windowQty))
		target := types.RoundQuantity(avgDaily.Mul(coverageQty))
		suggested := target.Sub(onHand[pid])

		if suggested.Sign() <= 0 || suggested.LessThan(p.MinQty) {
			continue
		}

		ref := refs[pid]
		suggestions = append(suggestions, Suggestion{
			ProductID:      pid,
			SKU:            ref.SKU,
			Name:           ref.Name,
			AvgDailyDemand: avgDaily,
			OnHandTotal:    types.RoundQuantity(onHand[pid]),
			SuggestedQty:   types.RoundQuantity(suggested),
			WindowDays:     days,
			CoverageDays:   p.CoverageDays,
		})
	}

	// Highest need first.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].SuggestedQty.GreaterThan(suggestions[j].SuggestedQty)
	})

	return suggestions, nil
}

package allocation

import (
	"cmp"
	"context"
	"slices"

	"github.com/retailpos/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// FIFOAllocationStrategy pays off the oldest open debt first. Debts posted
// at the same instant are taken in id order so replays allocate identically.
type FIFOAllocationStrategy struct {
	strategy.BaseStrategy
}

func NewFIFOAllocationStrategy() *FIFOAllocationStrategy {
	return &FIFOAllocationStrategy{BaseStrategy: strategy.NewBaseStrategy("fifo")}
}

func oldestFirst(a, b strategy.OpenDebt) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}

func (s *FIFOAllocationStrategy) Allocate(
	_ context.Context,
	in strategy.AllocationContext,
	debts []strategy.OpenDebt,
) (strategy.AllocationResult, error) {
	queue := slices.Clone(debts)
	slices.SortStableFunc(queue, oldestFirst)

	res := strategy.AllocationResult{
		Allocations:    []strategy.Allocation{},
		TotalAllocated: decimal.Zero,
		Remaining:      in.PaymentAmount,
	}
	for _, d := range queue {
		if !res.Remaining.IsPositive() {
			break
		}
		if !d.Remaining.IsPositive() {
			continue
		}
		take := decimal.Min(res.Remaining, d.Remaining)
		res.Allocations = append(res.Allocations, strategy.Allocation{
			DebtID:          d.ID,
			AllocatedAmount: take,
			RemainingBefore: d.Remaining,
			RemainingAfter:  d.Remaining.Sub(take),
		})
		res.TotalAllocated = res.TotalAllocated.Add(take)
		res.Remaining = res.Remaining.Sub(take)
	}
	return res, nil
}

var _ strategy.PaymentAllocationStrategy = (*FIFOAllocationStrategy)(nil)

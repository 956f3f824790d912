// Package strategy holds the pluggable policies of the ledger
package strategy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpenDebt is a receivable or payable entry with an unpaid balance.
type OpenDebt struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Remaining decimal.Decimal
}

// Allocation records how much of a payment went to one debt.
type Allocation struct {
	DebtID          uuid.UUID
	AllocatedAmount decimal.Decimal
	RemainingBefore decimal.Decimal
	RemainingAfter  decimal.Decimal
}

type AllocationContext struct {
	ShopID        uuid.UUID
	PartyID       uuid.UUID
	PaymentAmount decimal.Decimal
	PaymentDate   time.Time
}

// AllocationResult.Remaining is the part of the payment no debt absorbed.
type AllocationResult struct {
	Allocations    []Allocation
	TotalAllocated decimal.Decimal
	Remaining      decimal.Decimal
}

// PaymentAllocationStrategy distributes a payment across open debts.
// Implementations must not allocate more than a debt's Remaining and must
// report what they could not place in AllocationResult.Remaining.
type PaymentAllocationStrategy interface {
	Name() string
	Allocate(ctx context.Context, allocCtx AllocationContext, debts []OpenDebt) (AllocationResult, error)
}

// BaseStrategy supplies Name for embedding strategies.
type BaseStrategy struct {
	name string
}

func NewBaseStrategy(name string) BaseStrategy {
	return BaseStrategy{name: name}
}

func (s BaseStrategy) Name() string {
	if s.name == "" {
		return "custom"
	}
	return s.name
}

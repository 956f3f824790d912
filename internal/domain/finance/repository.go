package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtFilter narrows debt listings
type DebtFilter struct {
	OpenOnly bool
	Limit    int
}

// CustomerDebtRepository persists DebtToBePaid records
type CustomerDebtRepository interface {
	// FindByIDForShop finds a debt by ID within a shop
	FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*DebtToBePaid, error)

	// FindOpenByCustomer returns non-PAID debts ordered by created_at, id ascending
	FindOpenByCustomer(ctx context.Context, shopID, customerID uuid.UUID) ([]DebtToBePaid, error)

	// FindByCustomer lists a customer's debts, oldest first
	FindByCustomer(ctx context.Context, shopID, customerID uuid.UUID, filter DebtFilter) ([]DebtToBePaid, error)

	// SumOutstanding returns the sum of remaining_amount over non-PAID debts
	SumOutstanding(ctx context.Context, shopID, customerID uuid.UUID) (decimal.Decimal, error)

	// Save creates or updates a debt
	Save(ctx context.Context, debt *DebtToBePaid) error
}

// SupplierDebtRepository persists DebtToPay records
type SupplierDebtRepository interface {
	FindByIDForShop(ctx context.Context, shopID, id uuid.UUID) (*DebtToPay, error)

	// FindOpenBySupplier returns non-PAID debts ordered by created_at, id ascending
	FindOpenBySupplier(ctx context.Context, shopID, supplierID uuid.UUID) ([]DebtToPay, error)

	FindBySupplier(ctx context.Context, shopID, supplierID uuid.UUID, filter DebtFilter) ([]DebtToPay, error)

	SumOutstanding(ctx context.Context, shopID, supplierID uuid.UUID) (decimal.Decimal, error)

	Save(ctx context.Context, debt *DebtToPay) error
}

// ExpenseRepository persists expenses
type ExpenseRepository interface {
	Save(ctx context.Context, expense *Expense) error
	// FindInRange lists expenses with date in [from, to)
	FindInRange(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]Expense, error)
}

// AdjustmentRepository persists adjustments
type AdjustmentRepository interface {
	Save(ctx context.Context, adjustment *Adjustment) error
	FindInRange(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]Adjustment, error)
}

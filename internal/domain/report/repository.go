package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reader is the read-only query side used by the aggregator and the forecaster.
// All ranges are half-open: [from, to).
type Reader interface {
	// SaleLines returns lines of completed orders, ordered by sold time then line id
	SaleLines(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]SaleLine, error)

	// WasteLines returns waste records, ordered by recorded time then id
	WasteLines(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]WasteLine, error)

	ExpenseTotal(ctx context.Context, shopID uuid.UUID, from, to time.Time) (decimal.Decimal, error)

	// AdjustmentTotal sums signed adjustment amounts
	AdjustmentTotal(ctx context.Context, shopID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}

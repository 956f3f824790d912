package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Party kinds used in lock keys and metrics
const (
	PartyCustomer = "customer"
	PartySupplier = "supplier"
)

// BusinessRecorder receives business events for metrics
type BusinessRecorder interface {
	RecordOrderCreated(ctx context.Context, shopID uuid.UUID, total decimal.Decimal, items int)
	RecordPayment(ctx context.Context, shopID uuid.UUID, party string, applied, unallocated decimal.Decimal)
	RecordWaste(ctx context.Context, shopID uuid.UUID, value decimal.Decimal)
	RecordStockRejected(ctx context.Context, shopID uuid.UUID, source string)
	RecordReport(ctx context.Context, shopID uuid.UUID, kind string, cacheHit bool, elapsed time.Duration)
}

// ReportInvalidator drops cached reports of a shop after its data changed
type ReportInvalidator interface {
	InvalidateShop(ctx context.Context, shopID uuid.UUID) error
}

// ReportCache stores composed reports as JSON. Keys embed the shop generation,
// so bumping the generation orphans every cached report of the shop.
type ReportCache interface {
	ReportInvalidator

	// Get decodes the cached value into dst. Returns false on a miss.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Generation returns the current cache generation of the shop
	Generation(ctx context.Context, shopID uuid.UUID) (int64, error)
}

// PartyLocker serializes payment processing for one party across instances.
// It is advisory: the database row lock taken inside the transaction stays authoritative.
type PartyLocker interface {
	// Lock acquires the lock for key. The returned func releases it.
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Clock returns the current time
type Clock func() time.Time

// SystemClock is the wall clock in UTC
func SystemClock() time.Time {
	return time.Now().UTC()
}

// NoopRecorder discards metrics
type NoopRecorder struct{}

func (NoopRecorder) RecordOrderCreated(context.Context, uuid.UUID, decimal.Decimal, int) {}
func (NoopRecorder) RecordPayment(context.Context, uuid.UUID, string, decimal.Decimal, decimal.Decimal) {}
func (NoopRecorder) RecordWaste(context.Context, uuid.UUID, decimal.Decimal) {}
func (NoopRecorder) RecordStockRejected(context.Context, uuid.UUID, string) {}
func (NoopRecorder) RecordReport(context.Context, uuid.UUID, string, bool, time.Duration) {}

// NoopInvalidator is used when report caching is disabled
type NoopInvalidator struct{}

func (NoopInvalidator) InvalidateShop(context.Context, uuid.UUID) error { return nil }

// NoopLocker hands out locks that never block
type NoopLocker struct{}

func (NoopLocker) Lock(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

var (
	_ BusinessRecorder  = NoopRecorder{}
	_ ReportInvalidator = NoopInvalidator{}
	_ PartyLocker       = NoopLocker{}
)

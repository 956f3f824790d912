package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics records ledger, order, waste and report activity.
// It implements the application's BusinessRecorder port.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	orderCreatedTotal   *Counter
	orderAmountTotal    *AmountCounter
	paymentTotal        *Counter
	paymentApplied      *AmountCounter
	paymentUnallocated  *AmountCounter
	wasteValueTotal     *AmountCounter
	stockRejectedTotal  *Counter
	reportBuildDuration *Histogram
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBusinessMetrics creates every instrument up front.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, &MetricsError{Op: "NewBusinessMetrics", Err: ErrMeterNil}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error
	if bm.orderCreatedTotal, err = NewCounter(cfg.Meter,
		"retail_order_created_total", "Total number of orders created", "{orders}"); err != nil {
		return nil, err
	}
	if bm.orderAmountTotal, err = NewAmountCounter(cfg.Meter,
		"retail_order_amount_total", "Sum of order totals"); err != nil {
		return nil, err
	}
	if bm.paymentTotal, err = NewCounter(cfg.Meter,
		"retail_payment_total", "Total number of ledger payments applied", "{payments}"); err != nil {
		return nil, err
	}
	if bm.paymentApplied, err = NewAmountCounter(cfg.Meter,
		"retail_payment_applied_amount_total", "Payment amount allocated to debts"); err != nil {
		return nil, err
	}
	if bm.paymentUnallocated, err = NewAmountCounter(cfg.Meter,
		"retail_payment_unallocated_amount_total", "Payment amount left over after allocation"); err != nil {
		return nil, err
	}
	if bm.wasteValueTotal, err = NewAmountCounter(cfg.Meter,
		"retail_waste_value_total", "Purchase value of written-off stock"); err != nil {
		return nil, err
	}
	if bm.stockRejectedTotal, err = NewCounter(cfg.Meter,
		"retail_stock_rejected_total", "Stock decrements rejected for insufficient stock", "{requests}"); err != nil {
		return nil, err
	}
	if bm.reportBuildDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "retail_report_build_duration_seconds",
		Description: "Time to build or fetch a report",
		Unit:        "s",
		Boundaries:  DurationBuckets,
	}); err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordOrderCreated counts an order and adds its total.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, shopID uuid.UUID, total decimal.Decimal, items int) {
	attrs := []attribute.KeyValue{AttrShopID.String(shopID.String())}
	bm.orderCreatedTotal.Inc(ctx, attrs...)
	bm.orderAmountTotal.Add(ctx, total.InexactFloat64(), attrs...)
	bm.logger.Debug("Recorded order metric",
		zap.String("shop_id", shopID.String()),
		zap.Int("items", items),
	)
}

// RecordPayment counts a payment and splits its amount into applied and unallocated.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, shopID uuid.UUID, party string, applied, unallocated decimal.Decimal) {
	attrs := []attribute.KeyValue{
		AttrShopID.String(shopID.String()),
		AttrParty.String(party),
	}
	bm.paymentTotal.Inc(ctx, attrs...)
	bm.paymentApplied.Add(ctx, applied.InexactFloat64(), attrs...)
	if unallocated.IsPositive() {
		bm.paymentUnallocated.Add(ctx, unallocated.InexactFloat64(), attrs...)
	}
}

// RecordWaste adds the value of a waste record.
func (bm *BusinessMetrics) RecordWaste(ctx context.Context, shopID uuid.UUID, value decimal.Decimal) {
	bm.wasteValueTotal.Add(ctx, value.InexactFloat64(), AttrShopID.String(shopID.String()))
}

// RecordStockRejected counts a decrement refused by the stock guard.
// source is the caller: order, waste, reduce_stock or waste_correction.
func (bm *BusinessMetrics) RecordStockRejected(ctx context.Context, shopID uuid.UUID, source string) {
	bm.stockRejectedTotal.Inc(ctx,
		AttrShopID.String(shopID.String()),
		AttrSource.String(source),
	)
}

// RecordReport records how long a report took and whether it came from the cache.
func (bm *BusinessMetrics) RecordReport(ctx context.Context, shopID uuid.UUID, kind string, cacheHit bool, elapsed time.Duration) {
	outcome := "miss"
	if cacheHit {
		outcome = "hit"
	}
	bm.reportBuildDuration.RecordDuration(ctx, elapsed,
		AttrShopID.String(shopID.String()),
		AttrSource.String(kind),
		AttrOutcome.String(outcome),
	)
}

// MetricsError describes a failed metrics operation.
type MetricsError struct {
	Op  string
	Err error
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *MetricsError) Unwrap() error {
	return e.Err
}

var _ appshared.BusinessRecorder = (*BusinessMetrics)(nil)

package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Report kinds used for metrics and cache keys
const (
	KindProfitLoss = "profit_loss"
	KindForecast   = "forecast"
	KindShop       = "shop"
)

// DefaultCacheTTL is used when no TTL is configured
const DefaultCacheTTL = 10 * time.Minute

// ErrExportUnavailable is returned when no renderer was configured
var ErrExportUnavailable = errors.New("report export is not configured")

// Renderer turns a composed report into a downloadable document
type Renderer interface {
	Render(r *report.ShopReport) ([]byte, error)
	ContentType() string
	Extension() string
}

// ReportService builds read-only reports from the ledger, orders and waste
type ReportService struct {
	reader     report.Reader
	cache      appshared.ReportCache
	cacheTTL   time.Duration
	renderer   Renderer
	recorder   appshared.BusinessRecorder
	clock      appshared.Clock
	loc        *time.Location
	monthsBack int
	topN       int
	logger     *zap.Logger
}

// Option configures ReportService
type Option func(*ReportService)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *ReportService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache enables caching of composed shop reports
func WithCache(cache appshared.ReportCache, ttl time.Duration) Option {
	return func(s *ReportService) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithRenderer sets the export renderer
func WithRenderer(r Renderer) Option {
	return func(s *ReportService) {
		s.renderer = r
	}
}

// WithRecorder sets the business metrics recorder
func WithRecorder(recorder appshared.BusinessRecorder) Option {
	return func(s *ReportService) {
		s.recorder = recorder
	}
}

// WithClock overrides the wall clock
func WithClock(clock appshared.Clock) Option {
	return func(s *ReportService) {
		s.clock = clock
	}
}

// WithLocation sets the time zone that report days are bucketed in
func WithLocation(loc *time.Location) Option {
	return func(s *ReportService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithForecastDefaults replaces the defaults used when monthsBack or topN is zero
func WithForecastDefaults(monthsBack, topN int) Option {
	return func(s *ReportService) {
		if monthsBack > 0 {
			s.monthsBack = monthsBack
		}
		if topN > 0 {
			s.topN = topN
		}
	}
}

// NewReportService creates a new ReportService
func NewReportService(reader report.Reader, opts ...Option) *ReportService {
	s := &ReportService{
		reader:     reader,
		cacheTTL:   DefaultCacheTTL,
		recorder:   appshared.NoopRecorder{},
		clock:      appshared.SystemClock,
		loc:        time.UTC,
		monthsBack: report.DefaultMonthsBack,
		topN:       report.DefaultTopN,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildPLReport aggregates the profit and loss of the resolved period
func (s *ReportService) BuildPLReport(ctx context.Context, shopID uuid.UUID, q report.PeriodQuery) (*report.PLReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "build_pl_report")
	defer span.End()
	started := time.Now()

	rng, err := report.ResolvePeriod(q, s.clock(), s.loc)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrShopID, shopID, telemetry.SpanAttrPeriod, rng.Key())

	pl, err := s.profitLoss(ctx, shopID, rng)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recorder.RecordReport(ctx, shopID, KindProfitLoss, false, time.Since(started))
	telemetry.SetOK(span)
	return pl, nil
}

func (s *ReportService) profitLoss(ctx context.Context, shopID uuid.UUID, rng report.DateRange) (*report.PLReport, error) {
	from, to := rng.Start, rng.EndExclusive()
	cmpFrom, cmpTo := report.ComparisonWindow(rng)

	in := report.PLInput{Range: rng}
	var err error
	if in.Sales, err = s.reader.SaleLines(ctx, shopID, from, to); err != nil {
		return nil, fmt.Errorf("failed to load sale lines: %w", err)
	}
	if in.Waste, err = s.reader.WasteLines(ctx, shopID, from, to); err != nil {
		return nil, fmt.Errorf("failed to load waste lines: %w", err)
	}
	if in.TotalExpenses, err = s.reader.ExpenseTotal(ctx, shopID, from, to); err != nil {
		return nil, fmt.Errorf("failed to sum expenses: %w", err)
	}
	if in.TotalAdjustments, err = s.reader.AdjustmentTotal(ctx, shopID, from, to); err != nil {
		return nil, fmt.Errorf("failed to sum adjustments: %w", err)
	}
	if in.ComparisonSales, err = s.reader.SaleLines(ctx, shopID, cmpFrom, cmpTo); err != nil {
		return nil, fmt.Errorf("failed to load comparison sales: %w", err)
	}
	if in.ComparisonWaste, err = s.reader.WasteLines(ctx, shopID, cmpFrom, cmpTo); err != nil {
		return nil, fmt.Errorf("failed to load comparison waste: %w", err)
	}
	return report.BuildProfitLoss(in), nil
}

// ForecastDemand predicts next-month demand per variant. Zero arguments take
// the configured defaults; negative ones are rejected.
func (s *ReportService) ForecastDemand(ctx context.Context, shopID uuid.UUID, monthsBack, topN int) (*report.Forecast, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "forecast_demand")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrShopID, shopID, "months_back", monthsBack, "top_n", topN)
	started := time.Now()

	fc, err := s.forecast(ctx, shopID, s.forecastParams(monthsBack, topN))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recorder.RecordReport(ctx, shopID, KindForecast, false, time.Since(started))
	telemetry.SetOK(span)
	return fc, nil
}

func (s *ReportService) forecastParams(monthsBack, topN int) report.ForecastParams {
	if monthsBack == 0 {
		monthsBack = s.monthsBack
	}
	if topN == 0 {
		topN = s.topN
	}
	return report.ForecastParams{MonthsBack: monthsBack, TopN: topN}
}

func (s *ReportService) forecast(ctx context.Context, shopID uuid.UUID, params report.ForecastParams) (*report.Forecast, error) {
	params, err := params.Normalize()
	if err != nil {
		return nil, err
	}
	now := s.clock()
	from, to := params.Window(now)
	sales, err := s.reader.SaleLines(ctx, shopID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load sale lines: %w", err)
	}
	return report.BuildForecast(sales, params, now, s.loc)
}

// ShopReportQuery selects the period and forecast parameters of a shop report
type ShopReportQuery struct {
	Period     report.PeriodQuery
	MonthsBack int
	TopN       int
}

// BuildShopReport composes the P&L and the forecast. Results are cached until
// the shop's data changes or the TTL runs out.
func (s *ReportService) BuildShopReport(ctx context.Context, shopID uuid.UUID, q ShopReportQuery) (*report.ShopReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "build_shop_report")
	defer span.End()
	started := time.Now()

	rng, err := report.ResolvePeriod(q.Period, s.clock(), s.loc)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	params, err := s.forecastParams(q.MonthsBack, q.TopN).Normalize()
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrShopID, shopID, telemetry.SpanAttrPeriod, rng.Key())

	key := s.cacheKey(ctx, shopID, rng, params)
	if key != "" {
		var cached report.ShopReport
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		}
		if hit {
			telemetry.SetAttribute(span, telemetry.SpanAttrCacheHit, true)
			s.recorder.RecordReport(ctx, shopID, KindShop, true, time.Since(started))
			telemetry.SetOK(span)
			return &cached, nil
		}
	}

	pl, err := s.profitLoss(ctx, shopID, rng)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	fc, err := s.forecast(ctx, shopID, params)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	out := report.Compose(shopID, rng, pl, fc, s.clock())

	if key != "" {
		if err := s.cache.Set(ctx, key, out, s.cacheTTL); err != nil {
			s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrCacheHit, false)
	s.recorder.RecordReport(ctx, shopID, KindShop, false, time.Since(started))
	telemetry.SetOK(span)
	return out, nil
}

// cacheKey returns "" when caching is off or the generation is unreadable
func (s *ReportService) cacheKey(ctx context.Context, shopID uuid.UUID, rng report.DateRange, params report.ForecastParams) string {
	if s.cache == nil {
		return ""
	}
	gen, err := s.cache.Generation(ctx, shopID)
	if err != nil {
		s.logger.Warn("report cache generation unavailable", zap.String("shop_id", shopID.String()), zap.Error(err))
		return ""
	}
	return fmt.Sprintf("%s:%s:%d:%s:%d:%d", KindShop, shopID, gen, rng.Key(), params.MonthsBack, params.TopN)
}

// Export is a rendered report ready to be served
type Export struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportShopReport renders the shop report with the configured renderer
func (s *ReportService) ExportShopReport(ctx context.Context, shopID uuid.UUID, q ShopReportQuery) (*Export, error) {
	if s.renderer == nil {
		return nil, ErrExportUnavailable
	}
	r, err := s.BuildShopReport(ctx, shopID, q)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.Render(r)
	if err != nil {
		return nil, fmt.Errorf("failed to render shop report: %w", err)
	}
	return &Export{
		Filename:    fmt.Sprintf("shop-report_%s.%s", r.Range.Key(), s.renderer.Extension()),
		ContentType: s.renderer.ContentType(),
		Content:     content,
	}, nil
}

// WarmShop builds the current month's shop report with default parameters so
// it lands in the cache
func (s *ReportService) WarmShop(ctx context.Context, shopID uuid.UUID) error {
	_, err := s.BuildShopReport(ctx, shopID, ShopReportQuery{})
	return err
}

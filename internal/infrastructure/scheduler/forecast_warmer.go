package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ShopLister finds shops with recent sales
type ShopLister interface {
	ShopsWithOrdersSince(ctx context.Context, days int) ([]uuid.UUID, error)
}

// ShopWarmer rebuilds and caches the default report of one shop
type ShopWarmer interface {
	WarmShop(ctx context.Context, shopID uuid.UUID) error
}

// ForecastWarmerConfig holds configuration for the forecast warm-up job
type ForecastWarmerConfig struct {
	// CronSchedule is a standard five-field cron expression
	CronSchedule string
	// ActiveDays selects shops with at least one order in the last N days
	ActiveDays int
	// JobTimeout bounds one complete run
	JobTimeout time.Duration
}

// DefaultForecastWarmerConfig runs at 03:00 daily
func DefaultForecastWarmerConfig() ForecastWarmerConfig {
	return ForecastWarmerConfig{
		CronSchedule: "0 3 * * *",
		ActiveDays:   30,
		JobTimeout:   10 * time.Minute,
	}
}

// RunResult summarises one warm-up run
type RunResult struct {
	Shops    int
	Warmed   int
	Failed   int
	Duration time.Duration
}

// ForecastWarmer precomputes shop reports for active shops so the first
// request of the day is served from cache. It only reads ledger data.
type ForecastWarmer struct {
	config ForecastWarmerConfig
	shops  ShopLister
	warmer ShopWarmer
	logger *zap.Logger

	cron    *cron.Cron
	entryID cron.EntryID
	running atomic.Bool

	mu        sync.Mutex
	isStarted bool
	lastRun   *RunResult
}

// NewForecastWarmer creates a new ForecastWarmer. The schedule is validated here.
func NewForecastWarmer(config ForecastWarmerConfig, shops ShopLister, warmer ShopWarmer, logger *zap.Logger) (*ForecastWarmer, error) {
	defaults := DefaultForecastWarmerConfig()
	if config.CronSchedule == "" {
		config.CronSchedule = defaults.CronSchedule
	}
	if config.ActiveDays <= 0 {
		config.ActiveDays = defaults.ActiveDays
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &ForecastWarmer{
		config: config,
		shops:  shops,
		warmer: warmer,
		logger: logger.Named("forecast_warmer"),
		cron:   cron.New(),
	}
	id, err := w.cron.AddFunc(config.CronSchedule, w.tick)
	if err != nil {
		return nil, fmt.Errorf("%w: cron schedule %q: %v", ErrInvalidConfig, config.CronSchedule, err)
	}
	w.entryID = id
	return w, nil
}

// Start starts the cron scheduler
func (w *ForecastWarmer) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isStarted {
		return
	}
	w.isStarted = true
	w.cron.Start()

	w.logger.Info("Forecast warmer started",
		zap.String("schedule", w.config.CronSchedule),
		zap.Time("next_run_at", w.cron.Entry(w.entryID).Next),
	)
}

// Stop stops scheduling and waits for a running job until ctx is done
func (w *ForecastWarmer) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.isStarted {
		w.mu.Unlock()
		return nil
	}
	w.isStarted = false
	w.mu.Unlock()

	done := w.cron.Stop().Done()
	select {
	case <-done:
		w.logger.Info("Forecast warmer stopped")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Forecast warmer stop timed out")
		return ctx.Err()
	}
}

// LastRun returns the result of the most recent run, or nil
func (w *ForecastWarmer) LastRun() *RunResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lastRun == nil {
		return nil
	}
	r := *w.lastRun
	return &r
}

func (w *ForecastWarmer) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), w.config.JobTimeout)
	defer cancel()
	if _, err := w.RunOnce(ctx); err != nil {
		w.logger.Error("Forecast warm-up failed", zap.Error(err))
	}
}

// RunOnce warms every active shop. A failing shop is logged and skipped.
func (w *ForecastWarmer) RunOnce(ctx context.Context) (*RunResult, error) {
	if !w.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer w.running.Store(false)

	started := time.Now()
	shopIDs, err := w.shops.ShopsWithOrdersSince(ctx, w.config.ActiveDays)
	if err != nil {
		return nil, fmt.Errorf("failed to list active shops: %w", err)
	}

	result := &RunResult{Shops: len(shopIDs)}
	for _, shopID := range shopIDs {
		if ctx.Err() != nil {
			w.logger.Warn("Forecast warm-up interrupted",
				zap.Int("remaining", len(shopIDs)-result.Warmed-result.Failed),
				zap.Error(ctx.Err()),
			)
			break
		}
		if err := w.warmer.WarmShop(ctx, shopID); err != nil {
			result.Failed++
			w.logger.Warn("Failed to warm shop report",
				zap.String("shop_id", shopID.String()),
				zap.Error(err),
			)
			continue
		}
		result.Warmed++
	}
	result.Duration = time.Since(started)

	w.mu.Lock()
	w.lastRun = result
	w.mu.Unlock()

	w.logger.Info("Forecast warm-up completed",
		zap.Int("shops", result.Shops),
		zap.Int("warmed", result.Warmed),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQuery = 200 * time.Millisecond

// DBTracingConfig controls otelgorm and the statement timing callbacks.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // keep bound variables on spans; never in production
	SlowQueryThresh time.Duration
	DBSystem        string // postgresql or sqlite
}

func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{SlowQueryThresh: defaultSlowQuery, DBSystem: "postgresql"}
}

// DBTracingPlugin adds otelgorm spans and annotates the caller's span with
// table, row count, slow statements and lock contention on ledger rows.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, log *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQuery
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DBTracingPlugin{config: cfg, logger: log}
}

// RegisterOtelGorm installs otelgorm and the timing callbacks. Disabled, it
// leaves db untouched.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing off")
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.RegisterCallbacks(db); err != nil {
		return err
	}
	p.logger.Info("Database tracing on",
		zap.String("db_system", p.config.DBSystem),
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

const (
	callbackStart  = "retail:db_start"
	callbackFinish = "retail:db_finish"
)

type registrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// RegisterCallbacks wraps every gorm processor (create, query, update,
// delete, row, raw) with the timing callbacks.
func (p *DBTracingPlugin) RegisterCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	hooks := [][2]registrar{
		{cb.Create().Before("gorm:create"), cb.Create().After("gorm:create")},
		{cb.Query().Before("gorm:query"), cb.Query().After("gorm:query")},
		{cb.Update().Before("gorm:update"), cb.Update().After("gorm:update")},
		{cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete")},
		{cb.Row().Before("gorm:row"), cb.Row().After("gorm:row")},
		{cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw")},
	}
	for _, h := range hooks {
		if err := h[0].Register(callbackStart, p.start); err != nil {
			return err
		}
		if err := h[1].Register(callbackFinish, p.finish); err != nil {
			return err
		}
	}
	return nil
}

type startedAtKey struct{}

func (p *DBTracingPlugin) start(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, startedAtKey{}, time.Now())
	}
}

// finish records the outcome on the active span. gorm.ErrRecordNotFound is a
// normal lookup result and does not fail the span.
func (p *DBTracingPlugin) finish(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	stmt := db.Statement

	var elapsed time.Duration
	if began, ok := ctx.Value(startedAtKey{}).(time.Time); ok {
		elapsed = time.Since(began)
	}
	slow := elapsed > p.config.SlowQueryThresh
	if slow {
		p.logger.Warn("Slow query",
			zap.String("table", stmt.Table),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", stmt.RowsAffected),
		)
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := []attribute.KeyValue{attribute.Int64("db.rows_affected", stmt.RowsAffected)}
	if stmt.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", stmt.Table))
	}
	span.SetAttributes(attrs...)

	if err := db.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if logger.IsLockContention(err) {
			span.SetAttributes(attribute.Bool("db.lock_contention", true))
		}
	}
	if slow {
		span.SetAttributes(attribute.Bool("db.slow_query", true), attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()))
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}

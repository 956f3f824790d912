package telemetry

import (
	"context"
	"database/sql"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PoolStatsSource exposes connection pool statistics. *sql.DB satisfies it.
type PoolStatsSource interface {
	Stats() sql.DBStats
}

var attrDBState = attribute.Key("db.pool.state")

// RegisterPoolMetrics publishes connection pool statistics as observable gauges.
// Values are read from source at each collection; the returned registration
// stops the callback when unregistered.
func RegisterPoolMetrics(meter metric.Meter, source PoolStatsSource) (metric.Registration, error) {
	if meter == nil {
		return nil, &MetricsError{Op: "RegisterPoolMetrics", Err: ErrMeterNil}
	}

	connections, err := meter.Int64ObservableGauge(
		"db_pool_connections",
		metric.WithDescription("Database connections by state"),
		metric.WithUnit("{connections}"),
	)
	if err != nil {
		return nil, err
	}
	maxConnections, err := meter.Int64ObservableGauge(
		"db_pool_connections_max",
		metric.WithDescription("Maximum open database connections"),
		metric.WithUnit("{connections}"),
	)
	if err != nil {
		return nil, err
	}
	waitCount, err := meter.Int64ObservableCounter(
		"db_pool_wait_total",
		metric.WithDescription("Total connections waited for"),
		metric.WithUnit("{waits}"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := source.Stats()
		o.ObserveInt64(maxConnections, int64(stats.MaxOpenConnections))
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(attrDBState.String("idle")))
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(attrDBState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.OpenConnections), metric.WithAttributes(attrDBState.String("open")))
		o.ObserveInt64(waitCount, stats.WaitCount)
		return nil
	}, connections, maxConnections, waitCount)
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// serverInstruments are the back-office HTTP metrics.
type serverInstruments struct {
	requests *telemetry.Counter
	latency  *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func newServerInstruments(meter metric.Meter) (*serverInstruments, error) {
	var (
		in  serverInstruments
		err error
	)
	if in.requests, err = telemetry.NewCounter(meter,
		"http_server_request_total", "HTTP requests served", "{request}"); err != nil {
		return nil, err
	}
	if in.latency, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if in.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests in flight"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	return &in, nil
}

// observe records one finished request. Counts carry the status and, when the
// shop middleware resolved one, the shop; latency only method and route.
func (in *serverInstruments) observe(c *gin.Context, elapsed time.Duration) {
	ctx := c.Request.Context()
	route := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(routePattern(c)),
	}
	counted := append(route[:len(route):len(route)], telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
	if shopID, ok := GetShopID(c); ok {
		counted = append(counted, telemetry.AttrShopID.String(shopID.String()))
	}
	in.requests.Inc(ctx, counted...)
	in.latency.RecordDuration(ctx, elapsed, route...)
}

// HTTPMetrics counts and times requests. Without a meter, or when an
// instrument cannot be created, it does nothing.
func HTTPMetrics(meter metric.Meter) gin.HandlerFunc {
	if meter == nil {
		return passThrough
	}
	in, err := newServerInstruments(meter)
	if err != nil {
		return passThrough
	}
	return func(c *gin.Context) {
		began := time.Now()
		in.inFlight.Add(c.Request.Context(), 1)
		defer in.inFlight.Add(c.Request.Context(), -1)

		c.Next()
		in.observe(c, time.Since(began))
	}
}

// routePattern is the matched route template ("/api/v1/trade/orders/:id"), so
// ids never become label values.
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

func passThrough(c *gin.Context) { c.Next() }

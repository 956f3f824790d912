package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]any {
	return entry.ContextMap()
}

func TestContextValues(t *testing.T) {
	base := zap.NewNop()
	ctx := context.Background()

	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetShopID(ctx))
	assert.Empty(t, GetUserID(ctx))
	assert.NotNil(t, FromContext(ctx))

	ctx, _ = WithRequestID(ctx, base, "req-1")
	ctx, _ = WithShopID(ctx, FromContext(ctx), "shop-1")
	ctx, _ = WithUserID(ctx, FromContext(ctx), "user-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "shop-1", GetShopID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
}

func TestWithShopID_EnrichesLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	ctx, enriched := WithShopID(context.Background(), zap.New(core), "shop-9")
	enriched.Info("stock reduced")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "shop-9", fieldMap(logs.All()[0])["shop_id"])
	assert.Same(t, enriched, FromContext(ctx))
}

func TestContextLogger_AddsContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := context.WithValue(context.Background(), shopIDKey, "shop-2")
	ctx = context.WithValue(ctx, userIDKey, "user-2")
	ctx = context.WithValue(ctx, requestIDKey, "req-2")

	WithLogger(ctx, zap.New(core)).With(zap.String("party", "customer")).Info("payment applied")

	require.Equal(t, 1, logs.Len())
	fields := fieldMap(logs.All()[0])
	assert.Equal(t, "shop-2", fields["shop_id"])
	assert.Equal(t, "user-2", fields["user_id"])
	assert.Equal(t, "req-2", fields["request_id"])
	assert.Equal(t, "customer", fields["party"])
	assert.NotContains(t, fields, "trace_id")
}

func TestContextLogger_AddsTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	core, logs := observer.New(zapcore.InfoLevel)
	L(WithContext(ctx, zap.New(core))).Warn("slow report")

	require.Equal(t, 1, logs.Len())
	fields := fieldMap(logs.All()[0])
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := WithLogger(context.Background(), nil)
	assert.NotPanics(t, func() {
		cl.Info("ignored")
		cl.With(zap.String("k", "v")).Error("ignored")
	})
	assert.NotNil(t, cl.Zap())
}

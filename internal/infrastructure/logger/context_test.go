package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	t.Run("returns the stored logger", func(t *testing.T) {
		l := zap.NewExample()
		assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
	})

	t.Run("falls back to a no-op logger", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestL(t *testing.T) {
	t.Run("adds request id", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		ctx := WithRequestID(WithContext(context.Background(), zap.New(core)), "req-abc")

		L(ctx).Info("Report generated")

		entries := recorded.All()
		assert.Len(t, entries, 1)
		assert.Equal(t, "req-abc", entries[0].ContextMap()["request_id"])
		_, hasTrace := entries[0].ContextMap()["trace_id"]
		assert.False(t, hasTrace)
	})

	t.Run("adds trace and span ids from a valid span context", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
		spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		})
		ctx := trace.ContextWithSpanContext(WithContext(context.Background(), zap.New(core)), spanCtx)

		L(ctx).Warn("Slow ledger scan")

		fields := recorded.All()[0].ContextMap()
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
		assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	})
}

func TestLOr(t *testing.T) {
	t.Run("uses the fallback without a context logger", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		ctx := WithRequestID(context.Background(), "req-7")

		LOr(ctx, zap.New(core)).Info("Report request rejected")

		entries := recorded.All()
		assert.Len(t, entries, 1)
		assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
	})

	t.Run("prefers the context logger", func(t *testing.T) {
		ctxCore, ctxRecorded := observer.New(zapcore.InfoLevel)
		fallbackCore, fallbackRecorded := observer.New(zapcore.InfoLevel)
		ctx := WithContext(context.Background(), zap.New(ctxCore))

		LOr(ctx, zap.New(fallbackCore)).Info("Financial report generated")

		assert.Equal(t, 1, ctxRecorded.Len())
		assert.Equal(t, 0, fallbackRecorded.Len())
	})
}

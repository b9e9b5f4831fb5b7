package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/koperasi/backend/internal/infrastructure/telemetry"
)

// report bodies range from a few hundred bytes to a full chart of accounts
var responseSizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000}

type requestInstruments struct {
	total    *telemetry.Counter
	duration *telemetry.Histogram
	size     *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func newRequestInstruments(meter metric.Meter) (*requestInstruments, error) {
	var (
		ri  requestInstruments
		err error
	)
	if ri.total, err = telemetry.NewCounter(meter,
		"http_server_request_total", "HTTP requests by method, route and status", "{request}"); err != nil {
		return nil, err
	}
	if ri.duration, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if ri.size, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size",
		Unit:        "By",
		Boundaries:  responseSizeBuckets,
	}); err != nil {
		return nil, err
	}
	if ri.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests currently being served"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	return &ri, nil
}

// HTTPMetrics counts requests and records latency and body size per matched route.
// A nil meter, or one that cannot create the instruments, yields a pass-through handler.
func HTTPMetrics(meter metric.Meter) gin.HandlerFunc {
	if meter == nil {
		return passThrough
	}
	ri, err := newRequestInstruments(meter)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		ri.inFlight.Add(ctx, 1)
		c.Next()
		ri.inFlight.Add(ctx, -1)

		attrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(routeLabel(c)),
		}
		ri.total.Inc(ctx, append(attrs, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))...)
		ri.duration.RecordDuration(ctx, time.Since(start), attrs...)
		if n := c.Writer.Size(); n > 0 {
			ri.size.Observe(ctx, float64(n), attrs...)
		}
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}

// routeLabel keeps label cardinality bounded by using the route pattern, never the raw path
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

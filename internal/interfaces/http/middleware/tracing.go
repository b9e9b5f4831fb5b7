// Package middleware holds the gin middleware of the report service.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/koperasi/backend/internal/infrastructure/logger"
)

const maxReportTypeAttr = 64

// Tracing starts a server span per request through otelgin, skipping CORS preflights
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			return r.Method != http.MethodOptions
		}),
	)
}

// AnnotateSpan adds the request id and requested report type to the request span,
// then marks it failed once the response status is 4xx or 5xx.
// It must run after Tracing and RequestID.
func AnnotateSpan() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if id := c.GetString(logger.RequestIDKey); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if rt := c.Query("type"); rt != "" && len(rt) <= maxReportTypeAttr {
			span.SetAttributes(attribute.String("report.type", rt))
		}

		c.Next()

		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError:
			span.SetStatus(codes.Error, "Internal Server Error")
		case status >= http.StatusBadRequest:
			span.SetStatus(codes.Error, "Client Error")
		default:
			return
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}

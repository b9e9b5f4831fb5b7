package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/koperasi/backend/internal/infrastructure/telemetry"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	byName := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

func TestHTTPMetrics_PassThrough(t *testing.T) {
	for name, handler := range map[string]gin.HandlerFunc{
		"nil meter":  HTTPMetrics(nil),
		"noop meter": HTTPMetrics(noop.NewMeterProvider().Meter("test")),
	} {
		t.Run(name, func(t *testing.T) {
			router := gin.New()
			router.Use(handler)
			router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestHTTPMetrics_RecordsRoutePattern(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	router := gin.New()
	router.Use(HTTPMetrics(provider.Meter("test")))
	router.GET("/api/v1/financial-reports", func(c *gin.Context) {
		if c.Query("type") == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameter: type"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	for _, target := range []string{
		"/api/v1/financial-reports?type=trial_balance",
		"/api/v1/financial-reports?type=cash_flow",
		"/api/v1/financial-reports",
		"/nowhere",
	} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	metrics := collectMetrics(t, reader)

	sum, ok := metrics["http_server_request_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byRouteStatus := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
		status, _ := dp.Attributes.Value(telemetry.AttrHTTPStatusCode)
		byRouteStatus[route.AsString()+" "+status.Emit()] += dp.Value
	}
	assert.Equal(t, map[string]int64{
		"/api/v1/financial-reports 200": 2,
		"/api/v1/financial-reports 400": 1,
		"unknown 404":                   1,
	}, byRouteStatus)

	assert.Contains(t, metrics, "http_server_request_duration_seconds")
	assert.Contains(t, metrics, "http_server_response_size_bytes")

	active, ok := metrics["http_server_active_requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(0), active.DataPoints[0].Value)
}

package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/koperasi/backend/internal/infrastructure/logger"
	"github.com/koperasi/backend/internal/testutil"
)

func TestRequestID(t *testing.T) {
	var seen string
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/test", func(c *gin.Context) {
		seen = c.GetString(logger.RequestIDKey)
		c.Status(http.StatusOK)
	})

	t.Run("generates an id", func(t *testing.T) {
		w := testutil.Serve(engine, http.MethodGet, "/test")
		assert.Len(t, seen, 32)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("reuses the client id", func(t *testing.T) {
		w := testutil.ServeWithHeaders(engine, http.MethodGet, "/test", map[string]string{"X-Request-ID": "dashboard-42"})
		assert.Equal(t, "dashboard-42", seen)
		assert.Equal(t, "dashboard-42", w.Header().Get("X-Request-ID"))
	})

	t.Run("truncates oversized ids", func(t *testing.T) {
		testutil.ServeWithHeaders(engine, http.MethodGet, "/test", map[string]string{"X-Request-ID": strings.Repeat("a", 500)})
		assert.Len(t, seen, MaxRequestIDLength)
	})
}

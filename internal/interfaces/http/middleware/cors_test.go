package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/koperasi/backend/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCORS(t *testing.T) {
	handlerCalled := false
	engine := gin.New()
	engine.Use(CORS())
	engine.GET("/financial-reports", func(c *gin.Context) {
		handlerCalled = true
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameter: type"})
	})
	dashboard := map[string]string{"Origin": "https://dashboard.example.org"}

	t.Run("error responses carry the allow-origin header", func(t *testing.T) {
		w := testutil.ServeWithHeaders(engine, http.MethodGet, "/financial-reports", dashboard)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "apikey")
		assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("requests without an origin still get the header", func(t *testing.T) {
		w := testutil.Serve(engine, http.MethodGet, "/financial-reports")
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight is answered with 204", func(t *testing.T) {
		handlerCalled = false
		w := testutil.ServeWithHeaders(engine, http.MethodOptions, "/financial-reports", map[string]string{
			"Origin":                        "https://dashboard.example.org",
			"Access-Control-Request-Method": "GET",
		})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		assert.False(t, handlerCalled)
		assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("OPTIONS on an unrouted path is still 204", func(t *testing.T) {
		w := testutil.Serve(engine, http.MethodOptions, "/anything")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestCORSWithConfig_AllowList(t *testing.T) {
	engine := gin.New()
	engine.Use(CORSWithConfig(CORSConfig{
		AllowOrigins: []string{"http://localhost:3000"},
		AllowMethods: []string{http.MethodGet},
		AllowHeaders: []string{"content-type"},
	}))
	engine.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	tests := []struct {
		origin     string
		wantOrigin string
		wantVary   string
	}{
		{origin: "http://localhost:3000", wantOrigin: "http://localhost:3000", wantVary: "Origin"},
		{origin: "http://evil.example"},
		{origin: ""},
	}
	for _, tt := range tests {
		t.Run("origin "+tt.origin, func(t *testing.T) {
			w := testutil.ServeWithHeaders(engine, http.MethodGet, "/test", map[string]string{"Origin": tt.origin})

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantVary, w.Header().Get("Vary"))
			if tt.wantOrigin == "" {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}

func TestSecure(t *testing.T) {
	engine := gin.New()
	engine.Use(Secure())
	engine.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

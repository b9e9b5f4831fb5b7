package logger

import (
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMiddleware(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	var seenRequestID string
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(RequestIDKey, "req-42")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core), SkipPaths("/health")))
	router.GET("/financial-reports", func(c *gin.Context) {
		seenRequestID = GetRequestID(c.Request.Context())
		L(c.Request.Context()).Info("handler log")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameter: type"})
	})
	router.GET("/health", func(c *gin.Context) {
		L(c.Request.Context()).Info("health check")
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/financial-reports?x=1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "req-42", seenRequestID)

	access := recorded.FilterMessage(accessMessage).All()
	require.Len(t, access, 1, "health check requests are not logged")
	assert.Equal(t, zapcore.WarnLevel, access[0].Level)
	fields := access[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "/financial-reports", fields["route"])
	assert.Equal(t, int64(http.StatusBadRequest), fields["status"])
	assert.Equal(t, "x=1", fields["query"])

	handlerLogs := recorded.FilterMessage("handler log").All()
	require.Len(t, handlerLogs, 1)
	assert.Equal(t, "req-42", handlerLogs[0].ContextMap()["request_id"])
	assert.Equal(t, 1, recorded.FilterMessage("health check").Len())
}

func TestGinMiddleware_LevelFiltered(t *testing.T) {
	core, recorded := observer.New(zapcore.WarnLevel)

	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, zapcore.ErrorLevel, recorded.All()[0].Level)
}

func TestAccessLevel(t *testing.T) {
	for status, want := range map[int]zapcore.Level{
		http.StatusOK:                  zapcore.InfoLevel,
		http.StatusNoContent:           zapcore.InfoLevel,
		http.StatusNotFound:            zapcore.WarnLevel,
		http.StatusTooManyRequests:     zapcore.WarnLevel,
		http.StatusInternalServerError: zapcore.ErrorLevel,
	} {
		assert.Equal(t, want, accessLevel(status), "status %d", status)
	}
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.WarnLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	router.GET("/gone", func(c *gin.Context) {
		panic(&net.OpError{Op: "write", Net: "tcp", Err: os.NewSyscallError("write", syscall.EPIPE)})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error","details":"unexpected panic while handling the request"}`, w.Body.String())
	assert.Equal(t, 1, recorded.FilterMessage("Panic recovered").Len())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gone", nil))
	assert.Empty(t, w.Body.String())
	assert.Equal(t, 1, recorded.FilterMessage("Client connection closed").Len())
}

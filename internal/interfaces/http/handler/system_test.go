package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koperasi/backend/internal/infrastructure/persistence"
	"github.com/koperasi/backend/internal/interfaces/http/dto"
	"github.com/koperasi/backend/internal/testutil"
)

type fakeDatabase struct {
	pingErr error
}

func (f *fakeDatabase) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeDatabase) Stats() (persistence.ConnectionStats, error) {
	return persistence.ConnectionStats{OpenConnections: 3, InUse: 1, Idle: 2}, nil
}

func systemEngine(db DatabaseChecker) *gin.Engine {
	h := NewSystemHandler(db, "koperasi-reports", "1.2.3")
	engine := gin.New()
	engine.GET("/health", h.Health)
	engine.GET("/system/info", h.GetSystemInfo)
	return engine
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		w := testutil.Serve(systemEngine(&fakeDatabase{}), http.MethodGet, "/health")
		require.Equal(t, http.StatusOK, w.Code)

		resp := testutil.JSONBodyAs[dto.HealthResponse](t, w)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "connected", resp.Database)
		require.NotNil(t, resp.Pool)
		assert.Equal(t, 3, resp.Pool.OpenConnections)
	})

	t.Run("unreachable", func(t *testing.T) {
		w := testutil.Serve(systemEngine(&fakeDatabase{pingErr: errors.New("dial tcp: refused")}), http.MethodGet, "/health")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		resp := testutil.JSONBodyAs[dto.HealthResponse](t, w)
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "unreachable", resp.Database)
		assert.Nil(t, resp.Pool)
	})

	t.Run("no database", func(t *testing.T) {
		w := testutil.Serve(systemEngine(nil), http.MethodGet, "/health")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "not_configured", testutil.JSONBodyAs[dto.HealthResponse](t, w).Database)
	})
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	w := testutil.Serve(systemEngine(nil), http.MethodGet, "/system/info")
	require.Equal(t, http.StatusOK, w.Code)

	resp := testutil.JSONBodyAs[SystemInfoResponse](t, w)
	assert.Equal(t, "koperasi-reports", resp.Name)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.NotEmpty(t, resp.GoVersion)
}

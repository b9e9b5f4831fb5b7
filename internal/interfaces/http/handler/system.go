package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/koperasi/backend/internal/infrastructure/persistence"
	"github.com/koperasi/backend/internal/interfaces/http/dto"
)

// DatabaseChecker is the subset of the database used by the health check
type DatabaseChecker interface {
	Ping(ctx context.Context) error
	Stats() (persistence.ConnectionStats, error)
}

// SystemHandler handles health and info endpoints
type SystemHandler struct {
	BaseHandler
	db        DatabaseChecker
	name      string
	version   string
	startTime time.Time
	timeout   time.Duration
}

// NewSystemHandler creates a new SystemHandler. db may be nil.
func NewSystemHandler(db DatabaseChecker, name, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		name:      name,
		version:   version,
		startTime: time.Now(),
		timeout:   2 * time.Second,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Health reports service and database status.
// An unreachable database yields 503.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:    "healthy",
		Database:  "not_configured",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if h.db == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "unreachable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	resp.Database = "connected"
	if stats, err := h.db.Stats(); err == nil {
		resp.Pool = &dto.PoolInfo{
			OpenConnections: stats.OpenConnections,
			InUse:           stats.InUse,
			Idle:            stats.Idle,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetSystemInfo returns name, version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

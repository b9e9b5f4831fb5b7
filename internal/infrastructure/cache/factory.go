package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/koperasi/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ReportCacheFactory creates report caches based on configuration
type ReportCacheFactory struct {
	reportConfig          config.ReportConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ReportCacheFactoryOption is a functional option for configuring the factory
type ReportCacheFactoryOption func(*ReportCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ReportCacheFactoryOption {
	return func(f *ReportCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to memory.
// Default is true.
func WithInMemoryFallback(allow bool) ReportCacheFactoryOption {
	return func(f *ReportCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewReportCacheFactory creates a new factory
func NewReportCacheFactory(reportCfg config.ReportConfig, redisCfg config.RedisConfig, opts ...ReportCacheFactoryOption) *ReportCacheFactory {
	f := &ReportCacheFactory{
		reportConfig:          reportCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the configured cache, or nil when report caching is disabled
func (f *ReportCacheFactory) Create(ctx context.Context) (ReportCache, error) {
	if !f.reportConfig.CacheEnabled {
		f.logger.Info("Report cache disabled, every request recomputes")
		return nil, nil
	}

	if f.reportConfig.CacheBackend != config.CacheBackendRedis {
		f.logger.Info("Using in-memory report cache", zap.Duration("ttl", f.reportConfig.CacheTTL))
		return NewMemoryReportCache(f.reportConfig.CacheTTL), nil
	}

	store, err := NewRedisReportCache(ctx, RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("Using Redis report cache",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Duration("ttl", f.reportConfig.CacheTTL),
		)
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis report cache unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory report cache",
		zap.Error(err),
	)
	return NewMemoryReportCache(f.reportConfig.CacheTTL), nil
}

// TTL returns the configured entry lifetime
func (f *ReportCacheFactory) TTL() time.Duration {
	return f.reportConfig.CacheTTL
}

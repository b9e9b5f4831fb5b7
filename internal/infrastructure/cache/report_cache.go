// Package cache provides report caches backed by Redis or process memory.
package cache

import (
	"context"
	"time"
)

// DefaultKeyPrefix namespaces report keys in a shared Redis
const DefaultKeyPrefix = "koperasi:report:"

// ReportCache stores serialized reports by key.
// A miss is reported as (nil, false, nil); errors are reserved for backend failures.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

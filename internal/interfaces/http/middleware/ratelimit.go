package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/koperasi/backend/internal/interfaces/http/dto"
)

// RateLimiter gives each client a token bucket of limit requests that refills
// over window. Buckets live in a go-cache and are dropped once a client has
// been idle for a full window, by which time they would be full again anyway.
type RateLimiter struct {
	mu      sync.Mutex
	buckets *gocache.Cache
	limit   int
	every   rate.Limit
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter creates a limiter of limit requests per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: gocache.New(window, 2*window),
		limit:   limit,
		every:   rate.Every(window / time.Duration(limit)),
		window:  window,
		now:     time.Now,
	}
}

// Allow consumes one request for key and reports whether it is within the limit
func (rl *RateLimiter) Allow(key string) bool {
	ok, _, _ := rl.take(key)
	return ok
}

// Remaining returns how many whole requests key can make right now
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, found := rl.buckets.Get(key)
	if !found {
		return rl.limit
	}
	return tokens(v.(*rate.Limiter), rl.now())
}

// take reserves a token for key. A rejected reservation is cancelled so it
// does not push later requests further out.
func (rl *RateLimiter) take(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket := rl.bucket(key)
	r := bucket.ReserveN(now, 1)
	if !r.OK() {
		return false, 0, rl.window
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}
	return true, tokens(bucket, now), 0
}

// bucket returns the limiter for key, creating a full one on first use.
// Caller holds mu.
func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	if v, found := rl.buckets.Get(key); found {
		bucket := v.(*rate.Limiter)
		rl.buckets.Set(key, bucket, rl.window)
		return bucket
	}
	bucket := rate.NewLimiter(rl.every, rl.limit)
	rl.buckets.Set(key, bucket, rl.window)
	return bucket
}

func tokens(bucket *rate.Limiter, at time.Time) int {
	return max(int(math.Floor(bucket.TokensAt(at))), 0)
}

// RateLimit limits requests per client IP. Rejected requests get 429 with
// the standard error body and a Retry-After header.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByKey limits requests per key extracted from the request
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		allowed, remaining, retryAfter := limiter.take(keyFunc(c))
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse("Too many requests"))
			return
		}

		c.Next()
	}
}

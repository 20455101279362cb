package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clipai/backend/pkg/response"
)

// Limiter counts hits for a key within a fixed window.
type Limiter interface {
	// Allow records one hit for key and reports whether it is within limit for the current window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RedisLimiter is a fixed-window counter: INCR on a per-window key that expires with the window.
type RedisLimiter struct {
	client *redis.Client
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	bucket := time.Now().UnixNano() / int64(window)
	k := "ratelimit:" + key + ":" + strconv.FormatInt(bucket, 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	return incr.Val() <= int64(limit), nil
}

// RateLimit rejects requests with 429 once a client IP exceeds perMinute hits on the named route.
// A limiter failure lets the request through.
func RateLimit(limiter Limiter, name string, perMinute int, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || perMinute <= 0 {
			c.Next()
			return
		}
		ok, err := limiter.Allow(c.Request.Context(), name+":"+c.ClientIP(), perMinute, time.Minute)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("route", name), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.Header("Retry-After", "60")
			response.TooManyRequests(c, "too many requests, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}

// MemoryLimiter is a per-process fixed-window counter. Counters from past windows are
// dropped whenever a new window starts, so memory is bounded by one window's distinct keys.
type MemoryLimiter struct {
	mu     sync.Mutex
	now    func() time.Time
	window int64
	counts map[string]int
}

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{now: time.Now, counts: make(map[string]int)}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	bucket := l.now().UnixNano() / int64(window)
	if bucket != l.window {
		l.window = bucket
		clear(l.counts)
	}
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

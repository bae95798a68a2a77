package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"excel_analytics/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter decides whether the caller identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisRateLimiter is a fixed-window counter shared by all instances.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisRateLimiter allows requestsPerMinute+burst requests per key each minute.
func NewRedisRateLimiter(client *redis.Client, requestsPerMinute, burst int) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: requestsPerMinute + burst, window: time.Minute}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = "ratelimit:" + key
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true, fmt.Errorf("rate limit counter: %w", err)
	}
	if n == 1 {
		// the first hit opens the window
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return true, fmt.Errorf("rate limit window: %w", err)
		}
	}
	return n <= int64(l.limit), nil
}

// TokenBucketLimiter is an in-memory limiter for single-instance deployments.
// Buckets that have refilled completely are dropped on a periodic sweep.
type TokenBucketLimiter struct {
	capacity  int
	rate      int
	mu        sync.Mutex
	state     map[string]*bucket
	now       func() time.Time
	lastSweep time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucketLimiter creates a limiter with capacity tokens refilled at perMinute.
func NewTokenBucketLimiter(capacity, perMinute int) *TokenBucketLimiter {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucketLimiter{
		capacity:  capacity,
		rate:      perMinute,
		state:     make(map[string]*bucket),
		now:       time.Now,
	}
}

// refillTime is how long an empty bucket takes to fill up again.
func (l *TokenBucketLimiter) refillTime() time.Duration {
	if l.rate <= 0 {
		return time.Hour
	}
	d := time.Duration(float64(l.capacity) / float64(l.rate) * float64(time.Minute))
	if d < time.Minute {
		d = time.Minute
	}
	return d
}

// sweep must be called with mu held.
func (l *TokenBucketLimiter) sweep(now time.Time) {
	if l.lastSweep.IsZero() {
		l.lastSweep = now
		return
	}
	idle := l.refillTime()
	if now.Sub(l.lastSweep) < idle {
		return
	}
	l.lastSweep = now
	for key, b := range l.state {
		if now.Sub(b.last) >= idle {
			delete(l.state, key)
		}
	}
}

// Len reports how many keys are currently tracked.
func (l *TokenBucketLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.state)
}

func (l *TokenBucketLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true, nil
	}
	refill := int(now.Sub(b.last).Minutes() * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// RateLimit rejects callers over their per-IP budget for a route. Limiter
// errors let the request through.
func RateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err)
		}
		if !allowed {
			metrics.RateLimitedTotal.Inc()
			c.Header("Retry-After", strconv.Itoa(60))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"msg": "Too many requests, please try again later."})
			return
		}
		c.Next()
	}
}

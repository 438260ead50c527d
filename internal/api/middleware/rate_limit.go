package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	logger "github.com/omniful/go_commons/log"

	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

type window struct {
	count int
	ends  time.Time
}

// RateLimiter counts requests per (rule, client IP) in fixed windows.
// Counters live in Redis; when Redis is nil or failing the limiter falls
// back to process memory.
type RateLimiter struct {
	redis *redis.Client
	now   func() time.Time

	mu       sync.Mutex
	counters map[string]window
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient, now: time.Now, counters: map[string]window{}}
}

// Limit allows limit requests per period for the named rule.
func (rl *RateLimiter) Limit(name string, limit int, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 1
	}
	if period <= 0 {
		period = time.Minute
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		key := fmt.Sprintf(constants.CacheKeyRateLimit, name, ip)

		if rl.hit(c.Request.Context(), key, period) > limit {
			c.Header("Retry-After", fmt.Sprintf("%d", int(period.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": constants.ErrRateLimited})
			return
		}
		c.Next()
	}
}

// hit increments the counter of key and returns its value in the
// current window.
func (rl *RateLimiter) hit(ctx context.Context, key string, period time.Duration) int {
	if rl.redis != nil {
		n, err := rl.redisHit(ctx, key, period)
		if err == nil {
			return n
		}
		logger.Error(fmt.Sprintf("Rate limit counter unavailable, using memory: %v", err))
	}
	return rl.memoryHit(key, period)
}

func (rl *RateLimiter) redisHit(ctx context.Context, key string, period time.Duration) (int, error) {
	n, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := rl.redis.Expire(ctx, key, period).Err(); err != nil {
			return 0, err
		}
	}
	return int(n), nil
}

func (rl *RateLimiter) memoryHit(key string, period time.Duration) int {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.counters[key]
	if !w.ends.After(now) {
		w = window{ends: now.Add(period)}
		rl.sweep(now)
	}
	w.count++
	rl.counters[key] = w
	return w.count
}

// sweep drops expired windows. Called with mu held.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, w := range rl.counters {
		if !w.ends.After(now) {
			delete(rl.counters, k)
		}
	}
}

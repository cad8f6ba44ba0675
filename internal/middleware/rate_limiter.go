package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Baaaki/yamdb/internal/dto"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterConfig defines rate limiting rules
type RateLimiterConfig struct {
	MaxRequests int           // Maximum requests allowed in the window
	Window      time.Duration // Time window (e.g., 1 minute)
	BlockTime   time.Duration // Retry-After hint for the in-process limiter
}

// Limiter decides whether a client key may proceed.
type Limiter interface {
	CheckLimit(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RateLimit returns a gin middleware limiting requests per client IP.
// Limiter errors fail open.
func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		allowed, retryAfter, err := l.CheckLimit(c.Request.Context(), clientIP)
		if err != nil {
			logger.Log.Warn("Rate limiter unavailable, allowing request",
				zap.String("ip", clientIP),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !allowed {
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error:   "too_many_requests",
				Message: "Too many requests. Please try again later.",
			})
			return
		}

		c.Next()
	}
}

// RateLimiter provides IP-based fixed-window limiting shared through Redis
type RateLimiter struct {
	redis  *redis.Client
	config RateLimiterConfig
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
	}
}

// Middleware returns a Gin middleware function for rate limiting
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return RateLimit(rl)
}

// CheckLimit counts requests per window with INCR + EXPIRE
func (rl *RateLimiter) CheckLimit(ctx context.Context, ip string) (bool, time.Duration, error) {
	key := fmt.Sprintf("ratelimit:%s", ip)

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}

	// Set expiry on first request (count = 1)
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.config.Window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count > int64(rl.config.MaxRequests) {
		ttl, err := rl.redis.TTL(ctx, key).Result()
		if err != nil || ttl <= 0 {
			ttl = rl.config.Window
		}
		return false, ttl, nil
	}

	return true, 0, nil
}

// LocalRateLimiter is a per-process token bucket per IP, used when Redis is not configured.
// Buckets idle for a full window are refilled anyway, so they are swept.
type LocalRateLimiter struct {
	config    RateLimiterConfig
	mu        sync.Mutex
	limiters  map[string]*localBucket
	lastSweep time.Time
	now       func() time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalRateLimiter(config RateLimiterConfig) *LocalRateLimiter {
	return &LocalRateLimiter{
		config:   config,
		limiters: make(map[string]*localBucket),
		now:      time.Now,
	}
}

func (l *LocalRateLimiter) Middleware() gin.HandlerFunc {
	return RateLimit(l)
}

func (l *LocalRateLimiter) CheckLimit(_ context.Context, ip string) (bool, time.Duration, error) {
	l.mu.Lock()
	now := l.now()
	l.sweep(now)
	bucket, ok := l.limiters[ip]
	if !ok {
		burst := l.config.MaxRequests
		if burst < 1 {
			burst = 1
		}
		bucket = &localBucket{
			limiter: rate.NewLimiter(rate.Every(l.config.Window/time.Duration(burst)), burst),
		}
		l.limiters[ip] = bucket
	}
	bucket.lastSeen = now
	limiter := bucket.limiter
	l.mu.Unlock()

	if limiter.Allow() {
		return true, 0, nil
	}
	return false, l.config.BlockTime, nil
}

// sweep drops buckets not seen for a window, at most once per window. Caller holds mu.
func (l *LocalRateLimiter) sweep(now time.Time) {
	idle := l.config.Window
	if idle <= 0 || now.Sub(l.lastSweep) < idle {
		return
	}
	for ip, bucket := range l.limiters {
		if now.Sub(bucket.lastSeen) >= idle {
			delete(l.limiters, ip)
		}
	}
	l.lastSweep = now
}

// size reports how many client buckets are held.
func (l *LocalRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

package middleware

import (
	"context"
	"fmt"
	"time"

	"structcheck/internal/common/cache"
	appErr "structcheck/pkg/errors"
	"structcheck/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

const rateKeyPrefix = "structcheck:rate:"

// RateLimiter enforces fixed-window request limits in Redis.
type RateLimiter struct {
	cache   cache.Cache
	timeout time.Duration
}

func NewRateLimiter(cacheClient cache.Cache, timeout time.Duration) *RateLimiter {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &RateLimiter{cache: cacheClient, timeout: timeout}
}

// Allow counts one hit on key and fails with TooManyRequests once more than
// max hits land in the current window.
func (l *RateLimiter) Allow(ctx context.Context, key string, max int, window time.Duration) error {
	if max <= 0 || window <= 0 {
		return nil
	}
	if l.cache == nil {
		return appErr.New(appErr.ServiceUnavailable).WithMessage("rate limit cache is unavailable")
	}

	ctxCache, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	acquired, err := l.cache.SetNX(ctxCache, key, 1, window)
	if err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "rate limit check failed")
	}
	count := int64(1)
	if !acquired {
		count, err = l.cache.Incr(ctxCache, key)
		if err != nil {
			return appErr.Wrapf(err, appErr.CacheError, "rate limit check failed")
		}
		// A key that lost its expiry would block the client forever.
		if ttl, ttlErr := l.cache.TTL(ctxCache, key); ttlErr == nil && ttl < 0 {
			_ = l.cache.Expire(ctxCache, key, window)
		}
	}
	if count > int64(max) {
		return appErr.New(appErr.TooManyRequests).WithMessage(fmt.Sprintf("rate limit exceeded, retry within %s", window))
	}
	return nil
}

// RateLimitPolicy limits hits per client IP on one route group.
type RateLimitPolicy struct {
	Window time.Duration `yaml:"window"`
	IPMax  int           `yaml:"ipMax"`
}

// RateLimit rejects requests beyond policy. Cache failures let the request
// through.
func RateLimit(limiter *RateLimiter, routeKey string, policy RateLimitPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || policy.IPMax <= 0 {
			c.Next()
			return
		}
		key := fmt.Sprintf("%sip:%s:%s", rateKeyPrefix, c.ClientIP(), routeKey)
		err := limiter.Allow(c.Request.Context(), key, policy.IPMax, policy.Window)
		if err != nil && appErr.GetCode(err) == appErr.TooManyRequests {
			response.AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

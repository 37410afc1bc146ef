package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cyphera/cyphera-mpc-billing/internal/constants"
	"github.com/cyphera/cyphera-mpc-billing/internal/logger"
)

// RateLimiter limits requests per client with a token bucket per client.
type RateLimiter struct {
	limiters *xsync.MapOf[string, *limiterEntry]
	rate     int
	burst    int
	idleTTL  time.Duration
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64 // unix nanoseconds
}

// NewRateLimiter creates a rate limiter allowing requestsPerSecond with the
// given burst. Idle clients are forgotten while ctx is alive.
func NewRateLimiter(ctx context.Context, requestsPerSecond, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: xsync.NewMapOf[*limiterEntry](),
		rate:     requestsPerSecond,
		burst:    burst,
		idleTTL:  10 * time.Minute,
	}
	go rl.cleanup(ctx, 5*time.Minute)
	return rl
}

func (rl *RateLimiter) cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.limiters.Range(func(key string, entry *limiterEntry) bool {
				if now.Sub(time.Unix(0, entry.lastAccess.Load())) > rl.idleTTL {
					rl.limiters.Delete(key)
				}
				return true
			})
		}
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	entry, _ := rl.limiters.LoadOrCompute(key, func() *limiterEntry {
		return &limiterEntry{limiter: rate.NewLimiter(rate.Limit(rl.rate), rl.burst)}
	})
	entry.lastAccess.Store(time.Now().UnixNano())
	return entry.limiter
}

// getClientIdentifier prefers the API key, then the self-service account,
// then the client IP.
func getClientIdentifier(c *gin.Context) string {
	if apiKey := c.GetHeader(constants.HeaderAPIKey); apiKey != "" {
		if len(apiKey) >= 8 {
			return fmt.Sprintf("api:%s", apiKey[:8])
		}
		return fmt.Sprintf("api:%s", apiKey)
	}
	if accountID := c.GetHeader(constants.HeaderAccountID); accountID != "" {
		return fmt.Sprintf("account:%s", accountID)
	}
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = "unknown"
	}
	return fmt.Sprintf("ip:%s", clientIP)
}

// Middleware returns a Gin middleware handler for rate limiting
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/health", "/healthz", "/metrics":
			c.Next()
			return
		}

		clientID := getClientIdentifier(c)
		limiter := rl.getLimiter(clientID)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.rate))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Second).Unix()))

		if !limiter.Allow() {
			if logger.Log != nil {
				logger.Log.Warn("Rate limit exceeded",
					zap.String("client_id", clientID),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"retry_after": 1,
			})
			return
		}

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int(limiter.Tokens())))
		c.Next()
	}
}

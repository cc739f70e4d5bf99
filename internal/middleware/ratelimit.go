package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyedRateLimiter keeps one token bucket per key (client IP or user id).
type KeyedRateLimiter struct {
	keys  map[string]*rateLimiterEntry
	mu    sync.Mutex
	r     rate.Limit
	burst int
	idle  time.Duration
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedRateLimiter creates a limiter allowing r events per second with the given burst.
func NewKeyedRateLimiter(r rate.Limit, burst int) *KeyedRateLimiter {
	rl := &KeyedRateLimiter{
		keys:  make(map[string]*rateLimiterEntry),
		r:     r,
		burst: burst,
		idle:  3 * time.Minute,
	}
	go rl.cleanup()
	return rl
}

func (rl *KeyedRateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.evictIdle(time.Now())
	}
}

func (rl *KeyedRateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, entry := range rl.keys {
		if now.Sub(entry.lastSeen) > rl.idle {
			delete(rl.keys, key)
		}
	}
}

// GetLimiter returns the bucket for key, creating it on first use.
func (rl *KeyedRateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.keys[key]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.keys[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Size reports how many keys are tracked.
func (rl *KeyedRateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.keys)
}

var (
	// General API: 600 requests per minute (10/sec)
	GeneralLimiter = NewKeyedRateLimiter(rate.Limit(10.0), 50)

	// Chat messages: 30 per minute (prevents spam, allows normal conversation)
	ChatLimiter = NewKeyedRateLimiter(rate.Limit(30.0/60.0), 10)

	// Follows and comments: 60 per minute
	SocialLimiter = NewKeyedRateLimiter(rate.Limit(1.0), 10)
)

// RateLimitMiddleware limits by authenticated user when known, otherwise by client IP.
func RateLimitMiddleware(limiter *KeyedRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(UserIDKey)
		if key == "" {
			key = c.ClientIP()
		}

		if !limiter.GetLimiter(key).Allow() {
			logger.Warn().
				Str("key", key).
				Str("path", c.Request.URL.Path).
				Msg("Rate limit exceeded")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too many requests",
				"message": "Rate limit exceeded. Please slow down.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func GeneralRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(GeneralLimiter)
}

// ChatRateLimit is for chat message endpoints
func ChatRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(ChatLimiter)
}

func SocialRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(SocialLimiter)
}

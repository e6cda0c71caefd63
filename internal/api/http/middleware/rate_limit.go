package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// DefaultMaxLimiterKeys caps how many per-key buckets a RateLimiter keeps.
const DefaultMaxLimiterKeys = 10000

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per device, falling back to the client IP
// for requests that carry no device id. Buckets idle long enough to have refilled
// are dropped; when the map is full, unknown keys share a single overflow bucket.
type RateLimiter struct {
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	idle     time.Duration
	maxKeys  int
	now      func() time.Time
	limiters map[string]*bucket
	overflow *rate.Limiter
}

type RateLimiterOption func(*RateLimiter)

// WithLimiterClock sets the time source used for buckets and eviction.
func WithLimiterClock(now func() time.Time) RateLimiterOption {
	return func(l *RateLimiter) { l.now = now }
}

func WithMaxKeys(n int) RateLimiterOption {
	return func(l *RateLimiter) {
		if n > 0 {
			l.maxKeys = n
		}
	}
}

func NewRateLimiter(rps float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	l := &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     refillTime(rps, burst),
		maxKeys:  DefaultMaxLimiterKeys,
		now:      time.Now,
		limiters: make(map[string]*bucket),
		overflow: rate.NewLimiter(rate.Limit(rps), burst),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// refillTime is how long an untouched bucket takes to become full again, with a
// one minute floor. A full bucket behaves like a fresh one, so it can be dropped.
func refillTime(rps float64, burst int) time.Duration {
	if rps <= 0 {
		return 24 * time.Hour
	}
	d := time.Duration(float64(burst) / rps * float64(time.Second))
	if d < time.Minute {
		return time.Minute
	}
	return d
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()

	b, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= l.maxKeys {
			l.evictLocked(now)
		}
		if len(l.limiters) >= l.maxKeys {
			return l.overflow.AllowN(now, 1)
		}
		b = &bucket{lim: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

func (l *RateLimiter) evictLocked(now time.Time) {
	for k, b := range l.limiters {
		if now.Sub(b.lastSeen) >= l.idle {
			delete(l.limiters, k)
		}
	}
}

// Len returns the number of tracked buckets.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := GetDeviceID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !l.allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "too many requests"})
			return
		}
		c.Next()
	}
}

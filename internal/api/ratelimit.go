package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
)

// idleTTL is how long an unused bucket is kept. It exceeds the one minute a
// bucket needs to refill, so an evicted caller gets back exactly what they had.
const idleTTL = 5 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller. Authenticated callers are
// keyed by user ID, anonymous ones by client IP. Idle buckets are swept.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	limit     rate.Limit
	burst     int
	log       *zap.Logger
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per caller with a burst of the same
// size. A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int, log *zap.Logger) *RateLimiter {
	l := &RateLimiter{
		buckets: make(map[string]*bucket),
		burst:   perMinute,
		log:     log,
		now:     time.Now,
	}
	l.lastSweep = l.now()
	if perMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return l
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= idleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) >= idleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

func (l *RateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.burst <= 0 {
			c.Next()
			return
		}

		key := auth.GetUserID(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !l.get(key).Allow() {
			l.log.Warn("rate limit exceeded", zap.String("key", key), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
			return
		}
		c.Next()
	}
}

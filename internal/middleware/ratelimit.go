package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xxxsen/docqa/internal/pkg/errcode"
	"github.com/xxxsen/docqa/internal/pkg/response"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per ip|user|route. A bucket refills to
// burst within one window, so entries idle longer than that are dropped.
type rateLimiter struct {
	mu            sync.Mutex
	limit         rate.Limit
	burst         int
	window        time.Duration
	entries       map[string]*limiterEntry
	sweepInterval time.Duration
	lastSweep     time.Time
	now           func() time.Time
}

// RateLimit allows perWindow requests per window for each caller and route.
func RateLimit(perWindow int, window time.Duration) gin.HandlerFunc {
	return newRateLimiter(perWindow, window).handle
}

func newRateLimiter(perWindow int, window time.Duration) *rateLimiter {
	l := &rateLimiter{
		burst:         perWindow,
		window:        window,
		entries:       make(map[string]*limiterEntry),
		sweepInterval: window,
		now:           time.Now,
	}
	if perWindow > 0 && window > 0 {
		l.limit = rate.Every(window / time.Duration(perWindow))
	}
	return l
}

func (l *rateLimiter) handle(c *gin.Context) {
	if l.burst <= 0 || l.window <= 0 {
		c.Next()
		return
	}
	ip := c.ClientIP()
	user := c.GetString(ContextUsernameKey)
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	key := strings.Join([]string{ip, user, path}, "|")

	now := l.now()
	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.sweepInterval {
		l.cleanupExpiredLocked(now)
	}
	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now
	allowed := entry.limiter.AllowN(now, 1)
	l.mu.Unlock()

	if !allowed {
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("ip", ip),
			zap.String("username", user),
			zap.String("path", path),
		)
		c.Header("Retry-After", "60")
		response.Error(c, http.StatusTooManyRequests, errcode.ErrTooMany, http.StatusText(http.StatusTooManyRequests))
		c.Abort()
		return
	}
	c.Next()
}

func (l *rateLimiter) cleanupExpiredLocked(now time.Time) {
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) >= l.window {
			delete(l.entries, key)
		}
	}
	l.lastSweep = now
}

package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestContext(path, user string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", path, nil)
	if user != "" {
		c.Set(ContextUsernameKey, user)
	}
	return c
}

func TestRateLimiterHandle_BlocksAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	limiter := newRateLimiter(5, time.Minute)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		c := newTestContext("/api/v1/upload", "admin")
		limiter.handle(c)
		require.False(t, c.IsAborted(), "request %d", i)
	}
	c := newTestContext("/api/v1/upload", "admin")
	limiter.handle(c)
	require.True(t, c.IsAborted())

	// other routes and users have their own buckets
	c = newTestContext("/api/v1/ask", "admin")
	limiter.handle(c)
	require.False(t, c.IsAborted())
	c = newTestContext("/api/v1/upload", "other")
	limiter.handle(c)
	require.False(t, c.IsAborted())

	// one token refills after window/limit
	now = now.Add(12 * time.Second)
	c = newTestContext("/api/v1/upload", "admin")
	limiter.handle(c)
	require.False(t, c.IsAborted())
}

func TestRateLimiterHandle_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := newRateLimiter(0, time.Minute)
	for i := 0; i < 20; i++ {
		c := newTestContext("/api/v1/ask", "")
		limiter.handle(c)
		require.False(t, c.IsAborted())
	}
}

func TestRateLimiterCleanupExpiredLocked_RemovesExpiredEntries(t *testing.T) {
	base := time.Now()
	limiter := newRateLimiter(10, 10*time.Second)
	limiter.entries["expired"] = &limiterEntry{lastSeen: base.Add(-20 * time.Second)}
	limiter.entries["active"] = &limiterEntry{lastSeen: base.Add(-2 * time.Second)}

	limiter.mu.Lock()
	limiter.cleanupExpiredLocked(base)
	limiter.mu.Unlock()

	require.NotContains(t, limiter.entries, "expired")
	require.Contains(t, limiter.entries, "active")
	require.False(t, limiter.lastSweep.IsZero())
}

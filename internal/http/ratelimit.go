package http

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/errcodes"
)

// RateLimiter caps requests per client IP inside a fixed window.
type RateLimiter struct {
	mu              sync.Mutex
	windows         map[string]*window
	limit           int
	windowDuration  time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

type window struct {
	count   int
	started time.Time
}

type RateLimitConfig struct {
	Limit           int           // requests per window (default: 10)
	WindowDuration  time.Duration // default: 1m
	CleanupInterval time.Duration // default: 5m
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:           10,
		WindowDuration:  time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	defaults := DefaultRateLimitConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = defaults.Limit
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = defaults.WindowDuration
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}

	rl := &RateLimiter{
		windows:         make(map[string]*window),
		limit:           cfg.Limit,
		windowDuration:  cfg.WindowDuration,
		cleanupInterval: cfg.CleanupInterval,
		now:             time.Now,
		stopCleanup:     make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the background cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// Allow counts one request for key. When the limit is reached it returns
// false and the time left until the window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.started) >= rl.windowDuration {
		rl.windows[key] = &window{count: 1, started: now}
		return true, 0
	}
	if w.count >= rl.limit {
		return false, w.started.Add(rl.windowDuration).Sub(now)
	}
	w.count++
	return true, 0
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.windows {
		if now.Sub(w.started) >= rl.windowDuration {
			delete(rl.windows, key)
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := rl.Allow(c.ClientIP())
		if !allowed {
			seconds := int(retryAfter.Round(time.Second).Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			respondError(c, errcodes.TooManyRequests())
			c.Abort()
			return
		}
		c.Next()
	}
}

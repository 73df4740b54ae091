package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultRateLimit  = 60
	rateLimitWindow   = time.Minute
	rateLimitStaleAge = 10 * time.Minute
)

// rateLimiter is a fixed-window, in-memory limiter keyed by client IP. It
// only guards mutating requests; report reads are served from the cache.
type rateLimiter struct {
	mu           sync.Mutex
	limit        int
	clients      map[string]*clientWindow
	now          func() time.Time
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientWindow struct {
	started  time.Time
	lastSeen time.Time
	requests int
}

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		limit = defaultRateLimit
	}
	rl := &rateLimiter{
		limit:       limit,
		clients:     make(map[string]*clientWindow),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries forgets clients idle for rateLimitStaleAge and returns
// how many were removed.
func (rl *rateLimiter) cleanupStaleEntries() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rateLimitStaleAge)
	removed := 0
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// allow reports whether clientIP may issue another request in the current
// window. Rejections are counted in metrics when given.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[clientIP]
	if !ok || now.Sub(c.started) >= rateLimitWindow {
		rl.clients[clientIP] = &clientWindow{started: now, lastSeen: now, requests: 1}
		return true
	}

	c.lastSeen = now
	if c.requests >= rl.limit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	c.requests++
	return true
}

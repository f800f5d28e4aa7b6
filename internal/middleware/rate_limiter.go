package middleware

import (
	"net/http"
	"sync"
	"time"

	"swiftaza/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window limiter ──────────────────────────────────────────────────────

type windowEntry struct {
	count     int
	windowEnd time.Time
}

type windowLimiter struct {
	name    string
	limit   int
	window  time.Duration
	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
}

func newWindowLimiter(name string, limit int, window time.Duration) *windowLimiter {
	l := &windowLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
	register(l)
	return l
}

// allow counts one hit for key and reports whether it is within the limit,
// plus the end of the current window.
func (l *windowLimiter) allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.After(e.windowEnd) {
		e = &windowEntry{windowEnd: now.Add(l.window)}
		l.entries[key] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

func (l *windowLimiter) purge() (purged, remaining int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for k, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, k)
			purged++
		}
	}
	return purged, len(l.entries)
}

func (l *windowLimiter) handler(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", windowEnd.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits credential attempts (login, code verification)
// to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newWindowLimiter("login", 20, time.Minute).
		handler("Too many attempts. Try again in a minute.")
}

// RateLimiter is the general-purpose limiter for the API group.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newWindowLimiter("api", limit, window).
		handler("Too many requests. Try again shortly.")
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Expired entries are dropped periodically so IPs that never return do not
// accumulate.

const purgeInterval = 5 * time.Minute

var (
	limitersMu sync.Mutex
	limiters   []*windowLimiter
	purgeOnce  sync.Once
)

func register(l *windowLimiter) {
	limitersMu.Lock()
	limiters = append(limiters, l)
	limitersMu.Unlock()
	purgeOnce.Do(func() { go purgeLoop() })
}

func purgeLoop() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		limitersMu.Lock()
		current := append([]*windowLimiter(nil), limiters...)
		limitersMu.Unlock()

		for _, l := range current {
			purged, remaining := l.purge()
			if purged > 0 {
				log.Debug().
					Str("limiter", l.name).
					Int("entries_purged", purged).
					Int("entries_remaining", remaining).
					Msg("rate limiter entries purged")
			}
		}
	}
}

// ratelimit.go implements per-IP rate limiting for sensitive endpoints
// (signup, login, resend-verification, forgot-password). The limiting
// policy (max requests, window) lives here; the counter backend is a
// pluggable CounterStore so a single-process deployment can use an
// in-memory map while a multi-instance deployment swaps in Redis for a
// true shared limit.
package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ouisite/ouisite/internal/apperror"
)

// CounterStore counts hits per key within a fixed window. Increment returns
// the number of hits recorded for the key in the current window, including
// this one.
type CounterStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit returns middleware that limits requests per client IP to
// maxRequests within the given window. Returns 429 when exceeded.
//
// A store error fails open: an unreachable counter backend should degrade
// to "no limiting", not take the login endpoint down with it.
func RateLimit(store CounterStore, maxRequests int64, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Path() + ":" + c.RealIP()

			count, err := store.Increment(c.Request().Context(), key, window)
			if err != nil {
				slog.Warn("rate limit counter unavailable, allowing request",
					slog.String("key", key),
					slog.Any("error", err),
				)
				return next(c)
			}

			if count > maxRequests {
				return apperror.NewTooManyRequests()
			}
			return next(c)
		}
	}
}

// --- In-memory counter store ---

// memoryEntry tracks request counts for a single key within a time window.
type memoryEntry struct {
	count       int64
	windowStart time.Time
}

// MemoryStore is a process-local CounterStore backed by a mutex-guarded map.
// Suitable for single-instance deployments; counters are not shared across
// processes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryStore creates an in-memory counter store and starts a background
// sweep that evicts stale entries every minute.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
	}

	go func() {
		for {
			time.Sleep(time.Minute)
			s.mu.Lock()
			now := time.Now()
			for key, entry := range s.entries {
				// Anything idle for two windows' worth of the longest
				// plausible window is garbage. 10 minutes covers the
				// per-minute windows used on auth endpoints.
				if now.Sub(entry.windowStart) > 10*time.Minute {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}()

	return s
}

// Increment records a hit for key and returns the count in the current window.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[key]
	if !exists || now.Sub(entry.windowStart) > window {
		s.entries[key] = &memoryEntry{count: 1, windowStart: now}
		return 1, nil
	}

	entry.count++
	return entry.count, nil
}

package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter enforces a per-key sliding window. Sliding windows rather
// than fixed buckets so a burst straddling a window boundary cannot double
// the effective limit.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit, along with when the oldest counted attempt ages out.
func (l *RateLimiter) Allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.windows[key][:0]
	for _, ts := range l.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.windows[key] = kept
		return false, kept[0].Add(l.window)
	}

	l.windows[key] = append(kept, now)
	return true, now.Add(l.window)
}

// RateLimit rejects requests once the authenticated user exhausts the
// limiter's window. Must run after RequireAuth.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID.IsZero() {
				next.ServeHTTP(w, r)
				return
			}

			allowed, resetAt := limiter.Allow(userID.String())
			if !allowed {
				retryAfter := int(time.Until(resetAt).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"code":    "rate_limited",
					"message": "too many submission attempts, slow down",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

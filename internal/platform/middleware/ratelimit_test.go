package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tripgate/internal/domain"
)

func TestRateLimiter_SlidingWindow(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	ok, _ := limiter.Allow("u1")
	assert.True(t, ok)
	ok, _ = limiter.Allow("u1")
	assert.True(t, ok)

	ok, resetAt := limiter.Allow("u1")
	assert.False(t, ok)
	assert.Equal(t, clock.Add(time.Minute), resetAt)

	// Separate keys do not share a window.
	ok, _ = limiter.Allow("u2")
	assert.True(t, ok)

	// Once the oldest attempt ages out, capacity returns.
	clock = clock.Add(61 * time.Second)
	ok, _ = limiter.Allow("u1")
	assert.True(t, ok)
}

func TestRateLimit_Returns429WithRetryAfter(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	userID := domain.NewUserID()
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/entries/x/submit", nil)
		req = req.WithContext(WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestRateLimit_SkipsUnauthenticatedRequests(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/entries/x/submit", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

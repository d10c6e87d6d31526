package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(cfg)
	l.now = clock.now
	return l, clock
}

func TestNew_Disabled(t *testing.T) {
	l := New(Config{})
	assert.Nil(t, l)

	allowed, _, _ := l.Allow("anyone")
	assert.True(t, allowed)
	assert.Equal(t, 0, l.Burst())
	assert.Equal(t, 0, l.Len())
}

func TestNew_DefaultBurst(t *testing.T) {
	assert.Equal(t, 10, New(Config{RequestsPerSecond: 5}).Burst())
	assert.Equal(t, 1, New(Config{RequestsPerSecond: 0.1}).Burst())
	assert.Equal(t, 3, New(Config{RequestsPerSecond: 5, Burst: 3}).Burst())
}

func TestAllow_BurstThenRefill(t *testing.T) {
	l, clock := newTestLimiter(Config{RequestsPerSecond: 2, Burst: 2})

	ok, remaining, _ := l.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
	ok, remaining, _ = l.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _, wait := l.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait)

	// other clients have their own bucket
	ok, _, _ = l.Allow("b")
	assert.True(t, ok)

	clock.advance(500 * time.Millisecond)
	ok, _, _ = l.Allow("a")
	assert.True(t, ok)
}

func TestAllow_SweepsIdleClients(t *testing.T) {
	l, clock := newTestLimiter(Config{RequestsPerSecond: 1, IdleTTL: time.Minute})

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.Len())

	clock.advance(2 * time.Minute)
	l.Allow("c")
	assert.Equal(t, 1, l.Len())
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(Config{RequestsPerSecond: 1, Burst: 1})
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/people", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "Too Many Requests\n", rec.Body.String())

	// a different port is the same client
	req.RemoteAddr = "10.0.0.1:4321"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestMiddleware_NilLimiter(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
	h := Middleware(nil)(next)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:8080"
	assert.Equal(t, "::1", ClientKey(req))
	req.RemoteAddr = "unix"
	assert.Equal(t, "unix", ClientKey(req))
}

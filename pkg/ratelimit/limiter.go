// Package ratelimit limits requests per client with a token bucket.
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"sync"
	"time"
)

// DefaultIdleTTL is how long a client bucket survives without requests.
const DefaultIdleTTL = time.Minute

// Config configures a Limiter.
type Config struct {
	// RequestsPerSecond is the refill rate of every client bucket.
	RequestsPerSecond float64
	// Burst is the bucket capacity. Zero means twice RequestsPerSecond, at least 1.
	Burst int
	// IdleTTL drops buckets of clients that stopped sending requests.
	IdleTTL time.Duration
}

// Enabled reports whether the configuration limits anything.
func (c Config) Enabled() bool {
	return c.RequestsPerSecond > 0
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// Limiter keeps one token bucket per client key. It is safe for concurrent use.
type Limiter struct {
	rate    float64
	burst   float64
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// New creates a limiter. It returns nil when cfg is not enabled; a nil
// Limiter allows every request.
func New(cfg Config) *Limiter {
	if !cfg.Enabled() {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(math.Max(1, cfg.RequestsPerSecond*2))
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Limiter{
		rate:    cfg.RequestsPerSecond,
		burst:   float64(burst),
		idleTTL: ttl,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int {
	if l == nil {
		return 0
	}
	return int(l.burst)
}

// Allow takes a token from the bucket of key. When the bucket is empty it
// returns false and how long the client should wait for the next token.
func (l *Limiter) Allow(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	if l == nil {
		return true, 0, 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, seen: now}
		l.buckets[key] = b
	}
	b.tokens = math.Min(l.burst, b.tokens+now.Sub(b.seen).Seconds()*l.rate)
	b.seen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}
	wait := time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
	return false, 0, wait
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweep drops idle buckets at most once per idleTTL. Caller holds l.mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	cutoff := now.Add(-l.idleTTL)
	for key, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// ClientKey identifies the client of r by the host part of RemoteAddr.
// Proxy headers are honored only when chi's RealIP middleware has already
// rewritten RemoteAddr.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

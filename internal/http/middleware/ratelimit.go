package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Throttle meters credential endpoints per client: each client refills
// tokens at a fixed rate up to a burst ceiling, and a login attempt
// spends one token. Clients that go quiet are swept from the table.
type Throttle struct {
	mu      sync.Mutex
	clients map[string]*tokenBucket
	rate    float64
	burst   float64
	now     func() time.Time
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

// NewThrottle creates a throttle refilling perSecond tokens up to burst.
func NewThrottle(perSecond float64, burst int) *Throttle {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		clients: make(map[string]*tokenBucket),
		rate:    perSecond,
		burst:   float64(burst),
		now:     time.Now,
	}
}

// Allow spends a token for the client. When the bucket is empty it
// returns false plus the wait until the next token is refilled.
func (t *Throttle) Allow(client string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	b, ok := t.clients[client]
	if !ok {
		b = &tokenBucket{tokens: t.burst, seen: now}
		t.clients[client] = b
	}

	b.tokens = math.Min(t.burst, b.tokens+now.Sub(b.seen).Seconds()*t.rate)
	b.seen = now

	if b.tokens < 1 {
		wait := time.Duration((1 - b.tokens) / t.rate * float64(time.Second))
		return false, wait
	}
	b.tokens--
	return true, 0
}

// Sweep drops clients idle longer than olderThan.
func (t *Throttle) Sweep(olderThan time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-olderThan)
	for client, b := range t.clients {
		if b.seen.Before(cutoff) {
			delete(t.clients, client)
		}
	}
}

func clientKey(r *http.Request) string {
	// chi's RealIP has already folded X-Real-Ip / X-Forwarded-For into
	// RemoteAddr when the server runs behind a proxy.
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimit returns a middleware throttling requests per client IP. Over
// the limit the client gets 429 with a Retry-After hint, so browser login
// forms can surface the wait instead of a generic failure.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	throttle := NewThrottle(perSecond, burst)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			throttle.Sweep(10 * time.Minute)
		}
	}()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := throttle.Allow(clientKey(r))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many attempts, retry later"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

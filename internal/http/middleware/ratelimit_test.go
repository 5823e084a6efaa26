package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestThrottleAllowsBurstThenRefuses(t *testing.T) {
	th := NewThrottle(1, 3)
	for i := 0; i < 3; i++ {
		if ok, _ := th.Allow("203.0.113.1"); !ok {
			t.Fatalf("attempt %d refused within burst", i+1)
		}
	}
	ok, wait := th.Allow("203.0.113.1")
	if ok {
		t.Fatal("attempt allowed beyond burst")
	}
	if wait <= 0 {
		t.Fatalf("wait hint = %v, want positive", wait)
	}
}

func TestThrottleRefillsOverTime(t *testing.T) {
	th := NewThrottle(1, 1)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return clock }

	if ok, _ := th.Allow("203.0.113.1"); !ok {
		t.Fatal("first attempt refused")
	}
	if ok, _ := th.Allow("203.0.113.1"); ok {
		t.Fatal("second immediate attempt allowed")
	}

	clock = clock.Add(time.Second)
	if ok, _ := th.Allow("203.0.113.1"); !ok {
		t.Fatal("attempt refused after refill interval")
	}
}

func TestThrottleKeysPerClient(t *testing.T) {
	th := NewThrottle(1, 1)
	if ok, _ := th.Allow("203.0.113.1"); !ok {
		t.Fatal("first client refused")
	}
	if ok, _ := th.Allow("203.0.113.2"); !ok {
		t.Fatal("second client throttled by first client's bucket")
	}
}

func TestThrottleSweepDropsIdleClients(t *testing.T) {
	th := NewThrottle(1, 1)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return clock }

	th.Allow("203.0.113.1")
	clock = clock.Add(time.Hour)
	th.Sweep(10 * time.Minute)

	if len(th.clients) != 0 {
		t.Fatalf("%d clients survived the sweep", len(th.clients))
	}
	// A swept client starts over with a full bucket.
	if ok, _ := th.Allow("203.0.113.1"); !ok {
		t.Fatal("swept client refused a fresh attempt")
	}
}

func TestRateLimitMiddlewareReturns429WithRetryAfter(t *testing.T) {
	mw := RateLimit(0.001, 1)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/client/login", nil)
	req.Header.Set("X-Real-Ip", "203.0.113.9")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first attempt status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second attempt status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
	if !strings.Contains(rec.Body.String(), "too many attempts") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestRateLimitStripsPortFromRemoteAddr(t *testing.T) {
	mw := RateLimit(0.001, 1)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Same host on different ephemeral ports shares one bucket.
	for i, addr := range []string{"198.51.100.4:50001", "198.51.100.4:50002"} {
		req := httptest.NewRequest(http.MethodPost, "/api/client/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("first attempt status = %d", rec.Code)
		}
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("second attempt status = %d, want 429", rec.Code)
		}
	}
}

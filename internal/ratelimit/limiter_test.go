package ratelimit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dreschagin/reader-server/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func frozenLimiter(rps float64, burst int) *Limiter {
	l := New(rps, burst)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	return l
}

func TestAllowPerClient(t *testing.T) {
	l := frozenLimiter(1, 2)
	l.global = New(1000, 1000).global

	for i := range 2 {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d for client A denied, want allowed", i)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatalf("third request for client A allowed, want denied")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatalf("client B denied, want its own bucket")
	}
}

func TestEvictsIdleClients(t *testing.T) {
	l := New(1000, 1000)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := start
	l.now = func() time.Time { return current }
	l.global = New(1e9, 1e9).global

	for i := range maxTrackedClients {
		l.Allow(fmt.Sprintf("client-%d", i))
	}
	current = start.Add(clientIdleTTL + time.Minute)
	l.Allow("fresh")

	if got := l.trackedClients(); got != 1 {
		t.Fatalf("tracked clients = %d, want 1 after eviction", got)
	}
}

func TestMiddleware(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	l := frozenLimiter(1, 1)
	handler := l.Middleware(m, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 2)
	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
		req.RemoteAddr = "192.0.2.7:4321"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("status codes = %v, want [200 429]", codes)
	}
	if got := testutil.ToFloat64(m.RateLimitDropped); got != 1 {
		t.Fatalf("dropped = %v, want 1", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{name: "forwarded first hop", forwarded: "203.0.113.5, 10.0.0.1", remoteAddr: "10.0.0.1:80", want: "203.0.113.5"},
		{name: "remote addr", remoteAddr: "198.51.100.3:5555", want: "198.51.100.3"},
		{name: "remote addr without port", remoteAddr: "198.51.100.3", want: "198.51.100.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := ClientIP(req); got != tt.want {
				t.Fatalf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

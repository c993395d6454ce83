package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dreschagin/reader-server/internal/httpx"
	"github.com/dreschagin/reader-server/internal/metrics"
	"github.com/dreschagin/reader-server/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestRouter(t *testing.T, limiter *ratelimit.Limiter) http.Handler {
	t.Helper()

	work := filepath.Join(t.TempDir(), "work")
	writeTree(t, work, map[string]string{
		"index.html":         "<html>reader</html>",
		"static/css/app.css": strings.Repeat("p { margin: 0; }\n", 100),
	})

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	mounts, _, err := OpenMounts(MountConfig{
		WorkRoot:  work,
		IndexFile: "index.html",
		JSDir:     filepath.Join(work, "static", "js"),
		CSSDir:    filepath.Join(work, "static", "css"),
		EPUBDir:   filepath.Join(work, "attached_assets"),
		Alias:     testAlias,
	}, logger)
	if err != nil {
		t.Fatalf("OpenMounts() error = %v", err)
	}
	t.Cleanup(func() { _ = mounts.Close() })

	registry := prometheus.NewRegistry()
	return NewRouter(RouterConfig{
		Mounts:      mounts,
		Logger:      logger,
		Metrics:     metrics.New(registry),
		Gatherer:    registry,
		Limiter:     limiter,
		Compression: true,
	})
}

func TestRouterEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "<html>reader</html>" {
		t.Fatalf("index status = %d body = %q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(httpx.RequestIDHeader) == "" {
		t.Fatalf("missing %s header", httpx.RequestIDHeader)
	}

	for path, want := range map[string]string{"/healthz": "ok", "/readyz": "ready"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK || rr.Body.String() != want {
			t.Fatalf("%s status = %d body = %q", path, rr.Code, rr.Body.String())
		}
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), `reader_requests_total{method="GET",route="index",status="200"} 1`) {
		t.Fatalf("metrics output missing index request counter:\n%s", rr.Body.String())
	}
}

func TestRouterCompressesCSS(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/css/app.css", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", rr.Header().Get("Content-Encoding"))
	}
	if rr.Header().Get("Content-Type") != "text/css" {
		t.Fatalf("Content-Type = %q, want text/css", rr.Header().Get("Content-Type"))
	}
}

func TestRouterRateLimit(t *testing.T) {
	router := newTestRouter(t, ratelimit.New(1, 1))

	codes := make([]int, 0, 2)
	for range 2 {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/index.html", nil))
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("status codes = %v, want [200 429]", codes)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200 regardless of limiter", rr.Code)
	}
}

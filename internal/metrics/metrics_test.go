package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/", want: "index"},
		{path: "/js/app.js", want: "js"},
		{path: "/css/app.css", want: "css"},
		{path: "/epub/default.epub", want: "epub"},
		{path: "/some/random/file.txt", want: "files"},
		{path: "", want: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Route(tt.path); got != tt.want {
				t.Fatalf("Route(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	m := New(prometheus.NewRegistry())
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/js/app.js", "/js/app.js", "/missing.txt"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("js", http.MethodGet, "200")); got != 2 {
		t.Fatalf("js 200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("files", http.MethodGet, "404")); got != 1 {
		t.Fatalf("files 404 count = %v, want 1", got)
	}
}

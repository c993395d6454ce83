package server

import (
	"log/slog"
	"net/http"

	"github.com/dreschagin/reader-server/internal/httpx"
	"github.com/dreschagin/reader-server/internal/metrics"
	"github.com/dreschagin/reader-server/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Mounts      Mounts
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Limiter     *ratelimit.Limiter // nil disables rate limiting
	Compression bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	var assetHandler http.Handler = NewHandler(cfg.Mounts, cfg.Logger, cfg.Metrics)
	if cfg.Compression {
		assetHandler = httpx.Compression(assetHandler)
	}
	if cfg.Limiter != nil {
		assetHandler = cfg.Limiter.Middleware(cfg.Metrics, assetHandler)
	}
	assetHandler = cfg.Metrics.Middleware(assetHandler)
	assetHandler = httpx.WithRecovery(cfg.Logger, cfg.Metrics.Panics.Inc, assetHandler)
	assetHandler = httpx.WithRequestID(assetHandler)
	assetHandler = httpx.WithLogging(cfg.Logger, assetHandler)

	mux.Handle("/", assetHandler)

	return mux
}

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dreschagin/reader-server/internal/assets"
	"github.com/dreschagin/reader-server/internal/httpx"
	"github.com/dreschagin/reader-server/internal/metrics"
	"github.com/dreschagin/reader-server/internal/routing"
)

// Mounts binds each route target to its resolver. A nil resolver means the
// directory was not available at startup; its routes answer 404.
type Mounts struct {
	IndexFile string
	Files     *assets.Resolver
	JS        *assets.Resolver
	CSS       *assets.Resolver
	EPUB      *assets.Resolver

	roots []*assets.Root
}

// Handler serves static assets. It keeps no per-request state.
type Handler struct {
	mounts  Mounts
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(mounts Mounts, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		mounts:  mounts,
		logger:  logger,
		metrics: m,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target, name, ok := routing.Match(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if target == routing.TargetIndex {
		name = h.mounts.IndexFile
	}

	resolver := h.resolverFor(target)
	if resolver == nil {
		h.fail(w, r, target, name, fmt.Errorf("%w: %s mount is not configured", assets.ErrNotFound, target))
		return
	}

	asset, err := resolver.Resolve(name)
	if err != nil {
		h.fail(w, r, target, name, err)
		return
	}

	n, err := resolver.Deliver(w, r, asset)
	h.metrics.BytesServed.WithLabelValues(string(target)).Add(float64(n))
	if err != nil {
		if errors.Is(err, assets.ErrTruncated) {
			// status already sent; only record it
			h.metrics.ResolveFailures.WithLabelValues(string(target), assets.Reason(err)).Inc()
			h.logger.Error("asset delivery interrupted", h.attrs(r, target, name, err)...)
			return
		}
		h.fail(w, r, target, name, err)
		return
	}

	h.logger.Debug("asset delivered",
		"handler", string(target),
		"path", name,
		"file", asset.Path,
		"content_type", asset.ContentType,
		"bytes", n,
		"request_id", r.Header.Get(httpx.RequestIDHeader),
	)
}

func (h *Handler) resolverFor(target routing.Target) *assets.Resolver {
	switch target {
	case routing.TargetIndex, routing.TargetFiles:
		return h.mounts.Files
	case routing.TargetJS:
		return h.mounts.JS
	case routing.TargetCSS:
		return h.mounts.CSS
	case routing.TargetEPUB:
		return h.mounts.EPUB
	default:
		return nil
	}
}

// fail logs the real reason and answers with a status that never reveals
// whether a traversal target exists.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, target routing.Target, name string, err error) {
	reason := assets.Reason(err)
	h.metrics.ResolveFailures.WithLabelValues(string(target), reason).Inc()

	status := assets.StatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("asset request failed", h.attrs(r, target, name, err)...)
		http.Error(w, "internal server error", status)
		return
	}

	h.logger.Warn("asset request rejected", h.attrs(r, target, name, err)...)
	http.Error(w, "not found", http.StatusNotFound)
}

func (h *Handler) attrs(r *http.Request, target routing.Target, name string, err error) []any {
	return []any{
		"handler", string(target),
		"path", name,
		"reason", assets.Reason(err),
		"error", err,
		"request_id", r.Header.Get(httpx.RequestIDHeader),
	}
}

package assets

import (
	"errors"
	"net/http"
)

var (
	// ErrPathTraversal indicates a request that would escape the asset root.
	// It is answered as not found so the real reason never reaches the client.
	ErrPathTraversal = errors.New("path escapes asset root")

	// ErrNotFound indicates a missing file, a non-regular file or an
	// unresolvable alias.
	ErrNotFound = errors.New("asset not found")

	// ErrAssetRead indicates an unexpected I/O failure while checking or
	// reading an asset.
	ErrAssetRead = errors.New("asset read failed")

	// ErrTruncated indicates the body copy failed after the header was sent.
	ErrTruncated = errors.New("asset body truncated")
)

// StatusCode maps a resolution or delivery error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrPathTraversal), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Reason returns a short label for logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrPathTraversal):
		return "path_traversal"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTruncated):
		return "truncated"
	default:
		return "server_error"
	}
}

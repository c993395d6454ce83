package assets

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Deliver writes a resolved asset with status 200. Errors returned before
// anything is written wrap ErrAssetRead; a failure while copying the body
// wraps ErrTruncated because the status line is already on the wire.
func (r *Resolver) Deliver(w http.ResponseWriter, req *http.Request, asset ResolvedAsset) (int64, error) {
	if !asset.Exists {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, asset.Name)
	}

	rel, err := r.root.relative(asset.Path)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrPathTraversal, asset.Name)
	}

	f, err := r.root.fsys.Open(rel)
	if err != nil {
		return 0, fmt.Errorf("%w: open %q: %v", ErrAssetRead, asset.Name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: stat %q: %v", ErrAssetRead, asset.Name, err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %q is no longer a regular file", ErrAssetRead, asset.Name)
	}

	header := w.Header()
	header.Set("Content-Type", asset.ContentType)
	header.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	header.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if req.Method == http.MethodHead {
		return 0, nil
	}

	n, err := io.CopyN(w, f, info.Size())
	if err != nil {
		return n, fmt.Errorf("%w: %q after %d bytes: %v", ErrTruncated, asset.Name, n, err)
	}
	return n, nil
}

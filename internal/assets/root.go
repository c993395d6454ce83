package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Root is a directory boundary outside which no file may be served.
// The directory is canonicalised once when opened and held as an *os.Root,
// so opens through it cannot leave the tree either.
type Root struct {
	dir  string
	fsys *os.Root
}

// OpenRoot canonicalises dir (absolute, symlinks resolved) and opens it.
func OpenRoot(dir string) (*Root, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve asset root %q: %w", dir, err)
	}

	realDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return nil, fmt.Errorf("resolve asset root %q: %w", dir, err)
	}

	info, err := os.Stat(realDir)
	if err != nil {
		return nil, fmt.Errorf("stat asset root %q: %w", realDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset root %q is not a directory", realDir)
	}

	fsys, err := os.OpenRoot(realDir)
	if err != nil {
		return nil, fmt.Errorf("open asset root %q: %w", realDir, err)
	}

	return &Root{dir: realDir, fsys: fsys}, nil
}

// Dir returns the canonical absolute directory of the root.
func (r *Root) Dir() string {
	return r.dir
}

// FS returns a read-only view of the root.
func (r *Root) FS() fs.FS {
	return r.fsys.FS()
}

func (r *Root) Close() error {
	return r.fsys.Close()
}

// Confine maps a logical request path onto a canonical absolute path inside
// the root. Dot-dot segments are refused before the filesystem is touched;
// symlinks are resolved before the containment comparison.
func (r *Root) Confine(requested string) (string, error) {
	rel, err := cleanRequest(requested)
	if err != nil {
		return "", err
	}

	realPath, err := filepath.EvalSymlinks(filepath.Join(r.dir, rel))
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return "", fmt.Errorf("%w: %q: %v", ErrAssetRead, requested, err)
		}
		return "", fmt.Errorf("%w: %q", ErrNotFound, requested)
	}

	if _, err := r.relative(realPath); err != nil {
		return "", fmt.Errorf("%w: %q", ErrPathTraversal, requested)
	}

	return realPath, nil
}

// relative returns path relative to the root, or an error if it lies outside.
func (r *Root) relative(path string) (string, error) {
	rel, err := filepath.Rel(r.dir, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%q is outside %q", path, r.dir)
	}
	return rel, nil
}

func cleanRequest(requested string) (string, error) {
	if strings.IndexByte(requested, 0) >= 0 {
		return "", fmt.Errorf("%w: NUL byte in %q", ErrPathTraversal, requested)
	}

	segments := strings.FieldsFunc(requested, func(c rune) bool {
		return c == '/' || c == '\\'
	})

	kept := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch {
		case seg == ".":
			continue
		case seg == "..":
			return "", fmt.Errorf("%w: %q", ErrPathTraversal, requested)
		case filepath.VolumeName(seg) != "":
			return "", fmt.Errorf("%w: %q", ErrPathTraversal, requested)
		case strings.HasPrefix(seg, "."):
			// hidden files (.env, .git) are never served
			return "", fmt.Errorf("%w: %q", ErrNotFound, requested)
		}
		kept = append(kept, seg)
	}

	return filepath.Join(kept...), nil
}

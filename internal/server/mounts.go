package server

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/dreschagin/reader-server/internal/alias"
	"github.com/dreschagin/reader-server/internal/assets"
)

// MountConfig lists the directories behind each route.
type MountConfig struct {
	WorkRoot  string
	IndexFile string
	JSDir     string
	CSSDir    string
	EPUBDir   string
	Alias     alias.Rule
}

// OpenMounts opens every root and resolves the default alias once. The
// working root is required; a missing JS, CSS or EPUB directory only disables
// that route.
func OpenMounts(cfg MountConfig, logger *slog.Logger) (Mounts, *alias.Map, error) {
	mounts := Mounts{IndexFile: cfg.IndexFile}

	workRoot, err := assets.OpenRoot(cfg.WorkRoot)
	if err != nil {
		return Mounts{}, nil, fmt.Errorf("open working root: %w", err)
	}
	mounts.roots = append(mounts.roots, workRoot)
	mounts.Files = assets.NewResolver(workRoot)

	jsRoot, err := openOptional(cfg.JSDir, "js", logger)
	if err != nil {
		_ = mounts.Close()
		return Mounts{}, nil, err
	}
	if jsRoot != nil {
		mounts.roots = append(mounts.roots, jsRoot)
		mounts.JS = assets.NewResolver(jsRoot, assets.WithContentType("application/javascript"))
	}

	cssRoot, err := openOptional(cfg.CSSDir, "css", logger)
	if err != nil {
		_ = mounts.Close()
		return Mounts{}, nil, err
	}
	if cssRoot != nil {
		mounts.roots = append(mounts.roots, cssRoot)
		mounts.CSS = assets.NewResolver(cssRoot, assets.WithContentType("text/css"))
	}

	epubRoot, err := openOptional(cfg.EPUBDir, "epub", logger)
	if err != nil {
		_ = mounts.Close()
		return Mounts{}, nil, err
	}
	if epubRoot == nil {
		return mounts, nil, nil
	}
	mounts.roots = append(mounts.roots, epubRoot)

	aliases, err := alias.Build(epubRoot, cfg.Alias)
	if err != nil {
		_ = mounts.Close()
		return Mounts{}, nil, fmt.Errorf("resolve aliases: %w", err)
	}
	mounts.EPUB = assets.NewResolver(epubRoot, assets.WithAliases(aliases))

	return mounts, aliases, nil
}

func openOptional(dir, name string, logger *slog.Logger) (*assets.Root, error) {
	root, err := assets.OpenRoot(dir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("asset directory missing, route disabled", "handler", name, "dir", dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s root: %w", name, err)
	}
	return root, nil
}

// Close releases every opened root.
func (m Mounts) Close() error {
	var errs []error
	for _, root := range m.roots {
		errs = append(errs, root.Close())
	}
	return errors.Join(errs...)
}

package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Aliases maps a logical alias name onto a file inside the root.
// ok reports whether name is an alias at all; an empty target means the
// alias exists but nothing on disk could back it.
type Aliases interface {
	Lookup(name string) (target string, ok bool)
}

// ResolvedAsset is the outcome of a successful resolution.
type ResolvedAsset struct {
	Name        string // logical name as requested
	Path        string // canonical physical path
	ContentType string
	Exists      bool
	Size        int64
}

// Resolver applies confinement, existence and content-type policy for one root.
type Resolver struct {
	root        *Root
	contentType string
	aliases     Aliases
}

type Option func(*Resolver)

// WithContentType forces a content type for every asset of the resolver.
func WithContentType(contentType string) Option {
	return func(r *Resolver) {
		r.contentType = contentType
	}
}

func WithAliases(aliases Aliases) Option {
	return func(r *Resolver) {
		r.aliases = aliases
	}
}

func NewResolver(root *Root, opts ...Option) *Resolver {
	r := &Resolver{root: root}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Root() *Root {
	return r.root
}

// Resolve confines requested to the root and checks that it names a regular
// file. Alias targets go through the same confinement on every call.
func (r *Resolver) Resolve(requested string) (ResolvedAsset, error) {
	asset := ResolvedAsset{Name: requested}

	target := requested
	if r.aliases != nil {
		if aliased, ok := r.aliases.Lookup(requested); ok {
			if aliased == "" {
				return asset, fmt.Errorf("%w: alias %q is unresolvable", ErrNotFound, requested)
			}
			target = aliased
		}
	}

	path, err := r.root.Confine(target)
	if err != nil {
		return asset, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return asset, fmt.Errorf("%w: %q", ErrNotFound, requested)
		}
		return asset, fmt.Errorf("%w: stat %q: %v", ErrAssetRead, requested, err)
	}
	if !info.Mode().IsRegular() {
		return asset, fmt.Errorf("%w: %q is not a regular file", ErrNotFound, requested)
	}

	asset.Path = path
	asset.Exists = true
	asset.Size = info.Size()
	asset.ContentType = r.contentType
	if asset.ContentType == "" {
		asset.ContentType = ContentType(path)
	}

	return asset, nil
}

package tiledata

import (
	"context"
	"slices"
	"strings"

	"github.com/kailas-cloud/tiles/internal/domain/tile"
)

// ContextResolverFunc adapts a function to ContextResolver.
type ContextResolverFunc func(ctx context.Context, t *tile.Tile) (tile.Context, error)

// ResolveContext calls f.
func (f ContextResolverFunc) ResolveContext(ctx context.Context, t *tile.Tile) (tile.Context, error) {
	return f(ctx, t)
}

// DefaultContextResolver anchors tile data on the tile's own context.
var DefaultContextResolver = ContextResolverFunc(func(_ context.Context, t *tile.Tile) (tile.Context, error) {
	return t.Context, nil
})

// PrefixContextResolver anchors tiles on configured contexts: content below a
// prefix keeps its tile data on the prefix's anchor. The longest matching
// prefix wins; unmatched tiles fall back to their own context.
type PrefixContextResolver struct {
	prefixes []string
	anchors  map[string]string
}

// NewPrefixContextResolver builds a resolver from prefix → anchor path pairs.
func NewPrefixContextResolver(anchors map[string]string) *PrefixContextResolver {
	r := &PrefixContextResolver{anchors: make(map[string]string, len(anchors))}
	for prefix, anchor := range anchors {
		p := tile.Context{Path: prefix}.NormalizedPath()
		r.anchors[p] = tile.Context{Path: anchor}.NormalizedPath()
		r.prefixes = append(r.prefixes, p)
	}
	slices.SortFunc(r.prefixes, func(a, b string) int { return len(b) - len(a) })
	return r
}

// ResolveContext implements ContextResolver.
func (r *PrefixContextResolver) ResolveContext(_ context.Context, t *tile.Tile) (tile.Context, error) {
	path := t.Context.NormalizedPath()
	for _, p := range r.prefixes {
		if p == "" || path == p || strings.HasPrefix(path, p+"/") {
			return tile.Context{Path: r.anchors[p]}, nil
		}
	}
	return t.Context, nil
}

// DefaultStorageResolver keeps persistent data in the anchor's annotations
// and transient data in the request scratchpad.
type DefaultStorageResolver struct {
	Annotations AnnotationRepository
}

// ResolveStorage implements StorageResolver.
func (r DefaultStorageResolver) ResolveStorage(
	_ context.Context, anchor tile.Context, t *tile.Tile, persistent bool,
) (KeyValueStore, error) {
	if persistent {
		return NewAnnotationStore(r.Annotations, anchor.NormalizedPath()), nil
	}
	return NewRequestStore(t.Request), nil
}

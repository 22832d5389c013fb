package tiledata

import (
	"context"

	"github.com/kailas-cloud/tiles/internal/domain/record"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
)

// Manager reads and writes the data of one tile for the lifetime of one
// request. The record returned by Get is memoized; callers that want to
// change it should Clone it and pass the copy to Set.
type Manager interface {
	Get(ctx context.Context) (record.Record, error)
	Set(ctx context.Context, rec record.Record) error
	Delete(ctx context.Context) error
}

// KeyValueStore is the storage contract shared by the per-request scratchpad
// and durable annotation storage.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (record.Record, bool, error)
	Set(ctx context.Context, key string, rec record.Record) error
	Contains(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// ContextResolver picks the content context whose storage holds a tile's data.
type ContextResolver interface {
	ResolveContext(ctx context.Context, t *tile.Tile) (tile.Context, error)
}

// StorageResolver returns the store holding a tile's data on the anchor context.
type StorageResolver interface {
	ResolveStorage(ctx context.Context, anchor tile.Context, t *tile.Tile, persistent bool) (KeyValueStore, error)
}

// TypeLookup resolves registered tile types.
type TypeLookup interface {
	Lookup(name string) (tile.Type, error)
}

// AnnotationRepository is durable per-context annotation storage.
type AnnotationRepository interface {
	Get(ctx context.Context, contextPath, key string) (record.Record, bool, error)
	Set(ctx context.Context, contextPath, key string, rec record.Record) error
	Delete(ctx context.Context, contextPath, key string) error
	Keys(ctx context.Context, contextPath string) ([]string, error)
}

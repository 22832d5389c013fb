package tileurl

import (
	"context"

	"github.com/kailas-cloud/tiles/internal/domain/tile"
	"github.com/kailas-cloud/tiles/internal/usecase/tiledata"
)

// TypeLookup resolves registered tile types.
type TypeLookup interface {
	Lookup(name string) (tile.Type, error)
}

// DataSource hands out data managers for tiles.
type DataSource interface {
	For(ctx context.Context, t *tile.Tile) (tiledata.Manager, error)
}

package tiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tiles/internal/db"
	"github.com/kailas-cloud/tiles/internal/db/memory"
	dbRedis "github.com/kailas-cloud/tiles/internal/db/redis"
	"github.com/kailas-cloud/tiles/internal/db/sqlite"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
	"github.com/kailas-cloud/tiles/internal/repository/annotation"
	healthuc "github.com/kailas-cloud/tiles/internal/usecase/health"
	"github.com/kailas-cloud/tiles/internal/usecase/registry"
	"github.com/kailas-cloud/tiles/internal/usecase/tiledata"
	"github.com/kailas-cloud/tiles/internal/usecase/tileurl"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced by mocks in tests.
type dataUseCase interface {
	For(ctx context.Context, t *tile.Tile) (tiledata.Manager, error)
	StoredTileIDs(ctx context.Context, c tile.Context) ([]string, error)
}

type urlUseCase interface {
	URL(ctx context.Context, t *tile.Tile) (string, error)
	Breadcrumbs(t *tile.Tile) ([]tileurl.Breadcrumb, error)
}

type annotationStore interface {
	Contexts(ctx context.Context) ([]string, error)
	Purge(ctx context.Context, contextPath string) error
}

// Client is the tiles SDK entry point.
type Client struct {
	store       db.Store
	types       *registry.Registry
	annotations annotationStore
	dataSvc     dataUseCase
	urlSvc      urlUseCase
	healthSvc   healthUseCase
	obs         *observer
}

// New creates a Client and connects to the storage backend.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("tiles: storage required (use WithValkey, WithRedis, WithSQLite or WithMemory)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("tiles: storage not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
			CacheTTL: cfg.cacheTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("tiles: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "sqlite":
		s, err := sqlite.NewStore(sqlite.Config{Path: cfg.path})
		if err != nil {
			return nil, fmt.Errorf("tiles: create sqlite store: %w", err)
		}
		return s, nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("tiles: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	types := registry.New()
	annotations := annotation.New(store, cfg.keyPrefix)

	var dataOpts []tiledata.Option
	if len(cfg.anchors) > 0 {
		dataOpts = append(dataOpts, tiledata.WithContextResolver(tiledata.NewPrefixContextResolver(cfg.anchors)))
	}
	if m, ok := obs.dataMetrics(); ok {
		dataOpts = append(dataOpts, tiledata.WithMetrics(m))
	}
	dataSvc := tiledata.New(types, annotations, zap.NewNop(), dataOpts...)

	return &Client{
		store:       store,
		types:       types,
		annotations: annotations,
		dataSvc:     dataSvc,
		urlSvc:      tileurl.New(cfg.baseURL, types, dataSvc),
		healthSvc:   healthuc.New(store, types),
		obs:         obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks storage connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	sp := c.obs.begin("ping", nil)
	defer func() { c.obs.end(sp, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// RegisterType adds a tile type. Edit and delete permissions default to the
// add permission.
func (c *Client) RegisterType(t TileType) error {
	return c.types.Register(t)
}

// Type returns a registered tile type.
func (c *Client) Type(name string) (TileType, error) {
	return c.types.Lookup(name)
}

// Types returns all registered tile types sorted by name.
func (c *Client) Types() []TileType {
	return c.types.List()
}

// Data returns the data manager of t for the lifetime of its request.
func (c *Client) Data(ctx context.Context, t *Tile) (_ *DataManager, err error) {
	sp := c.obs.begin("data", t)
	defer func() { c.obs.end(sp, err) }()

	m, err := c.dataSvc.For(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("tile data: %w", err)
	}
	return &DataManager{tile: t, m: m, obs: c.obs}, nil
}

// URL returns the absolute URL of t. Transient tiles carry their data on
// the query string.
func (c *Client) URL(ctx context.Context, t *Tile) (_ string, err error) {
	sp := c.obs.begin("url", t)
	defer func() { c.obs.end(sp, err) }()

	return c.urlSvc.URL(ctx, t)
}

// Breadcrumbs returns the navigation path from the site root to t.
func (c *Client) Breadcrumbs(t *Tile) ([]Breadcrumb, error) {
	return c.urlSvc.Breadcrumbs(t)
}

// StoredTiles lists the ids of tiles with durable data on a context.
func (c *Client) StoredTiles(ctx context.Context, contextPath string) (_ []string, err error) {
	sp := c.obs.begin("stored_tiles", nil)
	defer func() { c.obs.end(sp, err, "context", contextPath) }()

	return c.dataSvc.StoredTileIDs(ctx, tile.Context{Path: contextPath})
}

// Contexts lists the paths of contexts holding tile data. The root is "".
func (c *Client) Contexts(ctx context.Context) (_ []string, err error) {
	sp := c.obs.begin("contexts", nil)
	defer func() { c.obs.end(sp, err) }()

	return c.annotations.Contexts(ctx)
}

// PurgeContext removes all durable tile data of a context.
func (c *Client) PurgeContext(ctx context.Context, contextPath string) (err error) {
	sp := c.obs.begin("purge", nil)
	defer func() { c.obs.end(sp, err, "context", contextPath) }()

	return c.annotations.Purge(ctx, tile.Context{Path: contextPath}.NormalizedPath())
}

// DataManager reads and writes the data of one tile.
type DataManager struct {
	tile *Tile
	m    tiledata.Manager
	obs  *observer
}

// Get returns the tile data. The record is memoized for the manager's
// lifetime; Clone it before modifying.
func (d *DataManager) Get(ctx context.Context) (_ Record, err error) {
	sp := d.obs.begin("get", d.tile)
	defer func() { d.obs.end(sp, err) }()

	return d.m.Get(ctx)
}

// Set replaces the tile data.
func (d *DataManager) Set(ctx context.Context, rec Record) (err error) {
	sp := d.obs.begin("set", d.tile)
	defer func() { d.obs.end(sp, err) }()

	return d.m.Set(ctx, rec)
}

// Delete removes the tile data.
func (d *DataManager) Delete(ctx context.Context) (err error) {
	sp := d.obs.begin("delete", d.tile)
	defer func() { d.obs.end(sp, err) }()

	return d.m.Delete(ctx)
}

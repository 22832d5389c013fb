package tiledata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
	"github.com/kailas-cloud/tiles/internal/metrics"
)

// Metrics are the counters the managers record into.
type Metrics struct {
	Operations      *prometheus.CounterVec // labels: mode, op, status
	DecodeFallbacks *prometheus.CounterVec // labels: mode
	Cache           *prometheus.CounterVec // labels: result
}

// DefaultMetrics returns the process-wide tile data counters.
func DefaultMetrics() Metrics {
	return Metrics{
		Operations:      metrics.TileDataOperationsTotal,
		DecodeFallbacks: metrics.TileDataDecodeFallbackTotal,
		Cache:           metrics.TileDataCacheTotal,
	}
}

// Option configures a Service.
type Option func(*Service)

// WithContextResolver replaces the default anchor resolution.
func WithContextResolver(r ContextResolver) Option {
	return func(s *Service) { s.contexts = r }
}

// WithStorageResolver replaces the default storage resolution.
func WithStorageResolver(r StorageResolver) Option {
	return func(s *Service) { s.storage = r }
}

// WithMetrics records into m instead of the process-wide counters.
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service creates data managers for tiles.
type Service struct {
	types       TypeLookup
	annotations AnnotationRepository
	contexts    ContextResolver
	storage     StorageResolver
	logger      *zap.Logger
	metrics     Metrics
}

// New creates a tile data service.
func New(types TypeLookup, annotations AnnotationRepository, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		types:       types,
		annotations: annotations,
		contexts:    DefaultContextResolver,
		storage:     DefaultStorageResolver{Annotations: annotations},
		logger:      logger,
		metrics:     DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShouldUsePersistent reports whether an X-Tile-Persistent header value asks
// for durable storage. Any non-empty value except the usual false spellings does.
func ShouldUsePersistent(override string) bool {
	switch strings.ToLower(strings.TrimSpace(override)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}

// For creates the data manager of t. Persistent tile types, and tiles whose
// request carries a persistent override, get durable storage.
// An unregistered tile type yields a schemaless transient manager.
func (s *Service) For(ctx context.Context, t *tile.Tile) (Manager, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	typ, err := s.types.Lookup(t.Name)
	if err != nil {
		if !errors.Is(err, domain.ErrTileTypeNotFound) {
			return nil, fmt.Errorf("lookup tile type: %w", err)
		}
		typ = tile.Type{Name: t.Name}
	}

	persistent := typ.Persistent || ShouldUsePersistent(t.Request.PersistentOverride)
	if persistent && t.ID == "" {
		return nil, fmt.Errorf("%w: persistent tile %s needs an id", domain.ErrInvalidTile, t.Name)
	}

	anchor, err := s.contexts.ResolveContext(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("resolve data context: %w", err)
	}
	store, err := s.storage.ResolveStorage(ctx, anchor, t, persistent)
	if err != nil {
		return nil, fmt.Errorf("resolve storage: %w", err)
	}

	mode := modeTransient
	if persistent {
		mode = modePersistent
	}
	base := manager{
		tile:    t,
		typ:     typ,
		store:   store,
		key:     StorageKey(store, t.ID),
		mode:    mode,
		logger:  s.logger.With(zap.String("tile_type", t.Name), zap.String("tile_id", t.ID)),
		metrics: s.metrics,
	}
	if persistent {
		return &persistentManager{manager: base}, nil
	}
	return &transientManager{manager: base}, nil
}

// StoredTileIDs lists the ids of tiles with durable data on a context.
func (s *Service) StoredTileIDs(ctx context.Context, c tile.Context) ([]string, error) {
	keys, err := s.annotations.Keys(ctx, c.NormalizedPath())
	if err != nil {
		return nil, fmt.Errorf("list stored tiles: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id, ok := TileID(k); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

package tileurl

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
)

// Service builds absolute tile URLs for one site.
type Service struct {
	baseURL string
	types   TypeLookup
	data    DataSource
}

// New creates a URL service rooted at baseURL.
func New(baseURL string, types TypeLookup, data DataSource) *Service {
	return &Service{baseURL: baseURL, types: types, data: data}
}

// URL returns the absolute URL of t. Transient tiles carry their current
// data on the query string; persistent tiles and unknown types do not.
func (s *Service) URL(ctx context.Context, t *tile.Tile) (string, error) {
	typ, err := s.types.Lookup(t.Name)
	if err != nil {
		if errors.Is(err, domain.ErrTileTypeNotFound) {
			return Base(s.baseURL, t)
		}
		return "", fmt.Errorf("tile url: %w", err)
	}
	if typ.Persistent {
		return Base(s.baseURL, t)
	}

	m, err := s.data.For(ctx, t)
	if err != nil {
		return "", fmt.Errorf("tile url: %w", err)
	}
	data, err := m.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("tile url: %w", err)
	}
	return Transient(s.baseURL, t, data, typ.Schema)
}

// Breadcrumbs returns the crumbs leading to t.
func (s *Service) Breadcrumbs(t *tile.Tile) ([]Breadcrumb, error) {
	return Breadcrumbs(s.baseURL, t)
}

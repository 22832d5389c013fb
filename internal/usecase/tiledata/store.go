package tiledata

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/record"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
)

// namespacedStore is implemented by annotation-style stores, which share one
// key space with other annotations and therefore get prefixed keys.
type namespacedStore interface {
	NamespacedKeys() bool
}

// StorageKey returns the key a tile's data is kept under in store:
// "tiles.data.<id>" for annotation-style stores, the bare id otherwise.
func StorageKey(store KeyValueStore, id string) string {
	if ns, ok := store.(namespacedStore); ok && ns.NamespacedKeys() {
		return domain.AnnotationKeyPrefix + "." + id
	}
	return id
}

// TileID extracts the tile id from a namespaced storage key.
func TileID(key string) (string, bool) {
	return strings.CutPrefix(key, domain.AnnotationKeyPrefix+".")
}

// RequestStore is the per-request scratchpad kept in the request annotations.
type RequestStore struct {
	annotations map[string]record.Record
}

// NewRequestStore creates a scratchpad over the annotations of req.
func NewRequestStore(req *tile.Request) *RequestStore {
	return &RequestStore{annotations: req.Annotations()}
}

// NamespacedKeys reports that request annotations use prefixed keys.
func (s *RequestStore) NamespacedKeys() bool { return true }

// Get returns the staged record.
func (s *RequestStore) Get(_ context.Context, key string) (record.Record, bool, error) {
	rec, ok := s.annotations[key]
	return rec, ok, nil
}

// Set stages rec.
func (s *RequestStore) Set(_ context.Context, key string, rec record.Record) error {
	s.annotations[key] = rec
	return nil
}

// Contains reports whether a record is staged under key.
func (s *RequestStore) Contains(_ context.Context, key string) (bool, error) {
	_, ok := s.annotations[key]
	return ok, nil
}

// Delete drops the staged record.
func (s *RequestStore) Delete(_ context.Context, key string) error {
	delete(s.annotations, key)
	return nil
}

// AnnotationStore is the durable annotation storage of one content context.
type AnnotationStore struct {
	repo        AnnotationRepository
	contextPath string
}

// NewAnnotationStore binds repo to a context path.
func NewAnnotationStore(repo AnnotationRepository, contextPath string) *AnnotationStore {
	return &AnnotationStore{repo: repo, contextPath: contextPath}
}

// NamespacedKeys reports that context annotations use prefixed keys.
func (s *AnnotationStore) NamespacedKeys() bool { return true }

// Get loads the stored record.
func (s *AnnotationStore) Get(ctx context.Context, key string) (record.Record, bool, error) {
	rec, ok, err := s.repo.Get(ctx, s.contextPath, key)
	if err != nil {
		return nil, false, fmt.Errorf("get annotation: %w", err)
	}
	return rec, ok, nil
}

// Set replaces the stored record.
func (s *AnnotationStore) Set(ctx context.Context, key string, rec record.Record) error {
	if err := s.repo.Set(ctx, s.contextPath, key, rec); err != nil {
		return fmt.Errorf("set annotation: %w", err)
	}
	return nil
}

// Contains reports whether a record is stored under key.
func (s *AnnotationStore) Contains(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}

// Delete removes the stored record; a missing key is not an error.
func (s *AnnotationStore) Delete(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, s.contextPath, key); err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	return nil
}

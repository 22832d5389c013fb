package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
)

// DefaultViewPermission is used for tile types that declare none.
const DefaultViewPermission = "zope2.View"

// Registry holds the registered tile types by name. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	types     map[string]tile.Type
	templates map[string]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		types:     make(map[string]tile.Type),
		templates: make(map[string]string),
	}
}

// Register validates t, fills permission defaults and adds it.
// Edit and delete permissions default to the add permission.
func (r *Registry) Register(t tile.Type) error {
	if t.Name == "" {
		return fmt.Errorf("%w: tile type name is required", domain.ErrInvalidTile)
	}
	if t.Title == "" {
		return fmt.Errorf("%w: tile type %q: title is required", domain.ErrInvalidTile, t.Name)
	}
	if t.AddPermission == "" {
		return fmt.Errorf("%w: tile type %q: add permission is required", domain.ErrInvalidTile, t.Name)
	}
	if t.EditPermission == "" {
		t.EditPermission = t.AddPermission
	}
	if t.DeletePermission == "" {
		t.DeletePermission = t.AddPermission
	}
	if t.ViewPermission == "" {
		t.ViewPermission = DefaultViewPermission
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[t.Name]; ok {
		return fmt.Errorf("tile type %q: %w", t.Name, domain.ErrAlreadyExists)
	}
	r.types[t.Name] = t
	return nil
}

// SetTemplate attaches an HTML template source to a registered type.
func (r *Registry) SetTemplate(name, src string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[name]; !ok {
		return fmt.Errorf("tile type %q: %w", name, domain.ErrTileTypeNotFound)
	}
	r.templates[name] = src
	return nil
}

// Template returns the template source of a type, if one was set.
func (r *Registry) Template(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.templates[name]
	return src, ok
}

// Lookup returns the tile type registered under name.
func (r *Registry) Lookup(name string) (tile.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	if !ok {
		return tile.Type{}, fmt.Errorf("tile type %q: %w", name, domain.ErrTileTypeNotFound)
	}
	return t, nil
}

// List returns all registered types sorted by name.
func (r *Registry) List() []tile.Type {
	r.mu.RLock()
	out := make([]tile.Type, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of registered types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

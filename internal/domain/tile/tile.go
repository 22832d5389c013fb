// Package tile models tiles: independently addressable units of embeddable
// content, their types, and the request they are rendered in.
package tile

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/tiles/internal/domain"
)

// Context is the content object a tile is placed on, addressed by its path
// ("/site/folder/page"; "" or "/" is the root).
type Context struct {
	Path string
}

// NormalizedPath returns the path with a leading slash and no trailing slash.
// The root normalizes to "".
func (c Context) NormalizedPath() string {
	p := strings.Trim(c.Path, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// Tile is one instance of a tile type placed on a context.
type Tile struct {
	// Name is the dotted tile type name, e.g. "example.news".
	Name string
	// ID identifies the instance; unique across all layouts of a context.
	ID      string
	Context Context
	Request *Request
}

// New creates a tile bound to a request. A nil request is replaced by an empty GET.
func New(name, id string, ctx Context, req *Request) *Tile {
	if req == nil {
		req = NewRequest("GET", nil)
	}
	return &Tile{Name: name, ID: id, Context: ctx, Request: req}
}

// Validate checks that the tile can be addressed.
func (t *Tile) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil tile", domain.ErrInvalidTile)
	}
	if t.Name == "" {
		return fmt.Errorf("%w: tile name is required", domain.ErrInvalidTile)
	}
	if t.Request == nil {
		return fmt.Errorf("%w: tile %s has no request", domain.ErrInvalidTile, t.Name)
	}
	return nil
}

func (t *Tile) String() string {
	if t.ID == "" {
		return t.Name
	}
	return t.Name + "/" + t.ID
}

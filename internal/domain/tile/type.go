package tile

import (
	"fmt"

	"github.com/kailas-cloud/tiles/internal/domain/schema"
)

// Type describes a kind of tile. Permission names are carried as metadata;
// enforcing them is the host's business.
type Type struct {
	Name        string
	Title       string
	Description string
	Icon        string

	AddPermission    string
	EditPermission   string
	DeletePermission string
	ViewPermission   string

	// Schema describes the configurable data. Nil means the tile has none.
	Schema *schema.Schema

	// Persistent tiles keep their data in durable storage on the context.
	Persistent bool
	// ESI tiles may be replaced by an edge-side include placeholder.
	ESI bool
	// Head marks ESI tiles that render <head> content.
	Head bool
}

func (t Type) String() string {
	return fmt.Sprintf("<TileType %s (%s)>", t.Name, t.Title)
}

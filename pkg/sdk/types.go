package tiles

import (
	"github.com/kailas-cloud/tiles/internal/domain/field"
	"github.com/kailas-cloud/tiles/internal/domain/record"
	"github.com/kailas-cloud/tiles/internal/domain/schema"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
	"github.com/kailas-cloud/tiles/internal/usecase/tileurl"
)

// Record is the data of one tile keyed by field name.
type Record = record.Record

// Tile is one placed tile instance.
type Tile = tile.Tile

// Request is the part of an inbound request tile data is read from.
type Request = tile.Request

// TileType describes a kind of tile.
type TileType = tile.Type

// Field describes one schema attribute.
type Field = field.Field

// FieldKind is the abstract kind of a field.
type FieldKind = field.Kind

// FieldOption configures a Field.
type FieldOption = field.Option

// Schema is an ordered set of fields.
type Schema = schema.Schema

// Breadcrumb is one step of the navigation path to a tile.
type Breadcrumb = tileurl.Breadcrumb

// Field kinds.
const (
	KindTextLine   = field.KindTextLine
	KindASCIILine  = field.KindASCIILine
	KindBytesLine  = field.KindBytesLine
	KindURI        = field.KindURI
	KindID         = field.KindID
	KindDottedName = field.KindDottedName
	KindChoice     = field.KindChoice
	KindText       = field.KindText
	KindASCII      = field.KindASCII
	KindBytes      = field.KindBytes
	KindInt        = field.KindInt
	KindFloat      = field.KindFloat
	KindBool       = field.KindBool
	KindTuple      = field.KindTuple
	KindList       = field.KindList
	KindDict       = field.KindDict
)

// Field options.
var (
	Title    = field.Title
	Required = field.Required
	Primary  = field.Primary
	Missing  = field.Missing
	Of       = field.Of
)

// NewField creates a named field.
func NewField(name string, kind FieldKind, opts ...FieldOption) (Field, error) {
	return field.New(name, kind, opts...)
}

// MustField is NewField that panics on error.
func MustField(name string, kind FieldKind, opts ...FieldOption) Field {
	return field.MustNew(name, kind, opts...)
}

// ValueOf creates the unnamed element field of a list, tuple or dict.
func ValueOf(kind FieldKind, opts ...FieldOption) Field {
	return field.Value(kind, opts...)
}

// NewSchema creates a schema from fields in declaration order.
func NewSchema(fields ...Field) (*Schema, error) {
	return schema.New(fields)
}

// MustSchema is NewSchema that panics on error.
func MustSchema(fields ...Field) *Schema {
	return schema.MustNew(fields)
}

// IgnoringQueryString returns a copy of s whose named fields are stripped
// from untrusted GET input.
func IgnoringQueryString(s *Schema, names ...string) (*Schema, error) {
	return schema.New(s.Fields(), schema.IgnoreQueryString(names...))
}

// NewRequest creates a request with the given method and form data.
func NewRequest(method string, form map[string]any) *Request {
	return tile.NewRequest(method, form)
}

// NewTile creates a tile on the context at contextPath. A nil request is
// replaced by an empty GET.
func NewTile(name, id, contextPath string, req *Request) *Tile {
	return tile.New(name, id, tile.Context{Path: contextPath}, req)
}

package tiles

import "github.com/kailas-cloud/tiles/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnsupportedFieldKind = domain.ErrUnsupportedFieldKind
	ErrDecode               = domain.ErrDecode
	ErrInvalidSchema        = domain.ErrInvalidSchema
	ErrInvalidTile          = domain.ErrInvalidTile
	ErrTileTypeNotFound     = domain.ErrTileTypeNotFound
	ErrAlreadyExists        = domain.ErrAlreadyExists
	ErrNotFound             = domain.ErrNotFound
)

// FieldError carries the name of the field a codec error is about.
type FieldError = domain.FieldError

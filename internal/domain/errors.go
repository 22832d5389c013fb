package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFieldKind signals a schema field kind the wire codec has no token for.
	ErrUnsupportedFieldKind = errors.New("unsupported field kind")
	// ErrDecode signals malformed input that cannot be coerced to the declared field type.
	ErrDecode = errors.New("decode error")
	// ErrInvalidSchema signals an invalid schema definition.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrInvalidTile signals a tile without enough identity to be addressed.
	ErrInvalidTile = errors.New("invalid tile")
	// ErrTileTypeNotFound signals an unregistered tile type name.
	ErrTileTypeNotFound = errors.New("tile type not found")
	// ErrAlreadyExists signals a duplicate registration.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// FieldError attaches the offending field name to a codec error.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Err.Error())
}

func (e *FieldError) Unwrap() error { return e.Err }

// NewFieldError wraps err with the field name.
func NewFieldError(name string, err error) error {
	return &FieldError{Field: name, Err: err}
}

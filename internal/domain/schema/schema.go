// Package schema holds ordered sets of field descriptors describing tile data.
package schema

import (
	"fmt"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/field"
)

// Schema is an ordered, immutable set of uniquely named fields.
type Schema struct {
	fields            []field.Field
	index             map[string]int
	ignoreQueryString []string
}

// Option configures a Schema at construction.
type Option func(*Schema)

// IgnoreQueryString names fields that are stripped from data read off the
// query string of an untrusted GET request.
func IgnoreQueryString(names ...string) Option {
	return func(s *Schema) {
		s.ignoreQueryString = append(s.ignoreQueryString, names...)
	}
}

// New validates and creates a Schema. Field order is preserved.
func New(fields []field.Field, opts ...Option) (*Schema, error) {
	s := &Schema{
		fields: make([]field.Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name() == "" {
			return nil, fmt.Errorf("%w: unnamed field", domain.ErrInvalidSchema)
		}
		if _, dup := s.index[f.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", domain.ErrInvalidSchema, f.Name())
		}
		s.index[f.Name()] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	for _, name := range s.ignoreQueryString {
		if _, ok := s.index[name]; !ok {
			return nil, fmt.Errorf("%w: ignore_querystring names unknown field %q", domain.ErrInvalidSchema, name)
		}
	}
	return s, nil
}

// MustNew calls New and panics on error.
func MustNew(fields []field.Field, opts ...Option) *Schema {
	s, err := New(fields, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []field.Field {
	if s == nil {
		return nil
	}
	out := make([]field.Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (field.Field, bool) {
	if s == nil {
		return field.Field{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return field.Field{}, false
	}
	return s.fields[i], true
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// IgnoreQueryString returns the names of fields stripped from untrusted GET input.
func (s *Schema) IgnoreQueryString() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.ignoreQueryString))
	copy(out, s.ignoreQueryString)
	return out
}

package field

import (
	"fmt"
	"regexp"
)

var nameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Field is an immutable value object describing one named, typed schema attribute.
type Field struct {
	name         string
	kind         Kind
	title        string
	required     bool
	primary      bool
	missingValue any
	valueType    *Field
}

// Option configures a Field at construction.
type Option func(*Field)

// Title sets a human readable title.
func Title(title string) Option {
	return func(f *Field) { f.title = title }
}

// Required marks the field as required.
func Required() Option {
	return func(f *Field) { f.required = true }
}

// Primary marks the field as primary content (large text or binary data)
// that never travels on a query string.
func Primary() Option {
	return func(f *Field) { f.primary = true }
}

// Missing sets the value used when the field is absent from input data.
// The value must already have the kind's Go type.
func Missing(v any) Option {
	return func(f *Field) { f.missingValue = v }
}

// Of sets the value type of a sequence or mapping field.
func Of(valueType Field) Option {
	return func(f *Field) {
		vt := valueType
		f.valueType = &vt
	}
}

// New validates and creates a Field.
// Name must be an identifier. Sequence kinds require a value type.
func New(name string, kind Kind, opts ...Option) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if !nameRegex.MatchString(name) {
		return Field{}, fmt.Errorf("field name %q must be an identifier", name)
	}
	if _, ok := kindNames[kind]; !ok {
		return Field{}, fmt.Errorf("invalid field kind %d for %q", int(kind), name)
	}

	f := Field{name: name, kind: kind}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}

	if kind.IsSequence() && f.valueType == nil {
		return Field{}, fmt.Errorf("sequence field %q requires a value type", name)
	}
	return f, nil
}

// MustNew calls New and panics on error.
func MustNew(name string, kind Kind, opts ...Option) Field {
	f, err := New(name, kind, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Value creates an unnamed descriptor used as the value type of a container field.
func Value(kind Kind, opts ...Option) Field {
	f := Field{kind: kind}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// Kind returns the abstract field kind.
func (f Field) Kind() Kind { return f.kind }

// Title returns the human readable title, falling back to the name.
func (f Field) Title() string {
	if f.title == "" {
		return f.name
	}
	return f.title
}

// Required reports whether the field is required.
func (f Field) Required() bool { return f.required }

// Primary reports whether the field is primary content.
func (f Field) Primary() bool { return f.primary }

// MissingValue returns the typed default used for absent data.
func (f Field) MissingValue() any { return f.missingValue }

// ValueType returns the element descriptor of a container field.
func (f Field) ValueType() (Field, bool) {
	if f.valueType == nil {
		return Field{}, false
	}
	return *f.valueType, true
}

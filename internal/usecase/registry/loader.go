package registry

import (
	"fmt"

	"github.com/kailas-cloud/tiles/internal/codec/querystring"
	"github.com/kailas-cloud/tiles/internal/config"
	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/field"
	"github.com/kailas-cloud/tiles/internal/domain/schema"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
)

// FromConfig builds a registry from the tiles section of the configuration.
func FromConfig(tiles []config.TileConfig) (*Registry, error) {
	r := New()
	for _, tc := range tiles {
		t, err := BuildType(tc)
		if err != nil {
			return nil, err
		}
		if err := r.Register(t); err != nil {
			return nil, err
		}
		if tc.Template != "" {
			if err := r.SetTemplate(t.Name, tc.Template); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// BuildType converts a tile declaration into a tile type.
// A declaration without fields yields a type without schema.
func BuildType(tc config.TileConfig) (tile.Type, error) {
	t := tile.Type{
		Name:             tc.Name,
		Title:            tc.Title,
		Description:      tc.Description,
		Icon:             tc.Icon,
		AddPermission:    tc.AddPermission,
		EditPermission:   tc.EditPermission,
		DeletePermission: tc.DeletePermission,
		ViewPermission:   tc.ViewPermission,
		Persistent:       tc.Persistent,
		ESI:              tc.ESI,
		Head:             tc.Head,
	}
	if len(tc.Fields) == 0 {
		if len(tc.IgnoreQueryString) > 0 {
			return tile.Type{}, fmt.Errorf("tile type %q: %w: ignore_querystring without fields",
				tc.Name, domain.ErrInvalidSchema)
		}
		return t, nil
	}

	fields := make([]field.Field, 0, len(tc.Fields))
	for _, fc := range tc.Fields {
		f, err := BuildField(fc)
		if err != nil {
			return tile.Type{}, fmt.Errorf("tile type %q: %w", tc.Name, err)
		}
		fields = append(fields, f)
	}
	s, err := schema.New(fields, schema.IgnoreQueryString(tc.IgnoreQueryString...))
	if err != nil {
		return tile.Type{}, fmt.Errorf("tile type %q: %w", tc.Name, err)
	}
	t.Schema = s
	return t, nil
}

// BuildField converts a field declaration into a field descriptor.
// The default value is coerced to the kind's Go type.
func BuildField(fc config.FieldConfig) (field.Field, error) {
	kind, err := field.ParseKind(fc.Kind)
	if err != nil {
		return field.Field{}, fmt.Errorf("field %q: %w: %w", fc.Name, domain.ErrInvalidSchema, err)
	}

	opts := []field.Option{field.Title(fc.Title)}
	if fc.Required {
		opts = append(opts, field.Required())
	}
	if fc.Primary {
		opts = append(opts, field.Primary())
	}
	if fc.ValueType != "" {
		vk, err := field.ParseKind(fc.ValueType)
		if err != nil {
			return field.Field{}, fmt.Errorf("field %q value_type: %w: %w", fc.Name, domain.ErrInvalidSchema, err)
		}
		opts = append(opts, field.Of(field.Value(vk)))
	}

	f, err := field.New(fc.Name, kind, opts...)
	if err != nil {
		return field.Field{}, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}
	if fc.Default == nil {
		return f, nil
	}

	def, err := querystring.Coerce(f, fc.Default)
	if err != nil {
		return field.Field{}, fmt.Errorf("field %q default: %w", fc.Name, err)
	}
	return field.New(fc.Name, kind, append(opts, field.Missing(def))...)
}

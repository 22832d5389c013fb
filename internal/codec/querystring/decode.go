package querystring

import (
	"fmt"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/field"
	"github.com/kailas-cloud/tiles/internal/domain/record"
	"github.com/kailas-cloud/tiles/internal/domain/schema"
)

type decodeConfig struct {
	fillMissing    bool
	includePrimary bool
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

// FillMissing controls whether absent fields get their missing value.
// Enabled by default.
func FillMissing(fill bool) DecodeOption {
	return func(c *decodeConfig) { c.fillMissing = fill }
}

// IncludePrimary controls whether primary fields are decoded.
// Disabled by default; primary content never travels in the query string.
func IncludePrimary(include bool) DecodeOption {
	return func(c *decodeConfig) { c.includePrimary = include }
}

// Decode coerces raw form data into a record following s.
// Keys not named by the schema are dropped. A scalar field given an empty
// sequence is treated as absent; an explicit nil is left out of the result
// without a missing value. Any coercion failure aborts the whole
// decode with an error wrapping domain.ErrDecode.
func Decode(raw map[string]any, s *schema.Schema, opts ...DecodeOption) (record.Record, error) {
	cfg := decodeConfig{fillMissing: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := make(record.Record, s.Len())
	for _, f := range s.Fields() {
		name := f.Name()
		if f.Primary() && !cfg.includePrimary {
			continue
		}
		if err := checkSupported(f); err != nil {
			return nil, domain.NewFieldError(name, err)
		}

		v, ok := raw[name]
		if ok && !f.Kind().IsSequence() {
			if items, isSeq := toSlice(v); isSeq && len(items) == 0 {
				ok = false
			}
		}
		if !ok {
			if cfg.fillMissing {
				out[name] = f.MissingValue()
			}
			continue
		}
		if v == nil {
			continue
		}

		c, err := Coerce(f, v)
		if err != nil {
			return nil, domain.NewFieldError(name, err)
		}
		out[name] = c
	}
	return out, nil
}

// checkSupported fails for kinds the wire format cannot carry, whether or not
// a value is present.
func checkSupported(f field.Field) error {
	if _, err := field.TokenFor(f.Kind()); err != nil {
		return err
	}
	if !f.Kind().IsSequence() {
		return nil
	}
	vt, ok := f.ValueType()
	if !ok {
		return fmt.Errorf("%w: sequence without value type", domain.ErrUnsupportedFieldKind)
	}
	_, err := field.TokenFor(vt.Kind())
	return err
}

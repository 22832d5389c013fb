package querystring

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/field"
	"github.com/kailas-cloud/tiles/internal/domain/schema"
)

// Pair is one key=value parameter before percent-encoding.
type Pair struct {
	Key   string
	Value string
}

// Encode serializes rec as a query string following s.
// Fields are emitted in schema order; primary fields, fields named in
// ignore, absent fields and nil values are skipped.
func Encode(rec map[string]any, s *schema.Schema, ignore ...string) (string, error) {
	pairs, err := EncodePairs(rec, s, ignore...)
	if err != nil {
		return "", err
	}
	return FormatPairs(pairs), nil
}

// EncodePairs is Encode without the final percent-encoding step.
func EncodePairs(rec map[string]any, s *schema.Schema, ignore ...string) ([]Pair, error) {
	var pairs []Pair
	for _, f := range s.Fields() {
		name := f.Name()
		if f.Primary() || slices.Contains(ignore, name) {
			continue
		}
		value, ok := rec[name]
		if !ok {
			continue
		}

		encoded, err := encodedName(f)
		if err != nil {
			return nil, domain.NewFieldError(name, err)
		}
		if value == nil {
			continue
		}

		items := []any{value}
		if f.Kind().IsSequence() {
			if seq, isSeq := toSlice(value); isSeq {
				items = seq
			}
		}
		for _, item := range items {
			p, err := itemPairs(encoded, item)
			if err != nil {
				return nil, domain.NewFieldError(name, err)
			}
			pairs = append(pairs, p...)
		}
	}
	return pairs, nil
}

// FormatPairs percent-encodes pairs in order and joins them with '&'.
func FormatPairs(pairs []Pair) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// encodedName builds "name[:value-token][:container-token]".
func encodedName(f field.Field) (string, error) {
	token, err := field.TokenFor(f.Kind())
	if err != nil {
		return "", err
	}
	name := f.Name()
	if !f.Kind().IsSequence() {
		if token != field.TokenNone {
			name += ":" + string(token)
		}
		return name, nil
	}

	vt, ok := f.ValueType()
	if !ok {
		return "", fmt.Errorf("%w: sequence without value type", domain.ErrUnsupportedFieldKind)
	}
	vtoken, err := field.TokenFor(vt.Kind())
	if err != nil {
		return "", err
	}
	if vtoken != field.TokenNone {
		name += ":" + string(vtoken)
	}
	return name + ":" + string(token), nil
}

func itemPairs(encoded string, item any) ([]Pair, error) {
	if m, ok := asMap(item); ok {
		return mappingPairs(encoded, m)
	}
	s, err := scalarString(item)
	if err != nil {
		return nil, err
	}
	return []Pair{{Key: encoded, Value: s}}, nil
}

// mappingPairs flattens one mapping into "prefix.key[:type][:list]:postfix"
// parameters, where prefix and postfix come from splitting the encoded field
// name at its first ':'. Keys are emitted in sorted order.
func mappingPairs(encoded string, m map[string]any) ([]Pair, error) {
	prefix, postfix, ok := strings.Cut(encoded, ":")
	if !ok {
		return nil, fmt.Errorf("%w: mapping value needs a record token", domain.ErrUnsupportedFieldKind)
	}
	postfix = strings.ReplaceAll(postfix, "record:list", "records")

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]Pair, 0, len(m))
	for _, k := range keys {
		v := m[k]
		if v == nil {
			continue
		}
		if items, isSeq := toSlice(v); isSeq {
			for _, item := range items {
				s, err := scalarString(item)
				if err != nil {
					return nil, fmt.Errorf("key %q: %w", k, err)
				}
				pairs = append(pairs, Pair{
					Key:   prefix + "." + k + guessToken(item) + ":list:" + postfix,
					Value: s,
				})
			}
			continue
		}
		s, err := scalarString(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		pairs = append(pairs, Pair{Key: prefix + "." + k + guessToken(v) + ":" + postfix, Value: s})
	}
	return pairs, nil
}

// guessToken picks a converter token for a value inside a mapping, where no
// schema describes the type.
func guessToken(v any) string {
	switch v.(type) {
	case bool:
		return ":" + string(field.TokenBoolean)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return ":int"
	case float32, float64:
		return ":" + string(field.TokenFloat)
	}
	return ""
}

func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case bool:
		if t {
			return "1", nil
		}
		return "", nil
	case json.Number:
		return t.String(), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	if s, ok := numberString(v); ok {
		return s, nil
	}
	if _, ok := asMap(v); ok {
		return "", fmt.Errorf("%w: nested mapping cannot be encoded", domain.ErrUnsupportedFieldKind)
	}
	if _, ok := toSlice(v); ok {
		return "", fmt.Errorf("%w: nested sequence cannot be encoded", domain.ErrUnsupportedFieldKind)
	}
	return fmt.Sprint(v), nil
}

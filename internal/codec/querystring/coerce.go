package querystring

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/field"
	"github.com/kailas-cloud/tiles/internal/domain/record"
)

// Coerce converts v to the Go type of the field's kind.
// Sequence elements are converted to the value type one by one; a sequence
// given to a scalar field is unwrapped to its first element. Values already
// of the target type are returned unchanged.
func Coerce(f field.Field, v any) (any, error) {
	k := f.Kind()
	if k.IsSequence() {
		vt, ok := f.ValueType()
		if !ok {
			return nil, fmt.Errorf("%w: sequence without value type", domain.ErrUnsupportedFieldKind)
		}
		items, isSeq := toSlice(v)
		if !isSeq {
			items = []any{v}
		}
		out := make([]any, 0, len(items))
		for i, item := range items {
			if hasKindType(vt.Kind(), item) {
				out = append(out, item)
				continue
			}
			c, err := Coerce(vt, item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, c)
		}
		return out, nil
	}

	if items, isSeq := toSlice(v); isSeq {
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: empty sequence for %s value", domain.ErrDecode, k)
		}
		v = items[0]
	}
	if hasKindType(k, v) {
		return v, nil
	}
	return convertScalar(k, v)
}

// hasKindType reports whether v already has the in-memory type of kind k.
// Text must also be valid UTF-8.
func hasKindType(k field.Kind, v any) bool {
	var ok bool
	switch {
	case k.IsBytes():
		_, ok = v.([]byte)
	case k.IsText():
		var s string
		s, ok = v.(string)
		ok = ok && utf8.ValidString(s)
	case k == field.KindInt:
		_, ok = v.(int64)
	case k == field.KindFloat:
		_, ok = v.(float64)
	case k == field.KindBool:
		_, ok = v.(bool)
	case k.IsSequence():
		_, ok = v.([]any)
	case k.IsMapping():
		_, ok = v.(map[string]any)
	}
	return ok
}

func convertScalar(k field.Kind, v any) (any, error) {
	switch {
	case k.IsBytes():
		if s, ok := v.(string); ok {
			return []byte(s), nil
		}
		s, err := toText(v)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case k.IsText():
		return toText(v)
	case k == field.KindInt:
		return toInt(v)
	case k == field.KindFloat:
		return toFloat(v)
	case k == field.KindBool:
		return toBool(v)
	case k.IsMapping():
		return toMap(v)
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFieldKind, k)
}

func toText(v any) (string, error) {
	switch t := v.(type) {
	case string:
		if !utf8.ValidString(t) {
			return "", fmt.Errorf("%w: invalid UTF-8", domain.ErrDecode)
		}
		return t, nil
	case []byte:
		if !utf8.Valid(t) {
			return "", fmt.Errorf("%w: invalid UTF-8", domain.ErrDecode)
		}
		return string(t), nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "True", nil
		}
		return "False", nil
	}
	if s, ok := numberString(v); ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: cannot convert %T to text", domain.ErrDecode, v)
}

func toInt(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case float64:
		return truncate(t)
	case float32:
		return truncate(float64(t))
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", domain.ErrDecode, t.String())
		}
		return truncate(f)
	case []byte:
		s, err := toText(t)
		if err != nil {
			return 0, err
		}
		return toInt(s)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", domain.ErrDecode, t)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: cannot convert %T to integer", domain.ErrDecode, v)
}

func truncate(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %v out of integer range", domain.ErrDecode, f)
	}
	return int64(f), nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", domain.ErrDecode, t.String())
		}
		return f, nil
	case []byte:
		s, err := toText(t)
		if err != nil {
			return 0, err
		}
		return toFloat(s)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a float", domain.ErrDecode, t)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: cannot convert %T to float", domain.ErrDecode, v)
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return parseBool(t), nil
	case []byte:
		s, err := toText(t)
		if err != nil {
			return false, err
		}
		return parseBool(s), nil
	case int64:
		return t != 0, nil
	case int:
		return t != 0, nil
	case float64:
		return t != 0, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a number", domain.ErrDecode, t.String())
		}
		return f != 0, nil
	}
	return false, fmt.Errorf("%w: cannot convert %T to boolean", domain.ErrDecode, v)
}

// parseBool treats the empty string and the spelled-out false values as false,
// everything else as true. Encode writes false as "".
func parseBool(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "False", "false", "0", "off":
		return false
	}
	return true
}

func toMap(v any) (map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case record.Record:
		return map[string]any(t), nil
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: cannot convert %T to mapping", domain.ErrDecode, v)
}

// asMap reports whether v is a string-keyed mapping.
func asMap(v any) (map[string]any, bool) {
	switch v.(type) {
	case map[string]any, record.Record, map[string]string:
		m, err := toMap(v)
		return m, err == nil
	}
	return nil, false
}

// toSlice returns the elements of a sequence value. Byte slices and strings
// are scalars.
func toSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil, []byte, string:
		return nil, false
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func numberString(v any) (string, bool) {
	switch t := v.(type) {
	case int64:
		return strconv.FormatInt(t, 10), true
	case int:
		return strconv.Itoa(t), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	}
	return "", false
}

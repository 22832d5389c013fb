package annotation

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/kailas-cloud/tiles/internal/domain/record"
)

// recordRow is the JSON representation of a record stored in a hash field.
// Byte values travel base64-encoded and are listed in Bytes.
type recordRow struct {
	Data  map[string]any `json:"data"`
	Bytes []string       `json:"bytes,omitempty"`
}

func marshalRecord(rec record.Record) (string, error) {
	row := recordRow{Data: make(map[string]any, len(rec))}
	for k, v := range rec {
		if b, ok := v.([]byte); ok {
			row.Data[k] = base64.StdEncoding.EncodeToString(b)
			row.Bytes = append(row.Bytes, k)
			continue
		}
		row.Data[k] = v
	}
	slices.Sort(row.Bytes)

	data, err := json.Marshal(row)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalRecord(raw string) (record.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var row recordRow
	if err := dec.Decode(&row); err != nil {
		return nil, err
	}

	rec := make(record.Record, len(row.Data))
	for k, v := range row.Data {
		rec[k] = normalizeNumbers(v)
	}
	for _, k := range row.Bytes {
		s, ok := rec[k].(string)
		if !ok {
			continue
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("bytes value %s: %w", k, err)
		}
		rec[k] = b
	}
	return rec, nil
}

// normalizeNumbers turns json.Number into int64 when integral, float64 otherwise.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalizeNumbers(t[k])
		}
		return t
	}
	return v
}

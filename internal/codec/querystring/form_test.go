package querystring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/field"
	"github.com/kailas-cloud/tiles/internal/domain/schema"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{"plain", "title=Hello+World", map[string]any{"title": "Hello World"}},
		{"repeated plain", "a=1&a=2", map[string]any{"a": []any{"1", "2"}}},
		{"int", "n%3Along=5", map[string]any{"n": int64(5)}},
		{"list", "w%3Alist=%C3%A4", map[string]any{"w": []any{"ä"}}},
		{"bool list", "f%3Aboolean%3Alist=&f%3Aboolean%3Alist=1", map[string]any{"f": []any{false, true}}},
		{"text newlines", "b%3Atext=a%0D%0Ab", map[string]any{"b": "a\nb"}},
		{"ignore empty", "x%3Aignore_empty=&y=1", map[string]any{"y": "1"}},
		{"unknown token kept", "a%3Aweird=1", map[string]any{"a:weird": "1"}},
		{"no value", "flag", map[string]any{"flag": ""}},
		{"unconvertible int kept raw", "n%3Aint=abc", map[string]any{"n": "abc"}},
		{"empty required kept raw", "x%3Arequired=", map[string]any{"x": ""}},
		{
			"record",
			"r.a%3Arecord=x&r.n%3Aint%3Arecord=2&r.l%3Alist%3Arecord=1&r.l%3Alist%3Arecord=2",
			map[string]any{"r": map[string]any{"a": "x", "n": int64(2), "l": []any{"1", "2"}}},
		},
		{
			"records split on repeat",
			"q.i%3Arecords=a&q.o%3Arecords=b&q.i%3Arecords=c",
			map[string]any{"q": []any{
				map[string]any{"i": "a", "o": "b"},
				map[string]any{"i": "c"},
			}},
		},
		{
			"records list attribute",
			"q.v%3Alist%3Arecords=1&q.v%3Alist%3Arecords=2",
			map[string]any{"q": []any{map[string]any{"v": []any{"1", "2"}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuery(tt.raw)
			if err != nil {
				t.Fatalf("ParseQuery: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseQuery = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseQuery_Errors(t *testing.T) {
	for _, raw := range []string{"a=%zz", "%zz=1"} {
		if _, err := ParseQuery(raw); !errors.Is(err, domain.ErrDecode) {
			t.Errorf("ParseQuery(%q): expected ErrDecode, got %v", raw, err)
		}
	}
}

func TestParseQuery_InvalidUTF8FailsDecode(t *testing.T) {
	s := schema.MustNew([]field.Field{field.MustNew("title", field.KindTextLine)})

	form, err := ParseQuery("title=%FF%FE")
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if _, err := Decode(form, s); !errors.Is(err, domain.ErrDecode) {
		t.Errorf("Decode: expected ErrDecode, got %v", err)
	}
}

func TestParseQuery_BadTypedValueFailsDecode(t *testing.T) {
	s := schema.MustNew([]field.Field{
		field.MustNew("title", field.KindTextLine),
		field.MustNew("count", field.KindInt),
	})

	form, err := ParseQuery("title=Hi&count%3Along=abc")
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if _, err := Decode(form, s); !errors.Is(err, domain.ErrDecode) {
		t.Errorf("Decode: expected ErrDecode, got %v", err)
	}
}

func TestParseRequest_MergesBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/x?a=1", strings.NewReader("b%3Aint=2"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	got, err := ParseRequest(req)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	want := map[string]any{"a": "1", "b": int64(2)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseRequest = %#v, want %#v", got, want)
	}
}

func TestParseRequest_IgnoresBodyOnGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?a=1", strings.NewReader("b=2"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got, err := ParseRequest(req)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if _, ok := got["b"]; ok {
		t.Errorf("GET body should be ignored, got %#v", got)
	}
}

func TestRoundTrip(t *testing.T) {
	s := schema.MustNew([]field.Field{
		field.MustNew("query", field.KindList, field.Of(field.Value(field.KindDict))),
		field.MustNew("title", field.KindTextLine),
		field.MustNew("body", field.KindText),
		field.MustNew("raw", field.KindBytes),
		field.MustNew("count", field.KindInt),
		field.MustNew("ratio", field.KindFloat),
		field.MustNew("on", field.KindBool),
		field.MustNew("off", field.KindBool),
		field.MustNew("words", field.KindList, field.Of(field.Value(field.KindTextLine))),
		field.MustNew("nums", field.KindTuple, field.Of(field.Value(field.KindInt))),
		field.MustNew("flags", field.KindList, field.Of(field.Value(field.KindBool))),
		field.MustNew("cfg", field.KindDict),
	})
	rec := map[string]any{
		"query": []any{
			map[string]any{
				"i": "Subject",
				"o": "plone.app.querystring.operation.selection.any",
				"v": []any{"äüö"},
			},
			map[string]any{"i": "path", "o": "op", "v": "/news", "w": int64(2), "x": true},
		},
		"title": "Hello World & more",
		"body":  "line one\nline two",
		"raw":   []byte("bin"),
		"count": int64(-3),
		"ratio": 1.5,
		"on":    true,
		"off":   false,
		"words": []any{"ä", "ö"},
		"nums":  []any{int64(1), int64(2)},
		"flags": []any{false, true},
		"cfg":   map[string]any{"a": "x", "f": 0.25},
	}

	encoded, err := Encode(rec, s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	form, err := ParseQuery(encoded)
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	got, err := Decode(form, s)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for name, want := range rec {
		if !reflect.DeepEqual(got[name], want) {
			t.Errorf("%s: got %#v, want %#v", name, got[name], want)
		}
	}
}

func TestRoundTrip_Deterministic(t *testing.T) {
	s := querySchema()
	rec := map[string]any{"query": []any{map[string]any{"z": "1", "a": "2", "m": "3"}}}
	first, err := Encode(rec, s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for range 10 {
		again, _ := Encode(rec, s)
		if again != first {
			t.Fatalf("Encode not deterministic: %q vs %q", again, first)
		}
	}
}

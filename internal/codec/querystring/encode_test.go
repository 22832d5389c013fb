package querystring

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/field"
	"github.com/kailas-cloud/tiles/internal/domain/schema"
)

func querySchema() *schema.Schema {
	return schema.MustNew([]field.Field{
		field.MustNew("query", field.KindList, field.Of(field.Value(field.KindDict))),
		field.MustNew("title", field.KindTextLine),
	})
}

func TestEncode_ListOfMappings(t *testing.T) {
	rec := map[string]any{
		"title": "Hello World",
		"query": []any{map[string]any{
			"i": "Subject",
			"o": "plone.app.querystring.operation.selection.any",
			"v": []any{"äüö"},
		}},
	}

	got, err := Encode(rec, querySchema())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "query.i%3Arecords=Subject" +
		"&query.o%3Arecords=plone.app.querystring.operation.selection.any" +
		"&query.v%3Alist%3Arecords=%C3%A4%C3%BC%C3%B6" +
		"&title=Hello+World"
	if got != want {
		t.Errorf("Encode =\n%s\nwant\n%s", got, want)
	}
}

func TestEncode_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		field field.Field
		value any
		want  string
	}{
		{"text line", field.MustNew("title", field.KindTextLine), "a b", "title=a+b"},
		{"text", field.MustNew("body", field.KindText), "a\nb", "body%3Atext=a%0Ab"},
		{"int", field.MustNew("count", field.KindInt), int64(5), "count%3Along=5"},
		{"plain int", field.MustNew("count", field.KindInt), 7, "count%3Along=7"},
		{"float", field.MustNew("ratio", field.KindFloat), 0.5, "ratio%3Afloat=0.5"},
		{"bool true", field.MustNew("flag", field.KindBool), true, "flag%3Aboolean=1"},
		{"bool false", field.MustNew("flag", field.KindBool), false, "flag%3Aboolean="},
		{"bytes", field.MustNew("raw", field.KindBytesLine), []byte("xy"), "raw=xy"},
		{"choice", field.MustNew("color", field.KindChoice), "red", "color=red"},
		{
			"text list", field.MustNew("words", field.KindList, field.Of(field.Value(field.KindTextLine))),
			[]any{"ä", "ö"}, "words%3Alist=%C3%A4&words%3Alist=%C3%B6",
		},
		{
			"string slice", field.MustNew("words", field.KindList, field.Of(field.Value(field.KindTextLine))),
			[]string{"a", "b"}, "words%3Alist=a&words%3Alist=b",
		},
		{
			"int tuple", field.MustNew("nums", field.KindTuple, field.Of(field.Value(field.KindInt))),
			[]any{int64(1), int64(2)}, "nums%3Along%3Atuple=1&nums%3Along%3Atuple=2",
		},
		{
			"bool list", field.MustNew("flags", field.KindList, field.Of(field.Value(field.KindBool))),
			[]any{true, false}, "flags%3Aboolean%3Alist=1&flags%3Aboolean%3Alist=",
		},
		{
			"mapping", field.MustNew("cfg", field.KindDict),
			map[string]any{"b": int64(2), "a": "x", "c": true, "d": 0.5},
			"cfg.a%3Arecord=x&cfg.b%3Aint%3Arecord=2&cfg.c%3Aboolean%3Arecord=1&cfg.d%3Afloat%3Arecord=0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := schema.MustNew([]field.Field{tt.field})
			got, err := Encode(map[string]any{tt.field.Name(): tt.value}, s)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if got != tt.want {
				t.Errorf("Encode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncode_Skips(t *testing.T) {
	s := schema.MustNew([]field.Field{
		field.MustNew("body", field.KindText, field.Primary()),
		field.MustNew("title", field.KindTextLine),
		field.MustNew("secret", field.KindTextLine),
		field.MustNew("note", field.KindTextLine),
	})

	got, err := Encode(map[string]any{
		"body":   "<p>large</p>",
		"title":  "t",
		"secret": "s",
		"note":   nil,
		"extra":  "not in schema",
	}, s, "secret")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got != "title=t" {
		t.Errorf("Encode = %q, want %q", got, "title=t")
	}
}

func TestEncode_PrimaryOnly(t *testing.T) {
	s := schema.MustNew([]field.Field{field.MustNew("body", field.KindText, field.Primary())})
	got, err := Encode(map[string]any{"body": "x"}, s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got != "" {
		t.Errorf("Encode = %q, want empty", got)
	}
}

func TestEncode_EmptyInputs(t *testing.T) {
	got, err := Encode(nil, querySchema())
	if err != nil || got != "" {
		t.Errorf("Encode(nil) = %q, %v", got, err)
	}
	got, err = Encode(map[string]any{"title": "x"}, nil)
	if err != nil || got != "" {
		t.Errorf("Encode(nil schema) = %q, %v", got, err)
	}
}

func TestEncode_UnsupportedKind(t *testing.T) {
	s := schema.MustNew([]field.Field{field.MustNew("when", field.KindDatetime)})
	_, err := Encode(map[string]any{"when": nil}, s)
	if !errors.Is(err, domain.ErrUnsupportedFieldKind) {
		t.Fatalf("expected ErrUnsupportedFieldKind, got %v", err)
	}
	var fe *domain.FieldError
	if !errors.As(err, &fe) || fe.Field != "when" {
		t.Errorf("expected FieldError for %q, got %v", "when", err)
	}
}

func TestEncode_UnsupportedValueType(t *testing.T) {
	s := schema.MustNew([]field.Field{
		field.MustNew("days", field.KindList, field.Of(field.Value(field.KindDate))),
	})
	_, err := Encode(map[string]any{"days": []any{"2024-01-01"}}, s)
	if !errors.Is(err, domain.ErrUnsupportedFieldKind) {
		t.Fatalf("expected ErrUnsupportedFieldKind, got %v", err)
	}
}

func TestEncode_NestedMapping(t *testing.T) {
	s := schema.MustNew([]field.Field{field.MustNew("cfg", field.KindDict)})
	_, err := Encode(map[string]any{"cfg": map[string]any{"inner": map[string]any{"a": "b"}}}, s)
	if !errors.Is(err, domain.ErrUnsupportedFieldKind) {
		t.Fatalf("expected ErrUnsupportedFieldKind, got %v", err)
	}
}

func TestFormatPairs_KeepsOrder(t *testing.T) {
	got := FormatPairs([]Pair{{"b", "1"}, {"a", "2"}, {"b", "3"}})
	if got != "b=1&a=2&b=3" {
		t.Errorf("FormatPairs = %q", got)
	}
}

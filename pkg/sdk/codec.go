package tiles

import (
	"github.com/kailas-cloud/tiles/internal/codec/querystring"
	"github.com/kailas-cloud/tiles/internal/esi"
)

// DecodeOption configures Decode.
type DecodeOption = querystring.DecodeOption

// Decode options.
var (
	FillMissing    = querystring.FillMissing
	IncludePrimary = querystring.IncludePrimary
)

// Encode serializes rec as a query string in schema order. Primary fields
// are never encoded.
func Encode(rec Record, s *Schema) (string, error) {
	return querystring.Encode(rec, s)
}

// Decode coerces form data into a record following s.
func Decode(form map[string]any, s *Schema, opts ...DecodeOption) (Record, error) {
	return querystring.Decode(form, s, opts...)
}

// ParseQuery parses a query string with type-tagged keys into form data.
func ParseQuery(raw string) (map[string]any, error) {
	return querystring.ParseQuery(raw)
}

// SubstituteESILinks replaces ESI placeholder links in a rendered page with
// esi:include tags and declares the esi namespace on the html element.
func SubstituteESILinks(rendered string) string {
	return esi.SubstituteLinks(rendered)
}

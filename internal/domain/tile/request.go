package tile

import (
	"net/http"
	"strings"

	"github.com/kailas-cloud/tiles/internal/domain/record"
)

// Request headers understood by the tile layer.
const (
	HeaderPersistent = "X-Tile-Persistent"
	HeaderTileURL    = "X-Tile-Url"
	HeaderSubRequest = "X-Tile-Subrequest"
	HeaderESI        = "X-ESI-Enabled"
)

// TiledataParam carries a whole pre-encoded JSON record in the form data.
const TiledataParam = "_tiledata"

// Request is the narrow view of an inbound request the tile layer consumes.
// It lives for one request/response cycle and is not safe for concurrent use.
type Request struct {
	Method string
	// Form holds query and form data, already marshalled by type token.
	Form map[string]any
	// URL is the request URL without query string.
	URL         string
	QueryString string
	// SubRequest marks trusted internal composition.
	SubRequest bool
	// PersistentOverride is the raw X-Tile-Persistent header value.
	PersistentOverride string
	// ESI reports whether the edge asked for ESI placeholders.
	ESI bool

	annotations map[string]record.Record
}

// NewRequest creates a request with the given method and form data.
func NewRequest(method string, form map[string]any) *Request {
	if form == nil {
		form = map[string]any{}
	}
	return &Request{Method: method, Form: form}
}

// IsGet reports whether the request is idempotent and read-only.
// An unset method counts as GET.
func (r *Request) IsGet() bool {
	return r.Method == "" || strings.EqualFold(r.Method, http.MethodGet) || strings.EqualFold(r.Method, http.MethodHead)
}

// Annotations returns the per-request scratchpad, created on first use.
func (r *Request) Annotations() map[string]record.Record {
	if r.annotations == nil {
		r.annotations = make(map[string]record.Record)
	}
	return r.annotations
}

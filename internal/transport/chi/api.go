package chi

import (
	"github.com/kailas-cloud/tiles/internal/domain/field"
	"github.com/kailas-cloud/tiles/internal/domain/record"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
	"github.com/kailas-cloud/tiles/internal/usecase/tileurl"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest           = "bad_request"
	codeUnauthorized         = "unauthorized"
	codeNotFound             = "not_found"
	codeTileTypeNotFound     = "tile_type_not_found"
	codeInvalidTile          = "invalid_tile"
	codeDecodeError          = "decode_error"
	codeConflict             = "conflict"
	codeMethodNotAllowed     = "method_not_allowed"
	codeUnsupportedFieldKind = "unsupported_field_kind"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type fieldResponse struct {
	Name      string         `json:"name"`
	Kind      string         `json:"kind"`
	Title     string         `json:"title"`
	Required  bool           `json:"required,omitempty"`
	Primary   bool           `json:"primary,omitempty"`
	Default   any            `json:"default,omitempty"`
	ValueType *fieldResponse `json:"value_type,omitempty"`
}

type permissionsResponse struct {
	Add    string `json:"add"`
	Edit   string `json:"edit"`
	Delete string `json:"delete"`
	View   string `json:"view"`
}

type tileTypeResponse struct {
	Name              string              `json:"name"`
	Title             string              `json:"title"`
	Description       string              `json:"description,omitempty"`
	Icon              string              `json:"icon,omitempty"`
	Persistent        bool                `json:"persistent"`
	ESI               bool                `json:"esi"`
	Head              bool                `json:"head"`
	Permissions       permissionsResponse `json:"permissions"`
	Fields            []fieldResponse     `json:"fields,omitempty"`
	IgnoreQueryString []string            `json:"ignore_querystring,omitempty"`
}

type tileTypeListResponse struct {
	Items []tileTypeResponse `json:"items"`
	Total int                `json:"total"`
}

type dataResponse struct {
	Data record.Record `json:"data"`
	URL  string        `json:"url"`
}

type urlResponse struct {
	URL         string               `json:"url"`
	Breadcrumbs []tileurl.Breadcrumb `json:"breadcrumbs"`
}

type addTileResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type storedTilesResponse struct {
	Context string   `json:"context"`
	IDs     []string `json:"ids"`
}

func tileTypeToResponse(t tile.Type) tileTypeResponse {
	resp := tileTypeResponse{
		Name:        t.Name,
		Title:       t.Title,
		Description: t.Description,
		Icon:        t.Icon,
		Persistent:  t.Persistent,
		ESI:         t.ESI,
		Head:        t.Head,
		Permissions: permissionsResponse{
			Add:    t.AddPermission,
			Edit:   t.EditPermission,
			Delete: t.DeletePermission,
			View:   t.ViewPermission,
		},
		IgnoreQueryString: t.Schema.IgnoreQueryString(),
	}
	for _, f := range t.Schema.Fields() {
		resp.Fields = append(resp.Fields, fieldToResponse(f))
	}
	return resp
}

func fieldToResponse(f field.Field) fieldResponse {
	resp := fieldResponse{
		Name:     f.Name(),
		Kind:     f.Kind().String(),
		Title:    f.Title(),
		Required: f.Required(),
		Primary:  f.Primary(),
		Default:  f.MissingValue(),
	}
	if vt, ok := f.ValueType(); ok {
		v := fieldToResponse(vt)
		resp.ValueType = &v
	}
	return resp
}

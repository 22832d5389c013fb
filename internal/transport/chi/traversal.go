package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tiles/internal/codec/querystring"
	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/record"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
	"github.com/kailas-cloud/tiles/internal/esi"
	logpkg "github.com/kailas-cloud/tiles/internal/logger"
	"github.com/kailas-cloud/tiles/internal/metrics"
)

// Traversal names with special meaning.
const (
	addTileName = "add-tile"
	listName    = "tiles"

	viewData = "data"
	viewURL  = "url"
)

const maxJSONBody = 10 << 20

type targetKind int

const (
	targetTile targetKind = iota
	targetAdd
	targetList
)

// target is a parsed traversal path:
// /<context>/@@<tile>[/<id>][/@@<view>], /<context>/@@add-tile/<tile> or /<context>/@@tiles.
type target struct {
	kind        targetKind
	contextPath string
	name        string
	id          string
	view        string
}

// parseTraversal splits an escaped URL path into a traversal target.
func parseTraversal(escapedPath string) (target, error) {
	var segs []string
	for _, raw := range strings.Split(strings.Trim(escapedPath, "/"), "/") {
		if raw == "" {
			continue
		}
		seg, err := url.PathUnescape(raw)
		if err != nil {
			return target{}, fmt.Errorf("%w: bad path segment %q", domain.ErrDecode, raw)
		}
		segs = append(segs, seg)
	}

	i := 0
	for i < len(segs) && !strings.HasPrefix(segs[i], "@@") {
		i++
	}
	if i == len(segs) || segs[i] == "@@" {
		return target{}, fmt.Errorf("no tile in path: %w", domain.ErrNotFound)
	}
	tg := target{contextPath: "/" + strings.Join(segs[:i], "/"), name: segs[i][2:]}
	rest := segs[i+1:]

	switch tg.name {
	case addTileName:
		if len(rest) != 1 {
			return target{}, fmt.Errorf("add-tile needs a tile type: %w", domain.ErrNotFound)
		}
		tg.kind, tg.name = targetAdd, rest[0]
		return tg, nil
	case listName:
		if len(rest) != 0 {
			return target{}, fmt.Errorf("unexpected path after @@tiles: %w", domain.ErrNotFound)
		}
		tg.kind, tg.name = targetList, ""
		return tg, nil
	}

	if len(rest) > 0 && !strings.HasPrefix(rest[0], "@@") {
		tg.id, rest = rest[0], rest[1:]
	}
	// views may be named with or without @@
	if len(rest) > 0 {
		tg.view, rest = strings.TrimPrefix(rest[0], "@@"), rest[1:]
	}
	if len(rest) > 0 {
		return target{}, fmt.Errorf("unexpected path after tile view: %w", domain.ErrNotFound)
	}
	return tg, nil
}

// Traverse handles every path below a content context that addresses a tile.
func (s *Server) Traverse(w http.ResponseWriter, r *http.Request) {
	tg, err := parseTraversal(r.URL.EscapedPath())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	switch tg.kind {
	case targetAdd:
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		s.addTile(w, r, tg)
	case targetList:
		if !allowMethod(w, r, http.MethodGet, http.MethodHead) {
			return
		}
		s.listStoredTiles(w, r, tg)
	default:
		s.serveTile(w, r, tg)
	}
}

func (s *Server) serveTile(w http.ResponseWriter, r *http.Request, tg target) {
	switch tg.view {
	case "", esi.ViewBody, esi.ViewHead:
		if r.Method == http.MethodDelete && tg.view == "" {
			s.deleteData(w, r, tg)
			return
		}
		if !allowMethod(w, r, http.MethodGet, http.MethodHead, http.MethodPost) {
			return
		}
		s.renderTile(w, r, tg)
	case viewData:
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			s.getData(w, r, tg)
		case http.MethodPut:
			s.putData(w, r, tg)
		case http.MethodDelete:
			s.deleteData(w, r, tg)
		default:
			allowMethod(w, r, http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete)
		}
	case viewURL:
		if !allowMethod(w, r, http.MethodGet, http.MethodHead) {
			return
		}
		s.tileURL(w, r, tg)
	default:
		s.handleDomainError(w, fmt.Errorf("view %q: %w", tg.view, domain.ErrNotFound))
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	return false
}

// newTile binds a tile to the tile layer's view of r.
func (s *Server) newTile(r *http.Request, tg target) (*tile.Tile, error) {
	form, err := querystring.ParseRequest(r)
	if err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	req := tile.NewRequest(r.Method, form)
	req.URL = strings.TrimRight(s.opts.BaseURL, "/") + r.URL.EscapedPath()
	req.QueryString = r.URL.RawQuery
	req.PersistentOverride = r.Header.Get(tile.HeaderPersistent)
	req.ESI = s.opts.ESIEnabled && esi.Enabled(r.Header.Get(tile.HeaderESI))
	// only authenticated callers may skip the query string ignore list
	req.SubRequest = Authenticated(r.Context()) && isTrue(r.Header.Get(tile.HeaderSubRequest))
	return tile.New(tg.name, tg.id, tile.Context{Path: tg.contextPath}, req), nil
}

func isTrue(v string) bool {
	v = strings.TrimSpace(v)
	return v == "1" || strings.EqualFold(v, "true")
}

func (s *Server) renderTile(w http.ResponseWriter, r *http.Request, tg target) {
	ctx := r.Context()
	typ, err := s.types.Lookup(tg.name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	t, err := s.newTile(r, tg)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	ctx = logpkg.With(ctx, zap.String("tile", t.String()), zap.String("context", tg.contextPath))

	tileURL, err := s.urls.URL(ctx, t)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if t.ID != "" {
		w.Header().Set(tile.HeaderTileURL, tileURL)
	}
	w.Header().Set("X-Theme-Disabled", "1")

	view := tg.view
	if view == "" {
		view = "tile"
	}

	if tg.view == "" && typ.ESI && t.Request.ESI {
		logpkg.FromContext(ctx).Debug("serving ESI placeholder")
		metrics.TileRendersTotal.WithLabelValues(typ.Name, "esi-placeholder").Inc()
		writeHTML(w, http.StatusOK, esi.Placeholder(t.Request.URL, typ.Head, t.Request.QueryString))
		return
	}

	m, err := s.data.For(ctx, t)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	data, err := m.Get(ctx)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	doc, err := s.renderer.Render(ctx, RenderInput{Tile: t, Type: typ, Data: data, URL: tileURL})
	if err != nil {
		logpkg.FromContext(ctx).Error("tile render failed", zap.Error(err))
		s.handleDomainError(w, err)
		return
	}
	if tg.view != "" {
		doc = esi.Fragment(doc, tg.view == esi.ViewHead)
	}
	metrics.TileRendersTotal.WithLabelValues(typ.Name, view).Inc()
	writeHTML(w, http.StatusOK, doc)
}

func (s *Server) getData(w http.ResponseWriter, r *http.Request, tg target) {
	ctx := r.Context()
	t, err := s.newTile(r, tg)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	m, err := s.data.For(ctx, t)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	data, err := m.Get(ctx)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	u, err := s.urls.URL(ctx, t)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: data, URL: u})
}

func (s *Server) putData(w http.ResponseWriter, r *http.Request, tg target) {
	ctx := r.Context()
	typ, err := s.types.Lookup(tg.name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	rec, err := decodeJSONRecord(r, typ)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	t, err := s.newTile(r, tg)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	m, err := s.data.For(ctx, t)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if err := m.Set(ctx, rec); err != nil {
		s.handleDomainError(w, err)
		return
	}
	u, err := s.urls.URL(ctx, t)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set(tile.HeaderTileURL, u)
	writeJSON(w, http.StatusOK, dataResponse{Data: rec, URL: u})
}

func (s *Server) deleteData(w http.ResponseWriter, r *http.Request, tg target) {
	ctx := r.Context()
	t, err := s.newTile(r, tg)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	m, err := s.data.For(ctx, t)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if err := m.Delete(ctx); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) tileURL(w http.ResponseWriter, r *http.Request, tg target) {
	ctx := r.Context()
	t, err := s.newTile(r, tg)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	u, err := s.urls.URL(ctx, t)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	crumbs, err := s.urls.Breadcrumbs(t)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, urlResponse{URL: u, Breadcrumbs: crumbs})
}

// addTile creates a tile with a fresh id. Data comes from a JSON body, or
// from the form data when the body is not JSON.
func (s *Server) addTile(w http.ResponseWriter, r *http.Request, tg target) {
	ctx := r.Context()
	typ, err := s.types.Lookup(tg.name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	var rec record.Record
	if isJSON(r) {
		if rec, err = decodeJSONRecord(r, typ); err != nil {
			s.handleDomainError(w, err)
			return
		}
	}

	tg.id = uuid.NewString()
	t, err := s.newTile(r, tg)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if rec == nil {
		rec, err = querystring.Decode(t.Request.Form, typ.Schema, querystring.IncludePrimary(true))
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
	}

	m, err := s.data.For(ctx, t)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if err := m.Set(ctx, rec); err != nil {
		s.handleDomainError(w, err)
		return
	}
	u, err := s.urls.URL(ctx, t)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set(tile.HeaderTileURL, u)
	writeJSON(w, http.StatusCreated, addTileResponse{ID: t.ID, URL: u})
}

func (s *Server) listStoredTiles(w http.ResponseWriter, r *http.Request, tg target) {
	ids, err := s.data.StoredTileIDs(r.Context(), tile.Context{Path: tg.contextPath})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, storedTilesResponse{Context: tg.contextPath, IDs: ids})
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// decodeJSONRecord reads a JSON object from the body and coerces it through
// the schema of typ. Primary fields are kept; absent fields get their defaults.
func decodeJSONRecord(r *http.Request, typ tile.Type) (record.Record, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			raw = map[string]any{}
		} else {
			return nil, fmt.Errorf("%w: invalid JSON body: %w", domain.ErrDecode, err)
		}
	}
	if typ.Schema == nil {
		return record.Record(raw).Clone(), nil
	}
	return querystring.Decode(raw, typ.Schema, querystring.IncludePrimary(true))
}

package tiledata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tiles/internal/codec/querystring"
	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/record"
	"github.com/kailas-cloud/tiles/internal/domain/schema"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
)

const (
	modeTransient  = "transient"
	modePersistent = "persistent"
)

// manager holds what both variants share: the tile, its type, the resolved
// store and key, and the memoized Get result.
type manager struct {
	tile    *tile.Tile
	typ     tile.Type
	store   KeyValueStore
	key     string
	mode    string
	logger  *zap.Logger
	metrics Metrics

	cached   record.Record
	lastGood record.Record
}

func (m *manager) schema() *schema.Schema { return m.typ.Schema }

func (m *manager) cacheHit() (record.Record, bool) {
	if m.cached != nil {
		m.metrics.Cache.WithLabelValues("hit").Inc()
		return m.cached, true
	}
	m.metrics.Cache.WithLabelValues("miss").Inc()
	return nil, false
}

func (m *manager) remember(rec record.Record) {
	m.cached = rec
	m.lastGood = rec
}

func (m *manager) invalidate(rec record.Record) {
	m.cached = nil
	m.lastGood = rec
}

func (m *manager) observe(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.metrics.Operations.WithLabelValues(m.mode, op, status).Inc()
}

// requestData computes the default request record: the _tiledata JSON blob
// when present, else the schema-decoded form, else a raw copy of the form.
// On GET requests fields flagged ignore-on-query-string are stripped unless
// the request is a trusted sub-request. Decode failures degrade to the last
// good record; unsupported field kinds are returned as errors.
func (m *manager) requestData(includePrimary bool) (record.Record, error) {
	req := m.tile.Request
	s := m.schema()

	var data record.Record
	var err error
	if blob, ok := req.Form[tile.TiledataParam]; ok {
		data, err = m.decodeBlob(blob, includePrimary)
	} else if s == nil {
		data = record.Record(req.Form).Clone()
	} else {
		data, err = querystring.Decode(req.Form, s, querystring.IncludePrimary(includePrimary))
	}

	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFieldKind) {
			return nil, fmt.Errorf("tile %s: %w", m.tile, err)
		}
		m.logger.Warn("Could not convert form data to schema",
			zap.String("tile", m.tile.String()),
			zap.String("mode", m.mode),
			zap.Error(err),
		)
		m.metrics.DecodeFallbacks.WithLabelValues(m.mode).Inc()
		return m.lastGood.Clone(), nil
	}

	if s != nil && req.IsGet() && !req.SubRequest {
		data = data.Without(s.IgnoreQueryString()...)
	}
	return data, nil
}

func (m *manager) decodeBlob(blob any, includePrimary bool) (record.Record, error) {
	if items, ok := blob.([]any); ok && len(items) > 0 {
		blob = items[0]
	}
	text, ok := blob.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a JSON string", domain.ErrDecode, tile.TiledataParam)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDecode, tile.TiledataParam, err)
	}

	if m.schema() == nil {
		return record.Record(raw), nil
	}
	return querystring.Decode(raw, m.schema(), querystring.IncludePrimary(includePrimary))
}

// fillMissing sets every schema field absent from rec to its missing value.
func fillMissing(rec record.Record, s *schema.Schema) {
	for _, f := range s.Fields() {
		if _, ok := rec[f.Name()]; !ok {
			rec[f.Name()] = f.MissingValue()
		}
	}
}

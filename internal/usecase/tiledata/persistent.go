package tiledata

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tiles/internal/codec/querystring"
	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/record"
)

// persistentManager keeps data in durable storage on the anchor context.
type persistentManager struct {
	manager
}

// Get merges stored data over the default request record and fills the
// remaining schema fields with their missing values.
func (m *persistentManager) Get(ctx context.Context) (record.Record, error) {
	if rec, ok := m.cacheHit(); ok {
		return rec, nil
	}

	data, err := m.requestData(true)
	if err != nil {
		m.observe("get", err)
		return nil, err
	}

	stored, ok, err := m.store.Get(ctx, m.key)
	if err != nil {
		m.observe("get", err)
		return nil, fmt.Errorf("get stored data: %w", err)
	}
	if ok {
		stored, err = m.coerceStored(stored)
		if err != nil {
			m.observe("get", err)
			return nil, err
		}
		data.Merge(stored)
	}
	fillMissing(data, m.schema())

	m.remember(data)
	m.observe("get", nil)
	return data, nil
}

// coerceStored types stored values through the schema. Keys the schema does
// not name are kept as stored.
func (m *persistentManager) coerceStored(stored record.Record) (record.Record, error) {
	if m.schema() == nil {
		return stored, nil
	}
	typed, err := querystring.Decode(stored, m.schema(),
		querystring.FillMissing(false), querystring.IncludePrimary(true))
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFieldKind) {
			return nil, fmt.Errorf("tile %s: %w", m.tile, err)
		}
		m.logger.Warn("Stored tile data does not match schema",
			zap.String("tile", m.tile.String()),
			zap.String("key", m.key),
			zap.Error(err),
		)
		return stored, nil
	}
	out := stored.Clone()
	maps.Copy(out, typed)
	return out, nil
}

// Set replaces the stored record with a copy of rec.
func (m *persistentManager) Set(ctx context.Context, rec record.Record) error {
	stored := rec.Clone()
	err := m.store.Set(ctx, m.key, stored)
	m.observe("set", err)
	if err != nil {
		return fmt.Errorf("store data: %w", err)
	}
	m.invalidate(stored)
	return nil
}

// Delete removes the stored record. Deleting missing data is a no-op.
func (m *persistentManager) Delete(ctx context.Context) error {
	err := m.store.Delete(ctx, m.key)
	m.observe("delete", err)
	if err != nil {
		return fmt.Errorf("delete data: %w", err)
	}
	m.invalidate(record.Record{})
	return nil
}

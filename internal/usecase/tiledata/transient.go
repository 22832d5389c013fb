package tiledata

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/tiles/internal/domain/record"
)

// transientManager keeps data in the per-request scratchpad and otherwise
// derives it from the request.
type transientManager struct {
	manager
}

// Get returns the staged record when one exists, else the default request record.
func (m *transientManager) Get(ctx context.Context) (record.Record, error) {
	if rec, ok := m.cacheHit(); ok {
		return rec, nil
	}

	staged, ok, err := m.store.Get(ctx, m.key)
	if err != nil {
		m.observe("get", err)
		return nil, fmt.Errorf("get staged data: %w", err)
	}

	var data record.Record
	if ok {
		data = staged.Clone()
		fillMissing(data, m.schema())
	} else {
		data, err = m.requestData(false)
		if err != nil {
			m.observe("get", err)
			return nil, err
		}
	}

	m.remember(data)
	m.observe("get", nil)
	return data, nil
}

// Set stages a copy of rec for the rest of the request.
func (m *transientManager) Set(ctx context.Context, rec record.Record) error {
	staged := rec.Clone()
	err := m.store.Set(ctx, m.key, staged)
	m.observe("set", err)
	if err != nil {
		return fmt.Errorf("stage data: %w", err)
	}
	m.invalidate(staged)
	return nil
}

// Delete stages an empty record, marking the tile as explicitly without data.
func (m *transientManager) Delete(ctx context.Context) error {
	err := m.store.Set(ctx, m.key, record.Record{})
	m.observe("delete", err)
	if err != nil {
		return fmt.Errorf("stage empty data: %w", err)
	}
	m.invalidate(record.Record{})
	return nil
}

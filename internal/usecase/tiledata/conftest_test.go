package tiledata

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/field"
	"github.com/kailas-cloud/tiles/internal/domain/record"
	"github.com/kailas-cloud/tiles/internal/domain/schema"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
)

// mockTypes implements TypeLookup.
type mockTypes map[string]tile.Type

func (m mockTypes) Lookup(name string) (tile.Type, error) {
	t, ok := m[name]
	if !ok {
		return tile.Type{}, fmt.Errorf("%w: %s", domain.ErrTileTypeNotFound, name)
	}
	return t, nil
}

// mockAnnotations implements AnnotationRepository over nested maps.
type mockAnnotations struct {
	data   map[string]map[string]record.Record
	getErr error
	sets   int
}

func newMockAnnotations() *mockAnnotations {
	return &mockAnnotations{data: make(map[string]map[string]record.Record)}
}

func (m *mockAnnotations) Get(_ context.Context, contextPath, key string) (record.Record, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	rec, ok := m.data[contextPath][key]
	return rec, ok, nil
}

func (m *mockAnnotations) Set(_ context.Context, contextPath, key string, rec record.Record) error {
	m.sets++
	if m.data[contextPath] == nil {
		m.data[contextPath] = make(map[string]record.Record)
	}
	m.data[contextPath][key] = rec
	return nil
}

func (m *mockAnnotations) Delete(_ context.Context, contextPath, key string) error {
	delete(m.data[contextPath], key)
	return nil
}

func (m *mockAnnotations) Keys(_ context.Context, contextPath string) ([]string, error) {
	return slices.Sorted(maps.Keys(m.data[contextPath])), nil
}

func newTestMetrics() Metrics {
	return Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "test_operations_total"}, []string{"mode", "op", "status"}),
		DecodeFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "test_decode_fallback_total"}, []string{"mode"}),
		Cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"}),
	}
}

// testSchema: title (textline, default "untitled"), count (int), secret
// (textline, ignored on the query string) and body (primary text).
func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	return schema.MustNew([]field.Field{
		field.MustNew("title", field.KindTextLine, field.Missing("untitled")),
		field.MustNew("count", field.KindInt),
		field.MustNew("secret", field.KindTextLine),
		field.MustNew("body", field.KindText, field.Primary()),
	}, schema.IgnoreQueryString("secret"))
}

func testTypes(t *testing.T) mockTypes {
	t.Helper()
	s := testSchema(t)
	return mockTypes{
		"sample.transient":  {Name: "sample.transient", Title: "Transient", Schema: s},
		"sample.persistent": {Name: "sample.persistent", Title: "Persistent", Schema: s, Persistent: true},
		"sample.noschema":   {Name: "sample.noschema", Title: "No schema"},
		"sample.broken": {Name: "sample.broken", Title: "Broken", Schema: schema.MustNew([]field.Field{
			field.MustNew("when", field.KindDatetime),
		})},
	}
}

type testEnv struct {
	svc         *Service
	annotations *mockAnnotations
	metrics     Metrics
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	ann := newMockAnnotations()
	m := newTestMetrics()
	opts = append([]Option{WithMetrics(m)}, opts...)
	return &testEnv{
		svc:         New(testTypes(t), ann, zap.NewNop(), opts...),
		annotations: ann,
		metrics:     m,
	}
}

func (e *testEnv) manager(t *testing.T, tl *tile.Tile) Manager {
	t.Helper()
	m, err := e.svc.For(context.Background(), tl)
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	return m
}

func getRequest(form map[string]any) *tile.Request {
	return tile.NewRequest("GET", form)
}

package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newsSchema() *Schema {
	return MustSchema(
		MustField("title", KindTextLine),
		MustField("count", KindInt, Missing(int64(1))),
		MustField("body", KindText, Primary()),
	)
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithMemory(), WithBaseURL("http://example.com")}, opts...)
	c, err := New(context.Background(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)

	for _, tt := range []TileType{
		{Name: "example.news", Title: "News", AddPermission: "cmf.ModifyPortalContent", Schema: newsSchema()},
		{Name: "example.stored", Title: "Stored", AddPermission: "cmf.ModifyPortalContent", Schema: newsSchema(), Persistent: true},
	} {
		if err := c.RegisterType(tt); err != nil {
			t.Fatalf("RegisterType(%s): %v", tt.Name, err)
		}
	}
	return c
}

func TestNew_NoStorage(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no storage configured")
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "unknown"}
	if _, err := createStore(cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNew_RedisWithoutAddr(t *testing.T) {
	cfg := &clientConfig{driver: "redis"}
	if _, err := createStore(cfg); err == nil {
		t.Fatal("expected error for redis without address")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}
	WithValkey("localhost:6379", "secret").apply(cfg)
	if cfg.driver != "valkey" || cfg.addrs[0] != "localhost:6379" || cfg.password != "secret" {
		t.Errorf("WithValkey: %+v", cfg)
	}
	WithRedis("redis:6379", "").apply(cfg)
	if cfg.driver != "redis" || cfg.addrs[0] != "redis:6379" {
		t.Errorf("WithRedis: %+v", cfg)
	}
	WithSQLite("tiles.db").apply(cfg)
	if cfg.driver != "sqlite" || cfg.path != "tiles.db" {
		t.Errorf("WithSQLite: %+v", cfg)
	}
	WithKeyPrefix("site1:").apply(cfg)
	if cfg.keyPrefix != "site1:" {
		t.Errorf("WithKeyPrefix: %q", cfg.keyPrefix)
	}
	WithAnchors(map[string]string{"/site": "/site"}).apply(cfg)
	if cfg.anchors["/site"] != "/site" {
		t.Errorf("WithAnchors: %+v", cfg.anchors)
	}
}

func TestClient_RegisterType(t *testing.T) {
	c := newTestClient(t)

	err := c.RegisterType(TileType{Name: "example.news", Title: "Dup", AddPermission: "p"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("duplicate register err = %v, want ErrAlreadyExists", err)
	}
	err = c.RegisterType(TileType{Name: "example.x", Title: "X"})
	if !errors.Is(err, ErrInvalidTile) {
		t.Errorf("missing permission err = %v, want ErrInvalidTile", err)
	}

	typ, err := c.Type("example.news")
	if err != nil {
		t.Fatalf("Type: %v", err)
	}
	if typ.EditPermission != "cmf.ModifyPortalContent" {
		t.Errorf("EditPermission = %q, want add permission", typ.EditPermission)
	}

	names := make([]string, 0)
	for _, tt := range c.Types() {
		names = append(names, tt.Name)
	}
	if !slices.Equal(names, []string{"example.news", "example.stored"}) {
		t.Errorf("Types() = %v", names)
	}
}

func TestClient_TransientData(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	form, err := ParseQuery("title=Hello&count:long=3")
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	tl := NewTile("example.news", "news-1", "/site/page", NewRequest("GET", form))

	d, err := c.Data(ctx, tl)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	rec, err := d.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec["title"] != "Hello" || rec["count"] != int64(3) {
		t.Errorf("Get = %v", rec)
	}

	url, err := c.URL(ctx, tl)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if url != "http://example.com/site/page/@@example.news/news-1?title=Hello&count%3Along=3" {
		t.Errorf("URL = %q", url)
	}

	if err := d.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	rec, err = d.Get(ctx)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if _, ok := rec["title"]; ok && rec["title"] != nil {
		t.Errorf("title after delete = %v, want absent", rec["title"])
	}
}

func TestClient_PersistentData(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	tl := NewTile("example.stored", "s1", "/site", nil)
	d, err := c.Data(ctx, tl)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if err := d.Set(ctx, Record{"title": "Kept", "count": int64(7), "body": "long text"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh manager reads from storage.
	d2, err := c.Data(ctx, NewTile("example.stored", "s1", "/site/", nil))
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	rec, err := d2.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec["title"] != "Kept" || rec["count"] != int64(7) || rec["body"] != "long text" {
		t.Errorf("Get = %v", rec)
	}

	url, err := c.URL(ctx, tl)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if strings.Contains(url, "?") {
		t.Errorf("persistent URL carries a query: %q", url)
	}

	ids, err := c.StoredTiles(ctx, "/site")
	if err != nil {
		t.Fatalf("StoredTiles: %v", err)
	}
	if !slices.Equal(ids, []string{"s1"}) {
		t.Errorf("StoredTiles = %v", ids)
	}

	contexts, err := c.Contexts(ctx)
	if err != nil {
		t.Fatalf("Contexts: %v", err)
	}
	if !slices.Equal(contexts, []string{"/site"}) {
		t.Errorf("Contexts = %v", contexts)
	}

	if err := c.PurgeContext(ctx, "site"); err != nil {
		t.Fatalf("PurgeContext: %v", err)
	}
	ids, err = c.StoredTiles(ctx, "/site")
	if err != nil {
		t.Fatalf("StoredTiles: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("StoredTiles after purge = %v", ids)
	}
}

func TestClient_PersistentWithoutID(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Data(context.Background(), NewTile("example.stored", "", "/site", nil))
	if !errors.Is(err, ErrInvalidTile) {
		t.Errorf("err = %v, want ErrInvalidTile", err)
	}
}

func TestClient_Anchors(t *testing.T) {
	c := newTestClient(t, WithAnchors(map[string]string{"/site/news": "/site"}))
	ctx := context.Background()

	d, err := c.Data(ctx, NewTile("example.stored", "a1", "/site/news/item", nil))
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if err := d.Set(ctx, Record{"title": "Anchored"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ids, err := c.StoredTiles(ctx, "/site")
	if err != nil {
		t.Fatalf("StoredTiles: %v", err)
	}
	if !slices.Equal(ids, []string{"a1"}) {
		t.Errorf("StoredTiles(/site) = %v, want [a1]", ids)
	}
}

func TestClient_Breadcrumbs(t *testing.T) {
	c := newTestClient(t)

	crumbs, err := c.Breadcrumbs(NewTile("example.news", "n1", "/site", nil))
	if err != nil {
		t.Fatalf("Breadcrumbs: %v", err)
	}
	if len(crumbs) == 0 {
		t.Fatal("expected breadcrumbs")
	}
	if last := crumbs[len(crumbs)-1]; !strings.Contains(last.URL, "@@example.news/n1") {
		t.Errorf("last crumb = %+v", last)
	}
}

func TestClient_HealthAndPing(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	h := c.Health(ctx)
	if h.Status != "ok" {
		t.Errorf("Health = %+v", h)
	}
	if h.Checks["database"] != "ok" || h.Checks["tile_types"] != "ok" {
		t.Errorf("Checks = %v", h.Checks)
	}
	if !h.Serving() {
		t.Error("expected Serving() to be true")
	}
}

func TestClient_HealthWithoutTypes(t *testing.T) {
	c, err := New(context.Background(), WithMemory())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	h := c.Health(context.Background())
	if h.Status != "error" || h.Serving() {
		t.Errorf("Health without types = %+v", h)
	}
}

func TestClient_Observability(t *testing.T) {
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newTestClient(t, WithPrometheus(reg), WithLogger(logger))
	ctx := context.Background()

	if _, err := c.Data(ctx, NewTile("example.stored", "", "/", nil)); err == nil {
		t.Fatal("expected error")
	}
	d, err := c.Data(ctx, NewTile("example.news", "n", "/", nil))
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if _, err := d.Get(ctx); err != nil {
		t.Fatalf("Get: %v", err)
	}

	count := testutil.CollectAndCount(reg, "tiles_sdk_operations_total")
	if count != 3 {
		t.Errorf("operations series = %d, want 3 (data ok, data invalid, get ok)", count)
	}
	calls := c.obs.metrics.calls
	if v := testutil.ToFloat64(calls.WithLabelValues("data", "example.stored", statusInvalid)); v != 1 {
		t.Errorf("invalid data calls for example.stored = %v, want 1", v)
	}
	if v := testutil.ToFloat64(calls.WithLabelValues("get", "example.news", statusOK)); v != 1 {
		t.Errorf("get calls for example.news = %v, want 1", v)
	}
	if v := testutil.ToFloat64(c.obs.metrics.data.Operations.WithLabelValues("transient", "get", "ok")); v != 1 {
		t.Errorf("transient get operations = %v, want 1", v)
	}

	out := logs.String()
	if !strings.Contains(out, "operation failed") || !strings.Contains(out, "status=invalid") {
		t.Errorf("expected invalid failure log, got:\n%s", out)
	}
	if !strings.Contains(out, "tile.type=example.news") || !strings.Contains(out, "tile.id=n") {
		t.Errorf("expected tile attributes in log, got:\n%s", out)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, statusOK},
		{fmt.Errorf("lookup: %w", ErrTileTypeNotFound), statusNotFound},
		{fmt.Errorf("tile: %w", ErrInvalidTile), statusInvalid},
		{fmt.Errorf("field f: %w", ErrDecode), statusInvalid},
		{errors.New("connection refused"), statusError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRegisterOrReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newSDKMetrics(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := newSDKMetrics(reg); err != nil {
		t.Fatalf("second register should reuse: %v", err)
	}
}

func TestObserver_Nil(t *testing.T) {
	var o *observer
	o.end(o.begin("noop", NewTile("example.news", "n", "/", nil)), errors.New("ignored"))
	if _, ok := o.dataMetrics(); ok {
		t.Error("nil observer should not report data metrics")
	}
}

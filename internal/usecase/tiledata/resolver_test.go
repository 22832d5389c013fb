package tiledata

import (
	"context"
	"testing"

	"github.com/kailas-cloud/tiles/internal/domain/record"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
)

func TestDefaultContextResolver(t *testing.T) {
	tl := tile.New("x", "1", tile.Context{Path: "/a/b"}, nil)
	got, err := DefaultContextResolver.ResolveContext(context.Background(), tl)
	if err != nil || got.Path != "/a/b" {
		t.Errorf("ResolveContext = %v, %v", got, err)
	}
}

func TestPrefixContextResolver(t *testing.T) {
	r := NewPrefixContextResolver(map[string]string{
		"/site":          "/",
		"/site/intranet": "/site/intranet/layouts",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/site", ""},
		{"/site/page", ""},
		{"/site/intranet/page", "/site/intranet/layouts"},
		{"/sitemap", "/sitemap"},
		{"/other", "/other"},
	}
	for _, tc := range tests {
		got, _ := r.ResolveContext(context.Background(), tile.New("x", "1", tile.Context{Path: tc.path}, nil))
		if got.NormalizedPath() != tc.want {
			t.Errorf("ResolveContext(%q) = %q, want %q", tc.path, got.NormalizedPath(), tc.want)
		}
	}
}

func TestDefaultStorageResolver(t *testing.T) {
	ann := newMockAnnotations()
	r := DefaultStorageResolver{Annotations: ann}
	tl := tile.New("x", "1", tile.Context{}, nil)

	s, _ := r.ResolveStorage(context.Background(), tile.Context{Path: "/a"}, tl, true)
	if _, ok := s.(*AnnotationStore); !ok {
		t.Errorf("expected AnnotationStore, got %T", s)
	}
	s, _ = r.ResolveStorage(context.Background(), tile.Context{Path: "/a"}, tl, false)
	if _, ok := s.(*RequestStore); !ok {
		t.Errorf("expected RequestStore, got %T", s)
	}
}

func TestStorageKey(t *testing.T) {
	if got := StorageKey(NewRequestStore(tile.NewRequest("GET", nil)), "t1"); got != "tiles.data.t1" {
		t.Errorf("request store key = %q", got)
	}
	if got := StorageKey(&bareStore{}, "t1"); got != "t1" {
		t.Errorf("bare store key = %q", got)
	}
	if id, ok := TileID("tiles.data.t1"); !ok || id != "t1" {
		t.Errorf("TileID = %q, %v", id, ok)
	}
}

func TestAnnotationStore_Contains(t *testing.T) {
	ann := newMockAnnotations()
	s := NewAnnotationStore(ann, "/a")
	ctx := context.Background()

	if ok, _ := s.Contains(ctx, "k"); ok {
		t.Error("expected missing key")
	}
	_ = s.Set(ctx, "k", record.Record{})
	if ok, _ := s.Contains(ctx, "k"); !ok {
		t.Error("expected stored key")
	}
}

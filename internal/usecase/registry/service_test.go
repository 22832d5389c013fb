package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
)

func TestRegister_Defaults(t *testing.T) {
	r := New()
	err := r.Register(tile.Type{Name: "sample.tile", Title: "Sample", AddPermission: "cmf.AddPortalContent"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := r.Lookup("sample.tile")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.EditPermission != "cmf.AddPortalContent" || got.DeletePermission != "cmf.AddPortalContent" {
		t.Errorf("edit/delete should default to add permission, got %q/%q", got.EditPermission, got.DeletePermission)
	}
	if got.ViewPermission != DefaultViewPermission {
		t.Errorf("expected view permission %q, got %q", DefaultViewPermission, got.ViewPermission)
	}
}

func TestRegister_KeepsExplicitPermissions(t *testing.T) {
	r := New()
	err := r.Register(tile.Type{
		Name: "sample.tile", Title: "Sample",
		AddPermission: "add", EditPermission: "edit", DeletePermission: "delete", ViewPermission: "view",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := r.Lookup("sample.tile")
	if got.EditPermission != "edit" || got.DeletePermission != "delete" || got.ViewPermission != "view" {
		t.Errorf("explicit permissions overwritten: %+v", got)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		typ  tile.Type
		want error
	}{
		{"no name", tile.Type{Title: "T", AddPermission: "add"}, domain.ErrInvalidTile},
		{"no title", tile.Type{Name: "a.b", AddPermission: "add"}, domain.ErrInvalidTile},
		{"no add permission", tile.Type{Name: "a.b", Title: "T"}, domain.ErrInvalidTile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().Register(tt.typ)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := New()
	typ := tile.Type{Name: "a.b", Title: "T", AddPermission: "add"}
	if err := r.Register(typ); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(typ); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestLookup_NotFound(t *testing.T) {
	_, err := New().Lookup("missing")
	if !errors.Is(err, domain.ErrTileTypeNotFound) {
		t.Errorf("expected ErrTileTypeNotFound, got %v", err)
	}
}

func TestList_Sorted(t *testing.T) {
	r := New()
	for _, name := range []string{"c.tile", "a.tile", "b.tile"} {
		if err := r.Register(tile.Type{Name: name, Title: name, AddPermission: "add"}); err != nil {
			t.Fatal(err)
		}
	}

	list := r.List()
	if len(list) != 3 || r.Count() != 3 {
		t.Fatalf("expected 3 types, got %d", len(list))
	}
	for i, want := range []string{"a.tile", "b.tile", "c.tile"} {
		if list[i].Name != want {
			t.Errorf("list[%d] = %q, want %q", i, list[i].Name, want)
		}
	}
}

func TestTemplate(t *testing.T) {
	r := New()
	if err := r.SetTemplate("a.tile", "<p/>"); !errors.Is(err, domain.ErrTileTypeNotFound) {
		t.Errorf("expected ErrTileTypeNotFound, got %v", err)
	}
	if err := r.Register(tile.Type{Name: "a.tile", Title: "A", AddPermission: "add"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Template("a.tile"); ok {
		t.Error("expected no template")
	}
	if err := r.SetTemplate("a.tile", "<p/>"); err != nil {
		t.Fatal(err)
	}
	if src, ok := r.Template("a.tile"); !ok || src != "<p/>" {
		t.Errorf("unexpected template %q", src)
	}
}

func TestRegister_Concurrent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.Register(tile.Type{Name: "same", Title: "S", AddPermission: "add"})
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		}
	}
	if ok != 1 {
		t.Errorf("expected exactly one successful register, got %d", ok)
	}
}

package tileurl

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/tiles/internal/codec/querystring"
	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/record"
	"github.com/kailas-cloud/tiles/internal/domain/schema"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
)

// Breadcrumb is one step on the way from the site root to a tile.
type Breadcrumb struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Fragment returns the traversal fragment of a tile: "@@<name>[/<id>]".
func Fragment(t *tile.Tile) (string, error) {
	if t == nil || t.Name == "" {
		return "", fmt.Errorf("%w: insufficient context to determine URL", domain.ErrInvalidTile)
	}
	f := "@@" + quote(t.Name)
	if t.ID != "" {
		f += "/" + quote(t.ID)
	}
	return f, nil
}

// Base returns the URL of a tile without any data: the context URL followed
// by the tile fragment. Persistent tiles are addressed by this URL alone.
func Base(baseURL string, t *tile.Tile) (string, error) {
	f, err := Fragment(t)
	if err != nil {
		return "", err
	}
	return contextURL(baseURL, t.Context) + "/" + f, nil
}

// Transient returns the base URL of a transient tile with its data encoded
// on the query string. Nothing is appended without data or schema.
func Transient(baseURL string, t *tile.Tile, data record.Record, s *schema.Schema) (string, error) {
	u, err := Base(baseURL, t)
	if err != nil {
		return "", err
	}
	if len(data) == 0 || s == nil {
		return u, nil
	}
	q, err := querystring.Encode(data, s)
	if err != nil {
		return "", fmt.Errorf("encode tile data: %w", err)
	}
	if q == "" {
		return u, nil
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + q, nil
}

// Breadcrumbs returns one crumb per context path segment, starting with the
// unnamed site root, followed by the tile crumb.
func Breadcrumbs(baseURL string, t *tile.Tile) ([]Breadcrumb, error) {
	f, err := Fragment(t)
	if err != nil {
		return nil, err
	}

	root := strings.TrimRight(baseURL, "/")
	crumbs := []Breadcrumb{{Name: "", URL: root}}
	u := root
	for _, seg := range strings.Split(strings.Trim(t.Context.Path, "/"), "/") {
		if seg == "" {
			continue
		}
		u += "/" + quote(seg)
		crumbs = append(crumbs, Breadcrumb{Name: seg, URL: u})
	}
	return append(crumbs, Breadcrumb{Name: t.Name, URL: u + "/" + f}), nil
}

func contextURL(baseURL string, c tile.Context) string {
	u := strings.TrimRight(baseURL, "/")
	for _, seg := range strings.Split(strings.Trim(c.Path, "/"), "/") {
		if seg != "" {
			u += "/" + quote(seg)
		}
	}
	return u
}

// quote percent-encodes everything except ASCII letters, digits and "_.-@+".
func quote(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

func isSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("_.-@+", c) >= 0
}

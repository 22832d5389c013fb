package chi

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"

	"github.com/kailas-cloud/tiles/internal/domain/record"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
)

// RenderInput is what a tile template sees.
type RenderInput struct {
	Tile *tile.Tile
	Type tile.Type
	Data record.Record
	URL  string
}

// Renderer turns a tile and its data into an HTML document.
type Renderer interface {
	Render(ctx context.Context, in RenderInput) (string, error)
}

// TemplateSource returns the template source declared for a tile type.
type TemplateSource interface {
	Template(name string) (string, bool)
}

const defaultTemplate = `<html><head><title>{{ .Type.Title }}</title></head>
<body><div class="tile" data-tile-type="{{ .Type.Name }}" data-tile-id="{{ .Tile.ID }}">
<dl>{{ range $k, $v := .Data }}<dt>{{ $k }}</dt><dd>{{ $v }}</dd>{{ end }}</dl>
</div></body></html>
`

var fallbackTemplate = template.Must(template.New("tile").Parse(defaultTemplate))

// TemplateRenderer renders tiles with html/template. Types without a
// declared template get a definition list of their data.
type TemplateRenderer struct {
	source TemplateSource
	mu     sync.Mutex
	cache  map[string]*template.Template
}

// NewTemplateRenderer creates a renderer reading template sources from source.
func NewTemplateRenderer(source TemplateSource) *TemplateRenderer {
	return &TemplateRenderer{source: source, cache: make(map[string]*template.Template)}
}

// Render executes the template of in.Type.
func (r *TemplateRenderer) Render(_ context.Context, in RenderInput) (string, error) {
	tmpl, err := r.template(in.Type.Name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("render tile %s: %w", in.Type.Name, err)
	}
	return buf.String(), nil
}

func (r *TemplateRenderer) template(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.cache[name]; ok {
		return t, nil
	}

	t := fallbackTemplate
	if src, ok := r.source.Template(name); ok {
		parsed, err := template.New(name).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse template of %s: %w", name, err)
		}
		t = parsed
	}
	r.cache[name] = t
	return t, nil
}

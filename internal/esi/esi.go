// Package esi renders edge side include placeholders for tiles and turns
// them into <esi:include> tags for the edge cache.
package esi

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Namespace is the XML namespace of the esi: prefix.
const Namespace = "http://www.edge-delivery.org/esi/1.0"

// View names of the fragments an ESI placeholder points at.
const (
	ViewHead = "esi-head"
	ViewBody = "esi-body"
)

const placeholderTemplate = `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN"
    "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
    <body>
        <a class="_esi_placeholder" rel="esi" href="%s/@@%s?%s"></a>
    </body>
</html>
`

var (
	headChildren = regexp.MustCompile(`(?is)<head[^>]*>(.*)</head>`)
	bodyChildren = regexp.MustCompile(`(?is)<body[^>]*>(.*)</body>`)
	htmlOpen     = regexp.MustCompile(`<html`)
	placeholder  = regexp.MustCompile(`<a class="_esi_placeholder" rel="esi" href="([^"]+)"></a>`)
)

// Enabled reports whether an X-ESI-Enabled header value turns ESI rendering on.
func Enabled(header string) bool {
	return strings.EqualFold(strings.TrimSpace(header), "true")
}

// View returns the fragment view a placeholder of a head or body tile points at.
func View(head bool) string {
	if head {
		return ViewHead
	}
	return ViewBody
}

// Placeholder returns the document rendered in place of an ESI tile.
// tileURL is the tile URL without query string; query is the raw query string.
func Placeholder(tileURL string, head bool, query string) string {
	return fmt.Sprintf(placeholderTemplate, html.EscapeString(tileURL), View(head), html.EscapeString(query))
}

// SubstituteLinks declares the esi namespace on the first <html> tag and
// replaces every placeholder link with an <esi:include> tag.
func SubstituteLinks(rendered string) string {
	replaced := false
	rendered = htmlOpen.ReplaceAllStringFunc(rendered, func(m string) string {
		if replaced {
			return m
		}
		replaced = true
		return `<html xmlns:esi="` + Namespace + `"`
	})
	return placeholder.ReplaceAllString(rendered, `<esi:include src="$1" />`)
}

// Head returns the children of the <head> element, or the whole document
// when it has none.
func Head(document string) string {
	return children(headChildren, document)
}

// Body returns the children of the <body> element, or the whole document
// when it has none.
func Body(document string) string {
	return children(bodyChildren, document)
}

// Fragment extracts the head or body children.
func Fragment(document string, head bool) string {
	if head {
		return Head(document)
	}
	return Body(document)
}

func children(re *regexp.Regexp, document string) string {
	m := re.FindStringSubmatch(document)
	if m == nil {
		return document
	}
	return strings.TrimSpace(m[1])
}

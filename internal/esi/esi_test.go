package esi

import (
	"strings"
	"testing"
)

func TestEnabled(t *testing.T) {
	for header, want := range map[string]bool{
		"true": true, "TRUE": true, " True ": true,
		"": false, "false": false, "1": false, "yes": false,
	} {
		if got := Enabled(header); got != want {
			t.Errorf("Enabled(%q) = %v, want %v", header, got, want)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	doc := Placeholder("http://example.com/@@example.news/t1", false, "title=Hello&count%3Along=5")

	want := `<a class="_esi_placeholder" rel="esi" href="http://example.com/@@example.news/t1/@@esi-body?title=Hello&amp;count%3Along=5"></a>`
	if !strings.Contains(doc, want) {
		t.Errorf("placeholder link missing:\n%s", doc)
	}

	head := Placeholder("http://example.com/@@example.head", true, "")
	if !strings.Contains(head, `href="http://example.com/@@example.head/@@esi-head?"`) {
		t.Errorf("head placeholder should point at esi-head:\n%s", head)
	}
}

func TestSubstituteLinks(t *testing.T) {
	in := `<html><body><a class="_esi_placeholder" rel="esi" href="http://a/@@t/@@esi-body?x=1"></a>` +
		`<a class="_esi_placeholder" rel="esi" href="http://a/@@u/@@esi-head?"></a></body></html>`

	got := SubstituteLinks(in)
	want := `<html xmlns:esi="http://www.edge-delivery.org/esi/1.0"><body>` +
		`<esi:include src="http://a/@@t/@@esi-body?x=1" />` +
		`<esi:include src="http://a/@@u/@@esi-head?" /></body></html>`
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestSubstituteLinks_OnlyFirstHTML(t *testing.T) {
	got := SubstituteLinks("<html><p><html</p></html>")
	if strings.Count(got, "xmlns:esi") != 1 {
		t.Errorf("namespace should be added once: %s", got)
	}
}

func TestSubstituteLinks_PlaceholderRoundTrip(t *testing.T) {
	got := SubstituteLinks(Placeholder("http://a/@@t", false, "x=1"))
	if !strings.Contains(got, `<esi:include src="http://a/@@t/@@esi-body?x=1" />`) {
		t.Errorf("placeholder not substituted:\n%s", got)
	}
	if !strings.Contains(got, `<html xmlns:esi="`+Namespace+`" xmlns="http://www.w3.org/1999/xhtml">`) {
		t.Errorf("namespace not declared:\n%s", got)
	}
}

func TestHeadBody(t *testing.T) {
	doc := "<HTML>\n<Head lang=\"en\">\n  <title>T</title>\n</HEAD>\n<body class=\"x\">\n  <p>one</p>\n  <p>two</p>\n</body></html>"

	if got := Head(doc); got != "<title>T</title>" {
		t.Errorf("Head = %q", got)
	}
	if got := Body(doc); got != "<p>one</p>\n  <p>two</p>" {
		t.Errorf("Body = %q", got)
	}
	if got := Fragment(doc, true); got != "<title>T</title>" {
		t.Errorf("Fragment(head) = %q", got)
	}
}

func TestHeadBody_Fallback(t *testing.T) {
	frag := "<p>just a fragment</p>"
	if Head(frag) != frag || Body(frag) != frag {
		t.Error("documents without head/body should be returned whole")
	}
}

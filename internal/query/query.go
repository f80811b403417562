// Package query selects sub-trees of a cleaned document with CSS selectors.
package query

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/hyperifyio/htmltext/internal/dom"
	"github.com/hyperifyio/htmltext/internal/extract"
	"github.com/hyperifyio/htmltext/internal/sanitize"
)

// Compile parses a CSS selector.
func Compile(selector string) (goquery.Matcher, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}
	return m, nil
}

// Select returns the elements below root matched by m, in document order.
// A nil root matches nothing.
func Select(root *html.Node, m goquery.Matcher) []dom.Element {
	if root == nil || m == nil {
		return nil
	}
	return Elements(goquery.NewDocumentFromNode(root).FindMatcher(m))
}

// Elements adapts the nodes of sel.
func Elements(sel *goquery.Selection) []dom.Element {
	if sel == nil {
		return nil
	}
	out := make([]dom.Element, 0, len(sel.Nodes))
	for _, n := range sel.Nodes {
		if el := dom.FromNode(n); el != nil {
			out = append(out, el)
		}
	}
	return out
}

// Extract cleans raw HTML and renders the parts matched by m, joined in
// document order. A nil m renders the whole document. Title and Fallback are
// reported for the whole document either way; input treated as plain text
// matches nothing.
func Extract(input []byte, contentType string, m goquery.Matcher, opts extract.Options) extract.Document {
	if m == nil {
		return extract.FromHTML(input, contentType, opts)
	}
	if len(input) == 0 {
		return extract.Document{}
	}
	res := sanitize.Document(input, contentType, sanitize.DefaultPolicy())
	if res.Fallback {
		return extract.Document{Fallback: true}
	}
	return extract.Document{
		Title: extract.Title(res.Node),
		Text:  extract.Join(Select(res.Node, m), opts),
	}
}

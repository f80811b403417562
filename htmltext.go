// Package htmltext converts HTML into readable plain text.
//
// Invisible content (scripts, styles, comments, embedded objects, frames,
// head metadata) is dropped first. The remaining tree is rendered the way
// it would read once laid out: inline elements are separated by single
// spaces, block elements such as paragraphs, list items and headings get
// line breaks or blank lines, and no space is inserted before closing
// punctuation or after an opening parenthesis.
//
//	text := htmltext.ExtractText(`<h1>Title</h1><p>Hello, <b>world</b>!</p>`, nil)
//	// "Title\n\nHello, world!"
//
// Input that cannot be parsed as HTML is treated as plain text rather than
// reported as an error.
package htmltext

import (
	"golang.org/x/net/html"

	"github.com/hyperifyio/htmltext/internal/dom"
	"github.com/hyperifyio/htmltext/internal/extract"
	"github.com/hyperifyio/htmltext/internal/sanitize"
)

type (
	// Options controls extraction; see DefaultOptions.
	Options = extract.Options
	// TagSet is a set of lower-case element names.
	TagSet = extract.TagSet
	// Element is the tree contract the extractor walks. Implement it to
	// extract text from trees built by other parsers.
	Element = dom.Element
	// Node is a plain Element for hand-built trees.
	Node = dom.Node
)

// DefaultOptions enables punctuation-aware spacing and layout breaks with
// the default tag sets.
func DefaultOptions() Options { return extract.DefaultOptions() }

// NewTagSet builds a TagSet from element names.
func NewTagSet(names ...string) TagSet { return extract.NewTagSet(names...) }

// NewlineTags returns a copy of the default single line break tags.
func NewlineTags() TagSet { return extract.NewlineTags() }

// DoubleNewlineTags returns a copy of the default blank line tags.
func DoubleNewlineTags() TagSet { return extract.DoubleNewlineTags() }

func options(opts *Options) Options {
	if opts == nil {
		return extract.DefaultOptions()
	}
	return *opts
}

// ExtractText cleans and renders an HTML string. A nil opts means
// DefaultOptions.
func ExtractText(htmlText string, opts *Options) string {
	return extract.FromString(htmlText, options(opts)).Text
}

// ExtractBytes is ExtractText for raw bytes in any charset; contentType is
// the HTTP Content-Type of the input, or "" to sniff the encoding.
func ExtractBytes(b []byte, contentType string, opts *Options) string {
	return extract.FromHTML(b, contentType, options(opts)).Text
}

// ExtractNode cleans a copy of an already parsed tree and renders it. The
// tail of n is not part of the result. n itself is not modified.
func ExtractNode(n *html.Node, opts *Options) string {
	if n == nil {
		return ""
	}
	return extract.Text(dom.FromNode(sanitize.DefaultPolicy().Clean(n)), options(opts))
}

// ExtractElement renders a caller-supplied tree as is, without cleaning.
func ExtractElement(el Element, opts *Options) string {
	return extract.Text(el, options(opts))
}

// ParseHTML parses s into a document tree without cleaning it.
func ParseHTML(s string) (*html.Node, error) {
	return sanitize.ParseString(s)
}

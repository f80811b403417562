package htmltext

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hyperifyio/htmltext/internal/extract"
	"github.com/hyperifyio/htmltext/internal/query"
	"github.com/hyperifyio/htmltext/internal/sanitize"
)

// CleanedDocument parses and cleans htmlText and wraps the result for CSS
// queries. Input that cannot be parsed yields a document holding a single
// text node, on which every query matches nothing.
func CleanedDocument(htmlText string) *goquery.Document {
	res := sanitize.DocumentString(htmlText, sanitize.DefaultPolicy())
	if res.Fallback {
		return goquery.NewDocumentFromNode(&html.Node{Type: html.TextNode, Data: htmlText})
	}
	return goquery.NewDocumentFromNode(res.Node)
}

// SelectionText renders every node of sel independently and joins the
// non-empty results with a single space, in selection order. A whole
// document renders as one tree.
func SelectionText(sel *goquery.Selection, opts *Options) string {
	return extract.Join(query.Elements(sel), options(opts))
}

// ExtractSelector renders the parts of htmlText matched by a CSS selector.
// An empty selector renders the whole document. The only error is an
// invalid selector.
func ExtractSelector(htmlText, selector string, opts *Options) (string, error) {
	doc := CleanedDocument(htmlText)
	if selector == "" {
		return SelectionText(doc.Selection, opts), nil
	}
	m, err := query.Compile(selector)
	if err != nil {
		return "", err
	}
	return SelectionText(doc.FindMatcher(m), opts), nil
}

// Package extract turns cleaned HTML trees into readable plain text.
//
// Text is produced by one depth-first walk that streams the text of every
// element as if its tags were invisible. Inline elements are separated by a
// single space, except before closing punctuation and after an opening
// parenthesis. Block-level elements add a line break or a blank line around
// their content, never more than one blank line in a row.
package extract

import (
    "strings"

    "golang.org/x/net/html"

    "github.com/hyperifyio/htmltext/internal/dom"
    "github.com/hyperifyio/htmltext/internal/sanitize"
)

// Document is the text of a page together with its title.
type Document struct {
    Title string
    Text  string
    // Fallback is set when the input was not parseable as HTML and was
    // treated as plain text.
    Fallback bool
}

// FromHTML cleans and renders raw HTML bytes. contentType may carry a
// charset parameter; without one the encoding is sniffed.
func FromHTML(input []byte, contentType string, opts Options) Document {
    if len(input) == 0 {
        return Document{}
    }
    res := sanitize.Document(input, contentType, sanitize.DefaultPolicy())
    return fromResult(res, opts)
}

// FromString is FromHTML for input that is already UTF-8.
func FromString(input string, opts Options) Document {
    if input == "" {
        return Document{}
    }
    return fromResult(sanitize.DocumentString(input, sanitize.DefaultPolicy()), opts)
}

func fromResult(res sanitize.Result, opts Options) Document {
    return Document{
        Title:    Title(res.Node),
        Text:     Text(res.Root, opts),
        Fallback: res.Fallback,
    }
}

// Title returns the whitespace-normalized text of the first <title> inside
// <head>, or "".
func Title(n *html.Node) string {
    head := findFirst(n, "head")
    if head == nil {
        return ""
    }
    t := findFirst(head, "title")
    if t == nil {
        return ""
    }
    return normalizeSpace(dom.FromNode(t).Text())
}

func findFirst(n *html.Node, tag string) *html.Node {
    if n == nil {
        return nil
    }
    if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
        return n
    }
    for c := n.FirstChild; c != nil; c = c.NextSibling {
        if res := findFirst(c, tag); res != nil {
            return res
        }
    }
    return nil
}

// Package dom describes the element tree the text extractor walks.
//
// The model follows how text streams out of markup when the tags are made
// invisible: every element carries the text before its first child element
// (Text), the text that follows it inside its parent up to the next sibling
// element (Tail), and its child elements in document order.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is a read-only view of one element of a cleaned tree.
// Empty strings stand for absent text.
type Element interface {
	Tag() string
	Text() string
	Tail() string
	Children() []Element
}

// Node is a plain Element used for hand-built trees. A nil *Node reads as
// an empty element.
type Node struct {
	Name    string
	Content string
	After   string
	Kids    []*Node
}

func (n *Node) Tag() string {
	if n == nil {
		return ""
	}
	return strings.ToLower(n.Name)
}

func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return n.Content
}

func (n *Node) Tail() string {
	if n == nil {
		return ""
	}
	return n.After
}

func (n *Node) Children() []Element {
	if n == nil || len(n.Kids) == 0 {
		return nil
	}
	out := make([]Element, 0, len(n.Kids))
	for _, k := range n.Kids {
		if k != nil {
			out = append(out, k)
		}
	}
	return out
}

// Literal wraps plain text as a childless element with no tag. It is what
// input that could not be parsed as HTML degrades to.
func Literal(text string) Element {
	return &Node{Content: text}
}

// htmlElement adapts an x/net/html element node.
type htmlElement struct {
	n *html.Node
}

// FromNode adapts n to Element. A document node is adapted to its root
// element. It returns nil when n is nil or holds no element.
func FromNode(n *html.Node) Element {
	if n == nil {
		return nil
	}
	if n.Type == html.DocumentNode {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				return htmlElement{n: c}
			}
		}
		return nil
	}
	if n.Type == html.TextNode {
		return Literal(n.Data)
	}
	if n.Type != html.ElementNode {
		return nil
	}
	return htmlElement{n: n}
}

func (e htmlElement) Tag() string { return strings.ToLower(e.n.Data) }

func (e htmlElement) Text() string {
	return textRun(e.n.FirstChild)
}

func (e htmlElement) Tail() string {
	return textRun(e.n.NextSibling)
}

func (e htmlElement) Children() []Element {
	var out []Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, htmlElement{n: c})
		}
	}
	return out
}

// HTMLNode returns the wrapped html node of an adapted element, or nil.
func HTMLNode(e Element) *html.Node {
	if he, ok := e.(htmlElement); ok {
		return he.n
	}
	return nil
}

// textRun concatenates text nodes starting at n until the next element.
// Comments and other non-element nodes do not end the run.
func textRun(n *html.Node) string {
	var first string
	var b *strings.Builder
	for ; n != nil && n.Type != html.ElementNode; n = n.NextSibling {
		if n.Type != html.TextNode || n.Data == "" {
			continue
		}
		switch {
		case b != nil:
			b.WriteString(n.Data)
		case first == "":
			first = n.Data
		default:
			b = &strings.Builder{}
			b.WriteString(first)
			b.WriteString(n.Data)
		}
	}
	if b != nil {
		return b.String()
	}
	return first
}

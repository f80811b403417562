// Package sanitize parses HTML and removes content a reader never sees:
// scripts, styles, comments, processing instructions, embedded objects,
// frames and head metadata. Forms and the document title are kept.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// Policy selects which categories of markup Clean removes.
type Policy struct {
	Scripts                bool
	Styles                 bool
	Comments               bool
	Links                  bool
	Meta                   bool
	ProcessingInstructions bool
	Embedded               bool
	Frames                 bool
	// Forms drops form controls and unwraps <form>.
	Forms bool
	// PageStructure unwraps <head> and <title>.
	PageStructure bool
}

// DefaultPolicy is the cleaning policy used before text extraction.
func DefaultPolicy() Policy {
	return Policy{
		Scripts:                true,
		Styles:                 true,
		Comments:               true,
		Links:                  true,
		Meta:                   true,
		ProcessingInstructions: true,
		Embedded:               true,
		Frames:                 true,
	}
}

// Elements in kill are removed together with their content; elements in
// unwrap lose only the tag itself.
func (p Policy) tagSets() (kill, unwrap map[string]bool) {
	kill = map[string]bool{}
	unwrap = map[string]bool{}
	if p.Scripts {
		kill["script"] = true
	}
	if p.Styles {
		kill["style"] = true
	}
	if p.Links {
		kill["link"] = true
	}
	if p.Meta {
		kill["meta"] = true
	}
	if p.Embedded {
		for _, t := range []string{"applet", "object", "embed", "param", "iframe", "layer"} {
			kill[t] = true
		}
	}
	if p.Frames {
		kill["frame"] = true
		kill["frameset"] = true
	}
	if p.Forms {
		for _, t := range []string{"button", "input", "select", "textarea"} {
			kill[t] = true
		}
		unwrap["form"] = true
	}
	if p.PageStructure {
		unwrap["head"] = true
		unwrap["title"] = true
	}
	return kill, unwrap
}

// Clean returns a cleaned deep copy of n; n itself is left untouched.
func (p Policy) Clean(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	out := cloneTree(n)
	kill, unwrap := p.tagSets()
	if out.Type == html.ElementNode && kill[strings.ToLower(out.Data)] {
		for c := out.FirstChild; c != nil; c = out.FirstChild {
			out.RemoveChild(c)
		}
		return out
	}
	p.cleanChildren(out, kill, unwrap)
	return out
}

func (p Policy) cleanChildren(parent *html.Node, kill, unwrap map[string]bool) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.CommentNode:
			if p.Comments || (p.ProcessingInstructions && isProcessingInstruction(c)) {
				parent.RemoveChild(c)
			}
		case html.ElementNode:
			tag := strings.ToLower(c.Data)
			switch {
			case kill[tag], p.Styles && tag == "link" && isStylesheet(c):
				parent.RemoveChild(c)
			case unwrap[tag] && parent.Type != html.DocumentNode:
				p.cleanChildren(c, kill, unwrap)
				for k := c.FirstChild; k != nil; k = c.FirstChild {
					c.RemoveChild(k)
					parent.InsertBefore(k, c)
				}
				parent.RemoveChild(c)
			default:
				p.cleanChildren(c, kill, unwrap)
			}
		}
		c = next
	}
}

// The HTML5 tokenizer reports <?...> as a bogus comment whose data keeps
// the leading question mark.
func isProcessingInstruction(n *html.Node) bool {
	return strings.HasPrefix(n.Data, "?")
}

func isStylesheet(n *html.Node) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "rel") && strings.Contains(strings.ToLower(a.Val), "stylesheet") {
			return true
		}
	}
	return false
}

func cloneTree(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	for k := n.FirstChild; k != nil; k = k.NextSibling {
		c.AppendChild(cloneTree(k))
	}
	return c
}

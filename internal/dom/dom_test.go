package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parse(t *testing.T, s string) *html.Node {
	t.Helper()
	n, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return n
}

func find(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := find(c, tag); f != nil {
			return f
		}
	}
	return nil
}

func TestFromNode_DocumentAdaptsToRootElement(t *testing.T) {
	doc := parse(t, "<p>hi</p>")
	el := FromNode(doc)
	require.NotNil(t, el)
	assert.Equal(t, "html", el.Tag())
	kids := el.Children()
	require.Len(t, kids, 2)
	assert.Equal(t, "head", kids[0].Tag())
	assert.Equal(t, "body", kids[1].Tag())
}

func TestFromNode_TextAndTail(t *testing.T) {
	doc := parse(t, "<div>lead <b>bold</b> middle <i>it</i> end</div>")
	div := FromNode(find(doc, "div"))
	assert.Equal(t, "lead ", div.Text())
	assert.Equal(t, "", div.Tail())

	kids := div.Children()
	require.Len(t, kids, 2)
	assert.Equal(t, "b", kids[0].Tag())
	assert.Equal(t, "bold", kids[0].Text())
	assert.Equal(t, " middle ", kids[0].Tail())
	assert.Equal(t, "it", kids[1].Text())
	assert.Equal(t, " end", kids[1].Tail())
}

func TestFromNode_CommentDoesNotSplitText(t *testing.T) {
	doc := parse(t, "<div>one<!-- c -->two<span>x</span></div>")
	div := FromNode(find(doc, "div"))
	assert.Equal(t, "onetwo", div.Text())
	require.Len(t, div.Children(), 1)
}

func TestFromNode_NilAndNonElement(t *testing.T) {
	assert.Nil(t, FromNode(nil))
	assert.Nil(t, FromNode(&html.Node{Type: html.CommentNode, Data: "x"}))
	assert.Nil(t, FromNode(&html.Node{Type: html.DocumentNode}))

	txt := FromNode(&html.Node{Type: html.TextNode, Data: "plain"})
	require.NotNil(t, txt)
	assert.Equal(t, "plain", txt.Text())
}

func TestHTMLNode(t *testing.T) {
	doc := parse(t, "<p>a</p>")
	p := find(doc, "p")
	assert.Same(t, p, HTMLNode(FromNode(p)))
	assert.Nil(t, HTMLNode(Literal("x")))
}

func TestNode_ChildrenSkipsNil(t *testing.T) {
	n := &Node{Name: "div", Kids: []*Node{{Name: "p"}, nil, {Name: "span"}}}
	kids := n.Children()
	require.Len(t, kids, 2)
	assert.Equal(t, "p", kids[0].Tag())
	assert.Equal(t, "span", kids[1].Tag())
	assert.Nil(t, (&Node{}).Children())
}

func TestLiteral(t *testing.T) {
	l := Literal("  some text ")
	assert.Equal(t, "", l.Tag())
	assert.Equal(t, "  some text ", l.Text())
	assert.Equal(t, "", l.Tail())
	assert.Empty(t, l.Children())
}

func TestNode_TagIsLowerCase(t *testing.T) {
	n := &Node{Name: "DIV", Kids: []*Node{{Name: "P"}}}
	assert.Equal(t, "div", n.Tag())
	assert.Equal(t, "p", n.Children()[0].Tag())
}

func TestNode_NilReadsAsEmpty(t *testing.T) {
	var n *Node
	assert.Equal(t, "", n.Tag())
	assert.Equal(t, "", n.Text())
	assert.Equal(t, "", n.Tail())
	assert.Nil(t, n.Children())
}

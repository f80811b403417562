package htmltext

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestExtractText_Defaults(t *testing.T) {
	assert.Equal(t, "A\n\nB", ExtractText("<p>A</p><p>B</p>", nil))
	assert.Equal(t, "A B", ExtractText("<span>A</span><span>B</span>", nil))
	assert.Equal(t, "Hello", ExtractText("<script>alert(1)</script><p>Hello</p>", nil))
	assert.Equal(t, "hello, world", ExtractText("<span>hello</span><span>, world</span>", nil))
	assert.Equal(t, "open (door)", ExtractText("<span>open (</span><span>door)</span>", nil))
}

func TestExtractText_Options(t *testing.T) {
	opts := DefaultOptions()
	opts.GuessLayout = false
	assert.Equal(t, "A B", ExtractText("<p>A</p><p>B</p>", &opts))

	opts = DefaultOptions()
	opts.DoubleNewlineTags = DoubleNewlineTags().Without("p")
	opts.NewlineTags = NewlineTags().With("p")
	assert.Equal(t, "A\nB", ExtractText("<p>A</p><p>B</p>", &opts))
}

func TestExtractText_Empty(t *testing.T) {
	assert.Equal(t, "", ExtractText("", nil))
	assert.Equal(t, "", ExtractBytes(nil, "", nil))
	assert.Equal(t, "", ExtractNode(nil, nil))
	assert.Equal(t, "", ExtractElement(nil, nil))

	var n *Node
	assert.Equal(t, "", ExtractElement(n, nil))
}

func TestExtractText_PlainTextInput(t *testing.T) {
	assert.Equal(t, "just some text", ExtractText("  just   some\ntext ", nil))
}

func TestExtractBytes_Charset(t *testing.T) {
	assert.Equal(t, "naïve", ExtractBytes([]byte("<p>na\xefve</p>"), "text/html; charset=iso-8859-1", nil))
	assert.Equal(t, "<p>x</p>", ExtractBytes([]byte("<p>x</p>"), "text/html; charset=unknown-thing", nil))
}

func TestExtractNode_SubtreeAndNoMutation(t *testing.T) {
	doc, err := ParseHTML(`<div><span>in</span> tail<script>x()</script></div>`)
	require.NoError(t, err)

	var before bytes.Buffer
	require.NoError(t, html.Render(&before, doc))

	assert.Equal(t, "in tail", ExtractNode(doc, nil))

	span := findTag(doc, "span")
	require.NotNil(t, span)
	assert.Equal(t, "in", ExtractNode(span, nil))

	var after bytes.Buffer
	require.NoError(t, html.Render(&after, doc))
	assert.Equal(t, before.String(), after.String())
	assert.Contains(t, after.String(), "x()")
}

func TestExtractElement_CustomTree(t *testing.T) {
	root := &Node{Name: "article", Kids: []*Node{
		{Name: "h2", Content: "Heading"},
		{Name: "span", Content: "one", After: " two "},
		{Name: "em", Content: "(three"},
		{Name: "em", Content: ")"},
	}}
	assert.Equal(t, "Heading\n\none two (three)", ExtractElement(root, nil))
}

func TestExtractSelector_JoinsMatches(t *testing.T) {
	out, err := ExtractSelector(`<ul><li>A</li><li> </li><li>B</li></ul><p>skip</p>`, "li", nil)
	require.NoError(t, err)
	assert.Equal(t, "A B", out)
}

func TestExtractSelector_MatchTailIgnored(t *testing.T) {
	out, err := ExtractSelector(`<div><b>bold</b> trailing <b>again</b></div>`, "b", nil)
	require.NoError(t, err)
	assert.Equal(t, "bold again", out)
}

func TestExtractSelector_BlockMatchesKeepInnerLayout(t *testing.T) {
	out, err := ExtractSelector(`<div class="c"><p>x</p><p>y</p></div><div class="c">z</div>`, "div.c", nil)
	require.NoError(t, err)
	assert.Equal(t, "x\n\ny z", out)
}

func TestExtractSelector_EmptySelectorIsWholeDocument(t *testing.T) {
	out, err := ExtractSelector(`<title>T</title><p>body</p>`, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "T\n\nbody", out)
}

func TestExtractSelector_NoMatches(t *testing.T) {
	out, err := ExtractSelector(`<p>x</p>`, "table", nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestExtractSelector_InvalidSelector(t *testing.T) {
	_, err := ExtractSelector(`<p>x</p>`, "p[[", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p[[")
}

func TestCleanedDocument_ScriptsRemovedBeforeQuery(t *testing.T) {
	doc := CleanedDocument(`<div id="a">keep<script>drop()</script></div>`)
	assert.Equal(t, 0, doc.Find("script").Length())
	assert.Equal(t, "keep", SelectionText(doc.Find("#a"), nil))
	assert.Equal(t, "", SelectionText(nil, nil))
}

func TestOutputShape(t *testing.T) {
	in := strings.Repeat("<div><h3>h</h3><ul><li>a</li><li><p>b</p></li></ul><br><hr></div>", 5)
	out := ExtractText(in, nil)
	assert.Equal(t, strings.TrimSpace(out), out)
	assert.NotContains(t, out, "\n\n\n")
	assert.NotContains(t, out, "\n ")
}

func findTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findTag(c, tag); f != nil {
			return f
		}
	}
	return nil
}

package query

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/hyperifyio/htmltext/internal/extract"
)

func parse(t *testing.T, s string) *html.Node {
	t.Helper()
	n, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return n
}

func TestSelect_DocumentOrder(t *testing.T) {
	doc := parse(t, `<div class="x">one</div><p><span class="x">two</span></p><b class="x">three</b>`)
	m, err := Compile(".x")
	require.NoError(t, err)

	els := Select(doc, m)
	require.Len(t, els, 3)
	assert.Equal(t, "div", els[0].Tag())
	assert.Equal(t, "two", els[1].Text())
	assert.Equal(t, "b", els[2].Tag())
}

func TestSelect_NilInputs(t *testing.T) {
	m, err := Compile("p")
	require.NoError(t, err)
	assert.Nil(t, Select(nil, m))
	assert.Nil(t, Select(parse(t, "<p>x</p>"), nil))
	assert.Nil(t, Elements(nil))
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("div >")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"div >"`)
}

func TestElements_Document(t *testing.T) {
	doc := goquery.NewDocumentFromNode(parse(t, "<p>x</p>"))
	els := Elements(doc.Selection)
	require.Len(t, els, 1)
	assert.Equal(t, "html", els[0].Tag())
}

func TestExtract_Scoped(t *testing.T) {
	m, err := Compile("article p")
	require.NoError(t, err)
	in := []byte(`<title>T</title><p>skip</p><article><p>one</p><div><p>two,</p></div></article>`)

	doc := Extract(in, "text/html", m, extract.DefaultOptions())
	assert.Equal(t, "T", doc.Title)
	assert.Equal(t, "one two,", doc.Text)
	assert.False(t, doc.Fallback)
}

func TestExtract_WholeDocumentWithoutMatcher(t *testing.T) {
	doc := Extract([]byte("<p>a</p><p>b</p>"), "", nil, extract.DefaultOptions())
	assert.Equal(t, "a\n\nb", doc.Text)
}

func TestExtract_FallbackMatchesNothing(t *testing.T) {
	m, err := Compile("p")
	require.NoError(t, err)
	doc := Extract([]byte("<p>a</p>"), "text/html; charset=bogus", m, extract.DefaultOptions())
	assert.True(t, doc.Fallback)
	assert.Equal(t, "", doc.Text)
	assert.Equal(t, extract.Document{}, Extract(nil, "", m, extract.DefaultOptions()))
}

func TestCompile_MatcherWorksWithGoquery(t *testing.T) {
	m, err := Compile("p.keep")
	require.NoError(t, err)
	doc := goquery.NewDocumentFromNode(parse(t, `<div><p class="keep">A</p><p>B</p><p class="keep">C</p></div>`))
	assert.Equal(t, 2, doc.FindMatcher(m).Length())
	assert.Equal(t, 2, doc.Find("p").FilterMatcher(m).Length())
	assert.Equal(t, "A C", extract.Join(Select(parse(t, `<p class="keep">A</p><p>B</p><p class="keep">C</p>`), m), extract.DefaultOptions()))
}

package sanitize

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/hyperifyio/htmltext/internal/dom"
)

var (
	// ErrParse marks input the HTML parser could not turn into a tree.
	ErrParse = errors.New("html parse failed")
	// ErrEncoding marks input that could not be decoded to UTF-8.
	ErrEncoding = errors.New("html decode failed")
)

// Result is the outcome of preparing raw input for extraction. When the
// input could not be parsed, Root holds the whole input as literal text,
// Fallback is set and Err records why.
type Result struct {
	Root     dom.Element
	Node     *html.Node
	Fallback bool
	Err      error
}

// Parse decodes r to UTF-8 and parses it as an HTML document. An explicit
// charset parameter in contentType wins; otherwise the encoding is sniffed
// from BOM, meta tags and content. Scripting is disabled so that <noscript>
// content is parsed as markup.
func Parse(r io.Reader, contentType string) (*html.Node, error) {
	decoded, err := decode(r, contentType)
	if err != nil {
		return nil, err
	}
	return parseUTF8(decoded)
}

// ParseString parses s, which is already UTF-8, as an HTML document.
func ParseString(s string) (*html.Node, error) {
	return parseUTF8(strings.NewReader(s))
}

func parseUTF8(r io.Reader) (*html.Node, error) {
	doc, err := html.ParseWithOptions(r, html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return doc, nil
}

func decode(r io.Reader, contentType string) (io.Reader, error) {
	if label := charsetParam(contentType); label != "" {
		enc, err := htmlindex.Get(label)
		if err != nil {
			return nil, fmt.Errorf("%w: charset %q: %v", ErrEncoding, label, err)
		}
		return enc.NewDecoder().Reader(r), nil
	}
	out, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return out, nil
}

func charsetParam(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["charset"])
}

// Document parses and cleans raw bytes with p.
func Document(raw []byte, contentType string, p Policy) Result {
	doc, err := Parse(bytes.NewReader(raw), contentType)
	return finish(string(raw), doc, err, p)
}

// DocumentString parses and cleans a UTF-8 string with p.
func DocumentString(s string, p Policy) Result {
	doc, err := ParseString(s)
	return finish(s, doc, err, p)
}

func finish(raw string, doc *html.Node, err error, p Policy) Result {
	if err == nil {
		cleaned := p.Clean(doc)
		if root := dom.FromNode(cleaned); root != nil {
			return Result{Root: root, Node: cleaned}
		}
		err = fmt.Errorf("%w: no root element", ErrParse)
	}
	log.Debug().Err(err).Int("bytes", len(raw)).Msg("treating input as plain text")
	return Result{Root: dom.Literal(raw), Fallback: true, Err: err}
}

package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperifyio/htmltext/internal/dom"
)

// markerKind records what was last written to the output.
type markerKind int

const (
	// atDoubleBreak is the initial state: nothing written yet, or a blank
	// line was just emitted. No leading space or further break follows it.
	atDoubleBreak markerKind = iota
	atBreak
	afterText
)

// marker is the previous-output state. text holds the raw, unnormalized
// fragment when kind is afterText.
type marker struct {
	kind markerKind
	text string
}

// walker owns the state of one extraction.
type walker struct {
	guessPunct  bool
	guessLayout bool
	newline     TagSet
	double      TagSet

	prev marker
	out  strings.Builder
}

// Text renders a cleaned tree rooted at root as plain text. The tail of root
// lies outside the tree and is ignored.
func Text(root dom.Element, opts Options) string {
	if root == nil {
		return ""
	}
	w := &walker{
		guessPunct:  opts.GuessPunctSpace,
		guessLayout: opts.GuessLayout,
		newline:     opts.newlineTags(),
		double:      opts.doubleNewlineTags(),
	}
	w.visit(root, false)
	return strings.TrimSpace(w.out.String())
}

// Join renders every tree independently and joins the non-empty results with
// a single space, in order.
func Join(roots []dom.Element, opts Options) string {
	parts := make([]string, 0, len(roots))
	for _, r := range roots {
		if t := Text(r, opts); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (w *walker) visit(e dom.Element, withTail bool) {
	tag := e.Tag()
	w.layout(tag)
	w.text(e.Text())
	for _, c := range e.Children() {
		w.visit(c, true)
	}
	// Same check on the way out; layout is a no-op right after a blank line,
	// so nested block tags never stack breaks.
	w.layout(tag)
	if withTail {
		w.text(e.Tail())
	}
}

func (w *walker) layout(tag string) {
	if !w.guessLayout || w.prev.kind == atDoubleBreak {
		return
	}
	switch {
	case w.double.Has(tag):
		if w.prev.kind == atBreak {
			w.out.WriteString("\n")
		} else {
			w.out.WriteString("\n\n")
		}
		w.prev = marker{kind: atDoubleBreak}
	case w.newline.Has(tag):
		if w.prev.kind != atBreak {
			w.out.WriteString("\n")
		}
		w.prev = marker{kind: atBreak}
	}
}

func (w *walker) text(raw string) {
	if raw == "" {
		return
	}
	norm := normalizeSpace(raw)
	if norm == "" {
		return
	}
	w.out.WriteString(w.spaceBefore(norm))
	w.out.WriteString(norm)
	w.prev = marker{kind: afterText, text: raw}
}

func (w *walker) spaceBefore(next string) string {
	if !w.guessPunct {
		return " "
	}
	if w.prev.kind != afterText {
		return ""
	}
	prev := w.prev.text
	if endsWithSpace(prev) {
		return " "
	}
	if startsWithClosingPunct(next) || strings.HasSuffix(prev, "(") {
		return ""
	}
	return " "
}

func startsWithClosingPunct(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case ',', ':', ';', '.', '!', '?', '"', ')':
		return true
	}
	return false
}

func endsWithSpace(s string) bool {
	r, size := utf8.DecodeLastRuneInString(s)
	return size > 0 && isSpace(r)
}

// isSpace matches the white space recognised when collapsing runs: Unicode
// white space, including no-break space, plus the ASCII separator controls.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// normalizeSpace trims s and collapses inner white space runs to one space.
func normalizeSpace(s string) string {
	fields := strings.FieldsFunc(s, isSpace)
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	}
	return strings.Join(fields, " ")
}

package extract

import (
	"sort"
	"strings"
)

// TagSet is a set of lower-case element names.
type TagSet map[string]struct{}

// NewTagSet builds a set from names; names are lower-cased and trimmed,
// empty names are ignored.
func NewTagSet(names ...string) TagSet {
	s := make(TagSet, len(names))
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// With returns a copy of s extended with names.
func (s TagSet) With(names ...string) TagSet {
	out := NewTagSet(names...)
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Without returns a copy of s with names removed.
func (s TagSet) Without(names ...string) TagSet {
	drop := NewTagSet(names...)
	out := make(TagSet, len(s))
	for k := range s {
		if !drop.Has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

// Names lists the set in sorted order.
func (s TagSet) Names() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var (
	defaultNewlineTags = NewTagSet(
		"article", "aside", "br", "dd", "details", "div", "dt", "fieldset",
		"figcaption", "footer", "form", "header", "hr", "legend", "li", "main",
		"nav", "table", "tr",
	)
	defaultDoubleNewlineTags = NewTagSet(
		"blockquote", "dl", "figure", "h1", "h2", "h3", "h4", "h5", "h6", "ol",
		"p", "pre", "title", "ul",
	)
)

// NewlineTags returns a fresh copy of the tags that get a line break before
// and after their content.
func NewlineTags() TagSet { return defaultNewlineTags.With() }

// DoubleNewlineTags returns a fresh copy of the tags that get a blank line
// before and after their content.
func DoubleNewlineTags() TagSet { return defaultDoubleNewlineTags.With() }

// Options controls text extraction. The zero value disables both heuristics
// and uses the default tag sets.
type Options struct {
	// GuessPunctSpace suppresses the space inserted before closing
	// punctuation and after an opening parenthesis.
	GuessPunctSpace bool
	// GuessLayout inserts line breaks around NewlineTags and blank lines
	// around DoubleNewlineTags.
	GuessLayout bool
	// NewlineTags and DoubleNewlineTags fall back to the defaults when nil.
	// An empty non-nil set disables the corresponding breaks.
	NewlineTags       TagSet
	DoubleNewlineTags TagSet
}

// DefaultOptions enables both heuristics with the default tag sets.
func DefaultOptions() Options {
	return Options{GuessPunctSpace: true, GuessLayout: true}
}

func (o Options) newlineTags() TagSet {
	if o.NewlineTags == nil {
		return defaultNewlineTags
	}
	return o.NewlineTags
}

func (o Options) doubleNewlineTags() TagSet {
	if o.DoubleNewlineTags == nil {
		return defaultDoubleNewlineTags
	}
	return o.DoubleNewlineTags
}

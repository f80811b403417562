package app

import (
	"strings"
	"time"

	"github.com/hyperifyio/htmltext/internal/extract"
)

// Config holds runtime configuration for the CLI.
type Config struct {
	// Input: exactly one of InputPath and URL. InputPath "-" reads stdin.
	InputPath string
	URL       string
	// OutputPath "" or "-" writes to stdout.
	OutputPath string

	// ContentType is used for file and stdin input; its charset parameter
	// overrides sniffing. URL input uses the response header.
	ContentType string
	Selector    string
	JSON        bool

	// Extraction
	NoPunct           bool
	NoLayout          bool
	NewlineTags       []string
	DoubleNewlineTags []string

	// Fetching
	UserAgent    string
	Timeout      time.Duration
	MaxBytes     int64
	MaxRedirects int
	// RespectRobots refuses URLs disallowed by the site's robots.txt.
	RespectRobots bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheMaxBytes    int64
	CacheMaxEntries  int
	CacheClear       bool
	CacheStrictPerms bool
	NoCache          bool

	Verbose bool
}

const (
	DefaultUserAgent = "htmltext/1.0 (+https://github.com/hyperifyio/htmltext)"
	DefaultTimeout   = 15 * time.Second
	DefaultMaxBytes  = 5 << 20
	DefaultCacheDir  = ".htmltext-cache"
)

// Options converts the extraction settings. Tag lists left empty keep the
// default sets.
func (c Config) Options() extract.Options {
	opts := extract.Options{
		GuessPunctSpace: !c.NoPunct,
		GuessLayout:     !c.NoLayout,
	}
	if len(c.NewlineTags) > 0 {
		opts.NewlineTags = extract.NewTagSet(c.NewlineTags...)
	}
	if len(c.DoubleNewlineTags) > 0 {
		opts.DoubleNewlineTags = extract.NewTagSet(c.DoubleNewlineTags...)
	}
	return opts
}

// SplitList splits a comma separated list, dropping empty items.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

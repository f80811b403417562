// Package app implements the htmltext command line tool: it reads HTML from
// a file, stdin or a URL and writes the extracted text.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/htmltext/internal/cache"
	"github.com/hyperifyio/htmltext/internal/extract"
	"github.com/hyperifyio/htmltext/internal/fetch"
	"github.com/hyperifyio/htmltext/internal/query"
	"github.com/hyperifyio/htmltext/internal/robots"
)

var (
	// ErrNoInput is returned when neither an input path nor a URL is set.
	ErrNoInput = errors.New("no input: set -input or -url")
	// ErrEmptyOutput is returned after writing when the extracted text is
	// empty.
	ErrEmptyOutput = errors.New("extraction produced no text")
)

type App struct {
	cfg     Config
	opts    extract.Options
	matcher goquery.Matcher
	fetcher *fetch.Client

	stdin  io.Reader
	stdout io.Writer
}

// Output is the document written with -json.
type Output struct {
	Source    string `json:"source"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
	Fallback  bool   `json:"fallback"`
	FromCache bool   `json:"from_cache,omitempty"`
}

// input is raw HTML with its origin.
type input struct {
	source      string
	contentType string
	body        []byte
	fromCache   bool
}

func New(cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, opts: cfg.Options(), stdin: os.Stdin, stdout: os.Stdout}
	if cfg.Selector != "" {
		m, err := query.Compile(cfg.Selector)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		a.matcher = m
	}
	if cfg.URL != "" {
		a.fetcher = &fetch.Client{
			HTTPClient:        newHTTPClient(cfg.Timeout),
			UserAgent:         cfg.UserAgent,
			MaxAttempts:       2,
			PerRequestTimeout: cfg.Timeout,
			MaxBytes:          cfg.MaxBytes,
			RedirectMaxHops:   cfg.MaxRedirects,
		}
		if cfg.CacheDir != "" && !cfg.NoCache {
			a.fetcher.Cache = openCache(cfg)
		}
		if cfg.RespectRobots {
			a.fetcher.Robots = &robots.Checker{
				HTTPClient: a.fetcher.HTTPClient,
				UserAgent:  cfg.UserAgent,
				Cache:      a.fetcher.Cache,
			}
		}
	}
	return a, nil
}

// openCache applies the invalidation settings and returns the page cache.
// Maintenance failures are logged; a stale cache never blocks a run.
func openCache(cfg Config) *cache.PageCache {
	if cfg.CacheClear {
		if err := cache.ClearDir(cfg.CacheDir); err != nil {
			log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
		}
	}
	if cfg.CacheMaxAge > 0 {
		n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge)
		if err != nil {
			log.Warn().Err(err).Msg("cache purge failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Dur("max_age", cfg.CacheMaxAge).Msg("cache purged")
		}
	}
	if cfg.CacheMaxBytes > 0 || cfg.CacheMaxEntries > 0 {
		n, err := cache.EnforceLimits(cfg.CacheDir, cfg.CacheMaxBytes, cfg.CacheMaxEntries)
		if err != nil {
			log.Warn().Err(err).Msg("cache limit enforcement failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("cache trimmed")
		}
	}
	return &cache.PageCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
}

// SetIO replaces stdin and stdout.
func (a *App) SetIO(stdin io.Reader, stdout io.Writer) {
	a.stdin = stdin
	a.stdout = stdout
}

// Run reads the input, extracts its text and writes the result.
func (a *App) Run(ctx context.Context) error {
	in, err := a.read(ctx)
	if err != nil {
		return err
	}
	doc := query.Extract(in.body, in.contentType, a.matcher, a.opts)
	log.Debug().
		Str("source", in.source).
		Int("bytes", len(in.body)).
		Int("chars", len(doc.Text)).
		Bool("fallback", doc.Fallback).
		Bool("from_cache", in.fromCache).
		Msg("extracted")

	out := Output{
		Source:    in.source,
		Title:     doc.Title,
		Text:      doc.Text,
		Fallback:  doc.Fallback,
		FromCache: in.fromCache,
	}
	if err := a.write(out); err != nil {
		return err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return ErrEmptyOutput
	}
	return nil
}

func (a *App) read(ctx context.Context) (input, error) {
	switch {
	case a.cfg.URL != "":
		page, err := a.fetcher.Get(ctx, a.cfg.URL)
		if err != nil {
			return input{}, fmt.Errorf("fetch %s: %w", a.cfg.URL, err)
		}
		return input{source: page.URL, contentType: page.ContentType, body: page.Body, fromCache: page.FromCache}, nil
	case a.cfg.InputPath == "-":
		b, err := io.ReadAll(a.stdin)
		if err != nil {
			return input{}, fmt.Errorf("read stdin: %w", err)
		}
		return input{source: "-", contentType: a.cfg.ContentType, body: b}, nil
	case a.cfg.InputPath != "":
		b, err := os.ReadFile(a.cfg.InputPath)
		if err != nil {
			return input{}, fmt.Errorf("read input: %w", err)
		}
		return input{source: a.cfg.InputPath, contentType: a.cfg.ContentType, body: b}, nil
	}
	return input{}, ErrNoInput
}

func (a *App) write(out Output) error {
	var payload []byte
	if a.cfg.JSON {
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		payload = append(b, '\n')
	} else {
		payload = []byte(out.Text)
		if out.Text != "" {
			payload = append(payload, '\n')
		}
	}

	if a.cfg.OutputPath == "" || a.cfg.OutputPath == "-" {
		if _, err := a.stdout.Write(payload); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(a.cfg.OutputPath, payload, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("path", a.cfg.OutputPath).Int("chars", len(out.Text)).Msg("wrote text")
	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/htmltext/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		cfg               app.Config
		configPath        string
		newlineTags       string
		doubleNewlineTags string
		showVersion       bool
	)

	flag.StringVar(&cfg.InputPath, "input", "", "Path to an HTML file, or - for stdin (also the first argument)")
	flag.StringVar(&cfg.URL, "url", "", "Fetch the HTML from this http(s) URL")
	flag.StringVar(&cfg.OutputPath, "output", "", "Write text to this file instead of stdout")
	flag.StringVar(&configPath, "config", os.Getenv("HTMLTEXT_CONFIG"), "Path to a YAML or JSON config file")
	flag.StringVar(&cfg.Selector, "selector", "", "CSS selector; only matching elements are extracted")
	flag.StringVar(&cfg.ContentType, "content-type", "", "Content type of file input, e.g. 'text/html; charset=iso-8859-1'")
	flag.BoolVar(&cfg.JSON, "json", false, "Write a JSON document with source, title and text")
	flag.BoolVar(&cfg.NoPunct, "no-punct", false, "Always put a space between inline fragments")
	flag.BoolVar(&cfg.NoLayout, "no-layout", false, "Do not insert line breaks around block elements")
	flag.StringVar(&newlineTags, "newline-tags", "", "Comma-separated tags that get a line break (replaces the default set)")
	flag.StringVar(&doubleNewlineTags, "double-newline-tags", "", "Comma-separated tags that get a blank line (replaces the default set)")
	flag.StringVar(&cfg.UserAgent, "user-agent", app.DefaultUserAgent, "User-Agent for URL input")
	flag.DurationVar(&cfg.Timeout, "timeout", app.DefaultTimeout, "Timeout per fetch attempt")
	flag.Int64Var(&cfg.MaxBytes, "max-bytes", app.DefaultMaxBytes, "Maximum page size for URL input")
	flag.BoolVar(&cfg.RespectRobots, "robots", false, "Refuse URLs disallowed by the site's robots.txt")
	flag.IntVar(&cfg.MaxRedirects, "max-redirects", 0, "Maximum redirects to follow (0 means 5)")
	flag.StringVar(&cfg.CacheDir, "cache.dir", app.DefaultCacheDir, "Page cache directory for URL input")
	flag.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this (e.g. 24h); 0 disables")
	flag.Int64Var(&cfg.CacheMaxBytes, "cache.maxBytes", 0, "Evict least recently used entries above this total size; 0 disables")
	flag.IntVar(&cfg.CacheMaxEntries, "cache.maxEntries", 0, "Evict least recently used entries above this count; 0 disables")
	flag.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear the cache directory before the run")
	flag.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.BoolVar(&cfg.NoCache, "no-cache", false, "Do not use the page cache")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(app.VersionString())
		return
	}
	if cfg.InputPath == "" && cfg.URL == "" && flag.NArg() > 0 {
		cfg.InputPath = flag.Arg(0)
	}
	cfg.NewlineTags = app.SplitList(newlineTags)
	cfg.DoubleNewlineTags = app.SplitList(doubleNewlineTags)

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config")
			os.Exit(2)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if err := app.ApplyEnvToConfig(&cfg); err != nil {
		log.Error().Err(err).Msg("read environment")
		os.Exit(2)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	os.Exit(exitCode(run(cfg)))
}

func run(cfg app.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// exitCode maps run errors: 2 for configuration problems, 1 for failures
// and empty output, 0 otherwise.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrConfig):
		log.Error().Err(err).Msg("invalid configuration")
		return 2
	case errors.Is(err, app.ErrEmptyOutput):
		log.Warn().Err(err).Msg("no text extracted")
		return 1
	}
	log.Error().Err(err).Msg("run failed")
	return 1
}

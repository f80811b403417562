package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/htmltext/internal/api"
	"github.com/hyperifyio/htmltext/internal/cache"
	"github.com/hyperifyio/htmltext/internal/fetch"
	"github.com/hyperifyio/htmltext/internal/robots"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := initConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Can not init config")
	}
	if err := initLogger(cfg); err != nil {
		log.Fatal().Err(err).Msg("Can not init logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := api.New(api.Config{
		Addr:      cfg.Listen,
		BodyLimit: cfg.MaxBody,
		Fetcher:   newFetcher(cfg),
	})
	errc := make(chan error, 1)
	go func() { errc <- a.Start() }()

	select {
	case err := <-errc:
		if err != nil {
			log.Fatal().Err(err).Msg("Can not start service")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
		defer cancel()
		if err := a.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}
}

// newFetcher returns nil unless URL input is enabled.
func newFetcher(cfg *config) *fetch.Client {
	if !cfg.AllowURL {
		return nil
	}
	c := &fetch.Client{
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       2,
		PerRequestTimeout: cfg.FetchTimeout,
		MaxBytes:          cfg.MaxPageBytes,
		MaxConcurrent:     cfg.MaxFetches,
	}
	if cfg.CacheDir != "" {
		c.Cache = &cache.PageCache{Dir: cfg.CacheDir}
	}
	if cfg.Robots {
		c.Robots = &robots.Checker{UserAgent: cfg.UserAgent, Cache: c.Cache}
	}
	return c
}

package main

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/rs/zerolog"
)

type config struct {
	Listen       string        `env:"HTMLTEXT_LISTEN" envDefault:":8080"`
	LogLevel     string        `env:"HTMLTEXT_LOG_LEVEL" envDefault:"info"`
	MaxBody      string        `env:"HTMLTEXT_MAX_BODY" envDefault:"2M"`
	AllowURL     bool          `env:"HTMLTEXT_ALLOW_URL" envDefault:"false"`
	Robots       bool          `env:"HTMLTEXT_RESPECT_ROBOTS" envDefault:"true"`
	CacheDir     string        `env:"HTMLTEXT_CACHE_DIR"`
	FetchTimeout time.Duration `env:"HTMLTEXT_FETCH_TIMEOUT" envDefault:"15s"`
	MaxPageBytes int64         `env:"HTMLTEXT_MAX_PAGE_BYTES" envDefault:"5242880"`
	UserAgent    string        `env:"HTMLTEXT_USER_AGENT" envDefault:"htmltext/1.0 (+https://github.com/hyperifyio/htmltext)"`
	MaxFetches   int           `env:"HTMLTEXT_MAX_CONCURRENT_FETCHES" envDefault:"8"`
	ShutdownWait time.Duration `env:"HTMLTEXT_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func initConfig() (*config, error) {
	cfg := &config{}
	if err := env.Parse(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func initLogger(cfg *config) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

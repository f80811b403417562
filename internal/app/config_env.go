package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// envConfig lists the environment variables the CLI honours.
type envConfig struct {
	CacheDir     string        `env:"HTMLTEXT_CACHE_DIR"`
	UserAgent    string        `env:"HTMLTEXT_USER_AGENT"`
	FetchTimeout time.Duration `env:"HTMLTEXT_FETCH_TIMEOUT"`
	MaxBytes     int64         `env:"HTMLTEXT_MAX_PAGE_BYTES"`
	ContentType  string        `env:"HTMLTEXT_CONTENT_TYPE"`
}

// ApplyEnvToConfig populates fields of cfg that are unset or still at their
// default from environment variables. Explicit values take precedence.
func ApplyEnvToConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("%w: environment: %v", ErrConfig, err)
	}
	if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && e.CacheDir != "" {
		cfg.CacheDir = e.CacheDir
	}
	if (cfg.UserAgent == "" || cfg.UserAgent == DefaultUserAgent) && e.UserAgent != "" {
		cfg.UserAgent = e.UserAgent
	}
	if (cfg.Timeout == 0 || cfg.Timeout == DefaultTimeout) && e.FetchTimeout > 0 {
		cfg.Timeout = e.FetchTimeout
	}
	if (cfg.MaxBytes == 0 || cfg.MaxBytes == DefaultMaxBytes) && e.MaxBytes > 0 {
		cfg.MaxBytes = e.MaxBytes
	}
	if cfg.ContentType == "" {
		cfg.ContentType = e.ContentType
	}
	return nil
}

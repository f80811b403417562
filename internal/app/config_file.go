package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema. Sections map to the
// dotted flag names of the CLI.
type FileConfig struct {
    Input       string `yaml:"input" json:"input"`
    URL         string `yaml:"url" json:"url"`
    Output      string `yaml:"output" json:"output"`
    ContentType string `yaml:"contentType" json:"contentType"`
    Selector    string `yaml:"selector" json:"selector"`
    JSON        bool   `yaml:"json" json:"json"`
    Verbose     bool   `yaml:"verbose" json:"verbose"`

    Extract struct {
        GuessPunctSpace   *bool    `yaml:"guessPunctSpace" json:"guessPunctSpace"`
        GuessLayout       *bool    `yaml:"guessLayout" json:"guessLayout"`
        NewlineTags       []string `yaml:"newlineTags" json:"newlineTags"`
        DoubleNewlineTags []string `yaml:"doubleNewlineTags" json:"doubleNewlineTags"`
    } `yaml:"extract" json:"extract"`

    Fetch struct {
        UserAgent    string        `yaml:"userAgent" json:"userAgent"`
        Timeout      time.Duration `yaml:"timeout" json:"timeout"`
        MaxBytes     int64         `yaml:"maxBytes" json:"maxBytes"`
        MaxRedirects int           `yaml:"maxRedirects" json:"maxRedirects"`
        Robots       bool          `yaml:"robots" json:"robots"`
    } `yaml:"fetch" json:"fetch"`

    Cache struct {
        Dir         string        `yaml:"dir" json:"dir"`
        MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
        MaxBytes    int64         `yaml:"maxBytes" json:"maxBytes"`
        MaxEntries  int           `yaml:"maxEntries" json:"maxEntries"`
        Clear       bool          `yaml:"clear" json:"clear"`
        StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
        Disable     bool          `yaml:"disable" json:"disable"`
    } `yaml:"cache" json:"cache"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // YAML first; it accepts most JSON too
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from fc onto fields of cfg that are unset
// or still hold their flag default, so explicit flags win over the file.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if cfg.InputPath == "" && fc.Input != "" { cfg.InputPath = fc.Input }
    if cfg.URL == "" && fc.URL != "" { cfg.URL = fc.URL }
    if cfg.OutputPath == "" && fc.Output != "" { cfg.OutputPath = fc.Output }
    if cfg.ContentType == "" && fc.ContentType != "" { cfg.ContentType = fc.ContentType }
    if cfg.Selector == "" && fc.Selector != "" { cfg.Selector = fc.Selector }
    if !cfg.JSON && fc.JSON { cfg.JSON = true }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }

    // Heuristics are on by default; the file may only turn them off.
    if p := fc.Extract.GuessPunctSpace; p != nil && !*p { cfg.NoPunct = true }
    if p := fc.Extract.GuessLayout; p != nil && !*p { cfg.NoLayout = true }
    if len(cfg.NewlineTags) == 0 && len(fc.Extract.NewlineTags) > 0 { cfg.NewlineTags = append([]string{}, fc.Extract.NewlineTags...) }
    if len(cfg.DoubleNewlineTags) == 0 && len(fc.Extract.DoubleNewlineTags) > 0 { cfg.DoubleNewlineTags = append([]string{}, fc.Extract.DoubleNewlineTags...) }

    if (cfg.UserAgent == "" || cfg.UserAgent == DefaultUserAgent) && fc.Fetch.UserAgent != "" { cfg.UserAgent = fc.Fetch.UserAgent }
    if (cfg.Timeout == 0 || cfg.Timeout == DefaultTimeout) && fc.Fetch.Timeout > 0 { cfg.Timeout = fc.Fetch.Timeout }
    if (cfg.MaxBytes == 0 || cfg.MaxBytes == DefaultMaxBytes) && fc.Fetch.MaxBytes > 0 { cfg.MaxBytes = fc.Fetch.MaxBytes }
    if cfg.MaxRedirects == 0 && fc.Fetch.MaxRedirects > 0 { cfg.MaxRedirects = fc.Fetch.MaxRedirects }
    if !cfg.RespectRobots && fc.Fetch.Robots { cfg.RespectRobots = true }

    if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
    if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = fc.Cache.MaxAge }
    if cfg.CacheMaxBytes == 0 && fc.Cache.MaxBytes > 0 { cfg.CacheMaxBytes = fc.Cache.MaxBytes }
    if cfg.CacheMaxEntries == 0 && fc.Cache.MaxEntries > 0 { cfg.CacheMaxEntries = fc.Cache.MaxEntries }
    if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
    if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }
    if !cfg.NoCache && fc.Cache.Disable { cfg.NoCache = true }
}

// ErrConfig marks configuration that cannot be run.
var ErrConfig = errors.New("config")

// ValidateConfig checks the settings Run relies on.
func ValidateConfig(cfg Config) error {
    in, u := strings.TrimSpace(cfg.InputPath), strings.TrimSpace(cfg.URL)
    switch {
    case in == "" && u == "":
        return fmt.Errorf("%w: %w", ErrConfig, ErrNoInput)
    case in != "" && u != "":
        return fmt.Errorf("%w: input and url are mutually exclusive", ErrConfig)
    }
    if cfg.Timeout < 0 || cfg.MaxBytes < 0 || cfg.MaxRedirects < 0 {
        return fmt.Errorf("%w: negative limits are not allowed", ErrConfig)
    }
    if cfg.CacheMaxAge < 0 || cfg.CacheMaxBytes < 0 || cfg.CacheMaxEntries < 0 {
        return fmt.Errorf("%w: negative cache limits are not allowed", ErrConfig)
    }
    return nil
}

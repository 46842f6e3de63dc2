// Package config loads CLI and dev server settings from defaults, an
// optional config file and EHRFORM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. EHRFORM_LOG_LEVEL.
const EnvPrefix = "EHRFORM"

// Keys understood by Load.
const (
	KeyLogLevel       = "log_level"
	KeyTerminologyURL = "terminology_url"
	KeySearchHits     = "search_hits"
	KeyHTTPTimeout    = "http_timeout"
	KeyAddr           = "addr"
	KeyLanguage       = "language"
	KeyIncludeContext = "include_context"
	KeyUISchema       = "ui_schema"
)

type Config struct {
	LogLevel       string        `mapstructure:"log_level"`
	TerminologyURL string        `mapstructure:"terminology_url"`
	SearchHits     int           `mapstructure:"search_hits"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	Addr           string        `mapstructure:"addr"`
	Language       string        `mapstructure:"language"`
	IncludeContext bool          `mapstructure:"include_context"`
	// UISchema is a directory of UI overlay files applied to loaded
	// templates.
	UISchema string `mapstructure:"ui_schema"`
}

// NewViper returns a viper instance with defaults registered and environment
// overrides enabled. Callers bind their command line flags onto it before
// calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyTerminologyURL, "")
	v.SetDefault(KeySearchHits, 10)
	v.SetDefault(KeyHTTPTimeout, 10*time.Second)
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyLanguage, "")
	v.SetDefault(KeyIncludeContext, true)
	v.SetDefault(KeyUISchema, "")
	return v
}

// Load reads file (YAML or JSON, by extension) when it is non-empty and
// decodes the merged settings.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = NewViper()
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	var errs []error
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("config: %s: unknown level %q", KeyLogLevel, c.LogLevel))
	}
	if c.SearchHits <= 0 {
		errs = append(errs, fmt.Errorf("config: %s must be positive, got %d", KeySearchHits, c.SearchHits))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("config: %s must be positive, got %s", KeyHTTPTimeout, c.HTTPTimeout))
	}
	if c.TerminologyURL != "" {
		u, err := url.Parse(c.TerminologyURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("config: %s must be an http(s) URL, got %q", KeyTerminologyURL, c.TerminologyURL))
		}
	}
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, fmt.Errorf("config: %s is required", KeyAddr))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level, info when unset.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Package config defines the typed configuration consumed by the pipeline
// components. Values are decoded from Viper once at startup; components
// receive plain structs and never reach back into the Viper singleton.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Source is one configured case-law listing: its URL and the identifier of
// the protocol adapter that understands its markup. The identifier is
// persisted with every case so the matching adapter can always be
// re-selected later.
type Source struct {
	URL      string `mapstructure:"url"`
	Protocol string `mapstructure:"protocol"`
}

// HTTPConfig configures the shared fetch client.
type HTTPConfig struct {
	UserAgent          string  `mapstructure:"user_agent"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds"`
	RateLimitPerDomain float64 `mapstructure:"rate_limit_per_domain"`
}

// Timeout returns the per-fetch timeout as a duration.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// CrawlerConfig governs the case/document crawl stage.
type CrawlerConfig struct {
	Formats   []string `mapstructure:"formats"`
	BatchSize int      `mapstructure:"batch_size"`
	Workers   int      `mapstructure:"workers"`
}

// DBConfig points at the SQLite database file.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// DocsConfig sets the local directory for downloaded documents.
type DocsConfig struct {
	Dir string `mapstructure:"dir"`
}

// RenderConfig controls the PDF rasterizer boundary.
type RenderConfig struct {
	Format     string `mapstructure:"format"` // tiff or png
	Resolution int    `mapstructure:"resolution"`
}

// ExtractConfig controls the text extraction stage.
type ExtractConfig struct {
	// DocNames restricts extraction to documents with these names.
	// An empty list extracts every eligible document.
	DocNames []string `mapstructure:"doc_names"`
}

// MetricsConfig toggles the optional metrics/health HTTP listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig selects the logger profile.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Config is the root configuration object.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Sources []Source      `mapstructure:"sources"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	DB      DBConfig      `mapstructure:"db"`
	Docs    DocsConfig    `mapstructure:"docs"`
	Render  RenderConfig  `mapstructure:"render"`
	Extract ExtractConfig `mapstructure:"extract"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// Load decodes the full configuration from the given Viper instance.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot start with.
func (c Config) Validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	if c.Docs.Dir == "" {
		return fmt.Errorf("docs.dir must not be empty")
	}
	if c.Crawler.BatchSize <= 0 {
		return fmt.Errorf("crawler.batch_size must be positive, got %d", c.Crawler.BatchSize)
	}
	if c.Crawler.Workers <= 0 {
		return fmt.Errorf("crawler.workers must be positive, got %d", c.Crawler.Workers)
	}
	if len(c.Crawler.Formats) == 0 {
		return fmt.Errorf("crawler.formats must not be empty")
	}
	switch c.Render.Format {
	case "tiff", "png":
	default:
		return fmt.Errorf("render.format must be tiff or png, got %q", c.Render.Format)
	}
	if c.Render.Resolution <= 0 {
		return fmt.Errorf("render.resolution must be positive, got %d", c.Render.Resolution)
	}
	for i, s := range c.Sources {
		if s.URL == "" || s.Protocol == "" {
			return fmt.Errorf("sources[%d]: url and protocol are required", i)
		}
	}
	return nil
}

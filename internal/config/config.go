// Package config loads the service configuration from a YAML file, with
// defaults for every field and an environment override for the database
// path.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	// Listen is the HTTP listen address for serve mode.
	Listen string `yaml:"listen"`
	// Database is the SQLite file path. The SITEMAP_DB_PATH environment
	// variable overrides it.
	Database string `yaml:"database"`
	// BaseURL prefixes every URL emitted in search results and
	// sitemaps, without a trailing slash.
	BaseURL string `yaml:"base_url"`
	// Suffix is appended to page paths in generated URLs, e.g. ".html".
	Suffix string `yaml:"suffix"`

	Sitemap SitemapConfig `yaml:"sitemap"`
	Search  SearchConfig  `yaml:"search"`
}

// SitemapConfig controls XML generation and delivery.
type SitemapConfig struct {
	// Limit caps URLs per sitemap file; larger categories paginate.
	Limit int `yaml:"limit"`
	// Expires is the Cache-Control max-age on sitemap responses.
	Expires Duration `yaml:"expires"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "30m" or "1h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// SearchConfig controls the search endpoint.
type SearchConfig struct {
	// Limit is the default page size for search results.
	Limit int `yaml:"limit"`
	// CacheSize bounds the searcher's result cache entries.
	CacheSize int `yaml:"cache_size"`
}

// Load reads a YAML configuration file. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if path := os.Getenv("SITEMAP_DB_PATH"); path != "" {
		c.Database = path
	}
	if c.Database == "" {
		c.Database = "sitemap.db"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Sitemap.Limit <= 0 {
		c.Sitemap.Limit = 10000
	}
	if c.Sitemap.Expires <= 0 {
		c.Sitemap.Expires = Duration(time.Hour)
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = 10
	}
	if c.Search.CacheSize <= 0 {
		c.Search.CacheSize = 128
	}
}

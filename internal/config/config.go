package config

import (
	"fmt"
	"os"

	"media-ingest/internal/mediatypes"

	"gopkg.in/yaml.v3"
)

// Config is the full ingest configuration, loaded from a YAML file with
// defaults applied for anything unset.
type Config struct {
	Library LibraryConfig           `yaml:"library"`
	Scan    ScanConfig              `yaml:"scan"`
	Formats mediatypes.FormatConfig `yaml:"formats"`
	Catalog CatalogConfig           `yaml:"catalog"`
	Metrics MetricsConfig           `yaml:"metrics"`
}

type LibraryConfig struct {
	// Root is the directory scanned for media. Required.
	Root string `yaml:"root"`
	// CachePath holds generated thumbnails.
	CachePath string `yaml:"cache_path"`
}

type ScanConfig struct {
	// Workers is the size of the per-file processing pool (0 = auto).
	Workers int `yaml:"workers"`
	// IncludeHidden scans dot-files and dot-directories, which are skipped
	// by default.
	IncludeHidden bool `yaml:"include_hidden"`
}

type CatalogConfig struct {
	// DBPath is the SQLite database location.
	DBPath string `yaml:"db_path"`
}

type MetricsConfig struct {
	// Enabled starts the observability HTTP endpoint.
	Enabled bool `yaml:"enabled"`
	// ListenAddr is the endpoint bind address.
	ListenAddr string `yaml:"listen_addr"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a config with every default applied and no library root.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Library.CachePath == "" {
		c.Library.CachePath = "./cache/thumbnails"
	}
	if c.Catalog.DBPath == "" {
		c.Catalog.DBPath = "./data/media-ingest.db"
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
	if len(c.Formats.ImageFormats) == 0 {
		c.Formats.ImageFormats = mediatypes.DefaultImageFormats
	}
	if len(c.Formats.VideoFormats) == 0 {
		c.Formats.VideoFormats = mediatypes.DefaultVideoFormats
	}
}

// Validate checks the invariants a run depends on.
func (c *Config) Validate() error {
	if c.Library.Root == "" {
		return fmt.Errorf("library.root is required")
	}
	if c.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must not be negative")
	}
	return c.Formats.Validate()
}

// Package config loads the cadence configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings the CLI needs to open a store and decide how
// far ahead to materialize.
type Config struct {
	// DatabasePath locates the SQLite database. Relative paths are
	// resolved against the config file's directory.
	DatabasePath string `yaml:"database_path"`

	// Timezone is an IANA zone name ("America/New_York"). The engine only
	// ever asks it for today's civil date; empty means UTC.
	Timezone string `yaml:"timezone"`

	// HorizonDays is how many days past today list and materialize
	// commands cover by default.
	HorizonDays int `yaml:"horizon_days"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		DatabasePath: "cadence.db",
		Timezone:     "",
		HorizonDays:  7,
	}
}

// Load reads a YAML config file, filling unset fields from Default.
// A missing file is not an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = Default().DatabasePath
	}
	if cfg.HorizonDays < 1 {
		cfg.HorizonDays = Default().HorizonDays
	}
	if !filepath.IsAbs(cfg.DatabasePath) {
		cfg.DatabasePath = filepath.Join(filepath.Dir(path), cfg.DatabasePath)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves the configured timezone, defaulting to UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Package config loads run settings from a JSON5 file with an optional
// local override next to it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/pfrederiksen/connpass-attendance/internal/catalog"
	"github.com/pfrederiksen/connpass-attendance/internal/export"
	"github.com/pfrederiksen/connpass-attendance/internal/fetcher"
	"github.com/pfrederiksen/connpass-attendance/internal/limiter"
	"github.com/pfrederiksen/connpass-attendance/internal/logger"
	"github.com/pfrederiksen/connpass-attendance/internal/storage"
	"github.com/titanous/json5"
)

// Config holds every tunable of a crawl. Durations are strings in
// time.ParseDuration syntax.
type Config struct {
	MemberURL string `json:"member_url"`
	EventURL  string `json:"event_url"`
	Delay     string `json:"delay"`
	UserAgent string `json:"user_agent"`
	Timeout   string `json:"timeout"`
	Output    string `json:"output"`
	Format    string `json:"format"`
	DataDir   string `json:"data_dir"`
	LogLevel  string `json:"log_level"`
	LogFile   string `json:"log_file"`
}

// Default returns the production settings.
func Default() Config {
	return Config{
		MemberURL: catalog.MemberListingURL,
		EventURL:  catalog.EventListingURL,
		Delay:     limiter.DefaultDelay.String(),
		UserAgent: fetcher.UserAgent,
		Timeout:   fetcher.Timeout.String(),
		Output:    export.DefaultFilename,
		Format:    string(export.FormatCSV),
		DataDir:   storage.DefaultDataDir,
		LogLevel:  "info",
	}
}

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// LocalPath returns the override file for path: <name>.local.<ext>.
func LocalPath(path string) string {
	prefix, ext := splitExt(filepath.Base(path))
	return filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.local.%s", prefix, ext))
}

func readFile(path string, out *Config) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json5.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}

// Load reads path and its local override, then fills unset fields from
// Default. Missing files are not an error; an empty path yields Default.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		if _, err := readFile(path, &cfg); err != nil {
			return cfg, err
		}

		localPath := LocalPath(path)
		var override Config
		found, err := readFile(localPath, &override)
		if err != nil {
			return cfg, err
		}
		if found {
			if err := mergo.Merge(&cfg, override, mergo.WithOverride); err != nil {
				return cfg, fmt.Errorf("merging %s: %w", localPath, err)
			}
			logger.Debug("merged local config overrides", logger.Fields{"local": localPath})
		}
	}

	if err := mergo.Merge(&cfg, Default()); err != nil {
		return cfg, fmt.Errorf("applying defaults: %w", err)
	}

	return cfg, nil
}

// Validate checks that every field parses.
func (c Config) Validate() error {
	if c.MemberURL == "" || c.EventURL == "" {
		return fmt.Errorf("member_url and event_url are required")
	}
	if _, err := c.DelayDuration(); err != nil {
		return err
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := export.ParseFormat(c.Format); err != nil {
		return err
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	return nil
}

// DelayDuration parses Delay. Negative values are rejected.
func (c Config) DelayDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Delay)
	if err != nil {
		return 0, fmt.Errorf("invalid delay %q: %w", c.Delay, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid delay %q: must not be negative", c.Delay)
	}
	return d, nil
}

// TimeoutDuration parses Timeout.
func (c Config) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be positive", c.Timeout)
	}
	return d, nil
}

// Source returns the listing URLs.
func (c Config) Source() catalog.Source {
	return catalog.Source{MemberURL: c.MemberURL, EventURL: c.EventURL}
}

// Level returns the configured log level.
func (c Config) Level() logger.Level {
	return logger.ParseLevel(strings.ToLower(c.LogLevel))
}

package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nibzard/taxocard/internal/editconfig"
	"github.com/nibzard/taxocard/internal/svgpath"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each key.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// File is the config file that was read last, if any.
	File string
}

// Default values.
const (
	DefaultConfigDir       = "configs"
	DefaultCardDir         = "cards"
	DefaultInboxDir        = "inbox"
	DefaultWorkers         = 4
	DefaultWatchDebounceMs = 200
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// Config holds the full configuration for taxocard.
type Config struct {
	// Directories
	ConfigDir string `toml:"config_dir"`
	CardDir   string `toml:"card_dir"`
	InboxDir  string `toml:"inbox_dir"`

	// Validation
	Workers           int `toml:"workers"`
	MaxSplineSegments int `toml:"max_spline_segments"`

	// Watcher
	MetricsAddr     string `toml:"metrics_addr"`
	WatchDebounceMs int    `toml:"watch_debounce_ms"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// configKeys lists every configurable key, for source tracking.
var configKeys = []string{
	"config_dir",
	"card_dir",
	"inbox_dir",
	"workers",
	"max_spline_segments",
	"metrics_addr",
	"watch_debounce_ms",
	"log_level",
	"log_format",
	"log_timestamps",
	"log_caller",
}

// Keys returns the configurable keys in display order.
func Keys() []string {
	return append([]string(nil), configKeys...)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.ConfigDir = DefaultConfigDir
	cfg.CardDir = DefaultCardDir
	cfg.InboxDir = DefaultInboxDir
	cfg.Workers = DefaultWorkers
	cfg.MaxSplineSegments = svgpath.DefaultMaxSegments
	cfg.MetricsAddr = ""
	cfg.WatchDebounceMs = DefaultWatchDebounceMs
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

// Value returns the printable value of a key.
func (c *Config) Value(key string) string {
	switch key {
	case "config_dir":
		return c.ConfigDir
	case "card_dir":
		return c.CardDir
	case "inbox_dir":
		return c.InboxDir
	case "workers":
		return fmt.Sprint(c.Workers)
	case "max_spline_segments":
		return fmt.Sprint(c.MaxSplineSegments)
	case "metrics_addr":
		return c.MetricsAddr
	case "watch_debounce_ms":
		return fmt.Sprint(c.WatchDebounceMs)
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return fmt.Sprint(c.LogTimestamps)
	case "log_caller":
		return fmt.Sprint(c.LogCaller)
	}
	return ""
}

// EditConfigPath returns where the edit configuration of a card is stored.
func (c *Config) EditConfigPath(taxoID int64, instrumentID string) string {
	return filepath.Join(c.ConfigDir, editconfig.FileName(taxoID, instrumentID))
}

// validate rejects values no component can work with.
func (c *Config) validate() error {
	var problems []string
	if c.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers must be >= 0, got %d", c.Workers))
	}
	if c.MaxSplineSegments < 1 {
		problems = append(problems, fmt.Sprintf("max_spline_segments must be >= 1, got %d", c.MaxSplineSegments))
	}
	if c.WatchDebounceMs < 0 {
		problems = append(problems, fmt.Sprintf("watch_debounce_ms must be >= 0, got %d", c.WatchDebounceMs))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		problems = append(problems, fmt.Sprintf("log_level %q is not one of %s", c.LogLevel, joinKeys(validLogLevels)))
	}
	if !validLogFormats[strings.ToLower(c.LogFormat)] {
		problems = append(problems, fmt.Sprintf("log_format %q is not one of %s", c.LogFormat, joinKeys(validLogFormats)))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true, "fatal": true}
	validLogFormats = map[string]bool{"text": true, "json": true, "logfmt": true}
)

func joinKeys(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

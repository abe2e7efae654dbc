package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// envPrefix prefixes every environment variable; the rest is the upper-cased key.
const envPrefix = "TAXOCARD_"

// EnvName returns the environment variable for a config key.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(key)
}

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	strs := map[string]*string{
		"config_dir":   &cfg.ConfigDir,
		"card_dir":     &cfg.CardDir,
		"inbox_dir":    &cfg.InboxDir,
		"metrics_addr": &cfg.MetricsAddr,
		"log_level":    &cfg.LogLevel,
		"log_format":   &cfg.LogFormat,
	}
	ints := map[string]*int{
		"workers":             &cfg.Workers,
		"max_spline_segments": &cfg.MaxSplineSegments,
		"watch_debounce_ms":   &cfg.WatchDebounceMs,
	}
	bools := map[string]*bool{
		"log_timestamps": &cfg.LogTimestamps,
		"log_caller":     &cfg.LogCaller,
	}

	// Walk keys in order so the first bad variable reported is stable.
	for _, key := range configKeys {
		v, ok := os.LookupEnv(EnvName(key))
		if !ok || v == "" {
			continue
		}
		switch {
		case strs[key] != nil:
			*strs[key] = v
		case ints[key] != nil:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %q is not an integer", EnvName(key), v)
			}
			*ints[key] = n
		case bools[key] != nil:
			*bools[key] = boolFromString(v)
		}
		sources[key] = SourceEnv
	}
	return nil
}

// boolFromString accepts the usual spellings of true; everything else is false.
func boolFromString(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

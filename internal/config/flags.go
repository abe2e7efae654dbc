package config

import (
	"flag"
	"strings"
)

// FlagName returns the CLI flag for a config key.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// parseFlags defines the global flags on fs, parses args and records which
// keys were set on the command line.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("taxocard", flag.ContinueOnError)
	}

	// Directories
	fs.StringVar(&cfg.ConfigDir, FlagName("config_dir"), cfg.ConfigDir, "Directory of edit configurations ({taxoid}_{instrumentid}.json)")
	fs.StringVar(&cfg.CardDir, FlagName("card_dir"), cfg.CardDir, "Directory of stored cards")
	fs.StringVar(&cfg.InboxDir, FlagName("inbox_dir"), cfg.InboxDir, "Directory watched for submitted cards")

	// Validation
	fs.IntVar(&cfg.Workers, FlagName("workers"), cfg.Workers, "Cards validated concurrently (0 = unlimited)")
	fs.IntVar(&cfg.MaxSplineSegments, FlagName("max_spline_segments"), cfg.MaxSplineSegments, "Maximum curve segments in a spline")

	// Watcher
	fs.StringVar(&cfg.MetricsAddr, FlagName("metrics_addr"), cfg.MetricsAddr, "Address serving /metrics while watching (empty = off)")
	fs.IntVar(&cfg.WatchDebounceMs, FlagName("watch_debounce_ms"), cfg.WatchDebounceMs, "Quiet period before a changed inbox file is submitted (ms)")

	// Logging
	fs.StringVar(&cfg.LogLevel, FlagName("log_level"), cfg.LogLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogFormat, FlagName("log_format"), cfg.LogFormat, "Log format (text|json|logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, FlagName("log_timestamps"), cfg.LogTimestamps, "Include timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, FlagName("log_caller"), cfg.LogCaller, "Include caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	keyOf := make(map[string]string, len(configKeys))
	for _, key := range configKeys {
		keyOf[FlagName(key)] = key
	}
	fs.Visit(func(f *flag.Flag) {
		if key, ok := keyOf[f.Name]; ok {
			sources[key] = SourceFlag
		}
	})
	return nil
}

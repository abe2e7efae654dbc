// Package logging builds the charmbracelet/log loggers used across taxocard
// and maps validation outcomes onto log records.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taxocard/internal/config"
	"github.com/nibzard/taxocard/internal/validator"
)

// Options holds configuration for a logger.
type Options struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	ReportCaller    bool
	Prefix          string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Level:     log.InfoLevel,
		Formatter: log.TextFormatter,
		Prefix:    "taxocard",
	}
}

// New creates a logger writing to w. A nil writer means stderr.
func New(w io.Writer, opts Options) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		ReportCaller:    opts.ReportCaller,
		Prefix:          opts.Prefix,
	})
}

// FromConfig creates a logger from the log_* settings of cfg.
func FromConfig(w io.Writer, cfg *config.Config) *log.Logger {
	opts := DefaultOptions()
	if cfg != nil {
		opts.Level = ParseLogLevel(cfg.LogLevel)
		opts.Formatter = ParseLogFormatter(cfg.LogFormat)
		opts.ReportTimestamp = cfg.LogTimestamps
		opts.ReportCaller = cfg.LogCaller
	}
	return New(w, opts)
}

// NewTest creates a debug-level logger without timestamps, prefix or
// caller so output can be asserted on.
func NewTest(w io.Writer) *log.Logger {
	return New(w, Options{Level: log.DebugLevel, Formatter: log.TextFormatter})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return New(io.Discard, Options{Level: log.FatalLevel + 1})
}

// ParseLogLevel parses a string log level to a charmbracelet/log Level.
func ParseLogLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// ParseLogFormatter parses a string formatter name to a charmbracelet/log Formatter.
func ParseLogFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// LogResult records the outcome of validating one card. Accepted cards log
// at info; a rejection logs a warn summary followed by one debug record per
// violation.
func LogResult(logger *log.Logger, card string, result validator.Result) {
	if logger == nil {
		return
	}
	if result.Accepted {
		logger.Info("Card accepted", "card", card)
		return
	}
	logger.Warn("Card rejected", "card", card, "violations", len(result.Violations))
	for _, v := range result.Violations {
		logger.Debug(v.Message, violationFields(v)...)
	}
}

// violationFields flattens a violation into key/value pairs.
func violationFields(v validator.Violation) []any {
	fields := []any{"kind", string(v.Kind), "location", v.Location}
	if v.Value != "" {
		fields = append(fields, "value", v.Value)
	}
	return fields
}

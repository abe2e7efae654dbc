package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taxocard/internal/config"
	"github.com/nibzard/taxocard/internal/validator"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  log.Level
	}{
		{"debug", "debug", log.DebugLevel},
		{"info", "info", log.InfoLevel},
		{"warn", "warn", log.WarnLevel},
		{"warning", "warning", log.WarnLevel},
		{"upper case", "ERROR", log.ErrorLevel},
		{"fatal", "fatal", log.FatalLevel},
		{"unknown defaults to info", "unknown", log.InfoLevel},
		{"empty defaults to info", "", log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLogLevel(tt.level); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestParseLogFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   log.Formatter
	}{
		{"json", "json", log.JSONFormatter},
		{"logfmt", "logfmt", log.LogfmtFormatter},
		{"text", "text", log.TextFormatter},
		{"unknown defaults to text", "unknown", log.TextFormatter},
		{"empty defaults to text", "", log.TextFormatter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLogFormatter(tt.format); got != tt.want {
				t.Errorf("ParseLogFormatter(%q) = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Level != log.InfoLevel {
		t.Errorf("Level = %v, want %v", opts.Level, log.InfoLevel)
	}
	if opts.Formatter != log.TextFormatter {
		t.Errorf("Formatter = %v, want %v", opts.Formatter, log.TextFormatter)
	}
	if opts.ReportTimestamp || opts.ReportCaller {
		t.Error("timestamps and caller should be off by default")
	}
	if opts.Prefix != "taxocard" {
		t.Errorf("Prefix = %q, want \"taxocard\"", opts.Prefix)
	}
}

func TestFromConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := FromConfig(&buf, &config.Config{LogLevel: "warn", LogFormat: "json"})

	logger.Info("hidden")
	logger.Warn("shown", "card", "45072_Zooscan.html")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("output is not a JSON record: %v\n%s", err, out)
	}
	if rec["msg"] != "shown" || rec["card"] != "45072_Zooscan.html" {
		t.Errorf("unexpected record: %v", rec)
	}
	if rec["prefix"] != "taxocard" {
		t.Errorf("prefix: got %v, want taxocard", rec["prefix"])
	}
}

func TestFromNilConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := FromConfig(&buf, nil)
	if logger.GetLevel() != log.InfoLevel {
		t.Errorf("level: got %v, want info", logger.GetLevel())
	}
}

func TestLogResult(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		var buf bytes.Buffer
		LogResult(NewTest(&buf), "ok.html", validator.Result{Accepted: true})

		out := buf.String()
		if !strings.Contains(out, "Card accepted") || !strings.Contains(out, "card=ok.html") {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		var buf bytes.Buffer
		result := validator.Result{Violations: []validator.Violation{
			{Kind: validator.UnknownLabelReference, Location: "marker#wing_triangle", Value: "wing", Message: "label is not in the edit configuration"},
			{Kind: validator.StructuralViolation, Location: "body", Message: "missing criteria section"},
		}}
		LogResult(NewTest(&buf), "ko.html", result)

		out := buf.String()
		for _, want := range []string{
			"Card rejected", "violations=2",
			"kind=UnknownLabelReference", "value=wing",
			"missing criteria section", "location=body",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if got := strings.Count(out, "\n"); got != 3 {
			t.Errorf("got %d records, want 3:\n%s", got, out)
		}
	})

	t.Run("nil logger", func(t *testing.T) {
		LogResult(nil, "x.html", validator.Result{Accepted: true})
	})
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("dropped")
	if logger.GetLevel() <= log.FatalLevel {
		t.Errorf("level: got %v, want above fatal", logger.GetLevel())
	}
}

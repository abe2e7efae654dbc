// Package report renders validation results for people and for tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nibzard/taxocard/internal/editconfig"
	"github.com/nibzard/taxocard/internal/validator"
)

// Format selects an output encoding.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
}

// Entry is the outcome for one card.
type Entry struct {
	Card   string           `json:"card" yaml:"card"`
	Result validator.Result `json:"result" yaml:"result"`
	// Error is set when the card could not be checked at all, e.g. unreadable.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary counts outcomes.
type Summary struct {
	Accepted int `json:"accepted" yaml:"accepted"`
	Rejected int `json:"rejected" yaml:"rejected"`
	Errors   int `json:"errors" yaml:"errors"`
}

// Summarize counts the outcomes of entries.
func Summarize(entries []Entry) Summary {
	var s Summary
	for _, e := range entries {
		switch {
		case e.Error != "":
			s.Errors++
		case e.Result.Accepted:
			s.Accepted++
		default:
			s.Rejected++
		}
	}
	return s
}

type document struct {
	Cards   []Entry `json:"cards" yaml:"cards"`
	Summary Summary `json:"summary" yaml:"summary"`
}

// Write renders entries in format f.
func Write(w io.Writer, f Format, entries []Entry) error {
	doc := document{Cards: entries, Summary: Summarize(entries)}
	if doc.Cards == nil {
		doc.Cards = []Entry{}
	}

	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		return enc.Close()
	case FormatText, "":
		var sb strings.Builder
		for i, e := range entries {
			if i > 0 {
				sb.WriteString("\n")
			}
			if e.Error != "" {
				sb.WriteString(fmt.Sprintf("Card: %s\nStatus: ERROR\n  %s\n", e.Card, e.Error))
				continue
			}
			sb.WriteString(FormatResult(e.Card, e.Result))
		}
		if len(entries) > 1 {
			s := doc.Summary
			sb.WriteString(fmt.Sprintf("\n%d accepted, %d rejected, %d errors\n", s.Accepted, s.Rejected, s.Errors))
		}
		_, err := io.WriteString(w, sb.String())
		return err
	}
	return fmt.Errorf("unknown format %q", f)
}

// FormatResult formats a validation result for human display.
func FormatResult(cardName string, result validator.Result) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Card: %s\n", cardName))

	if result.Accepted {
		sb.WriteString("Status: ACCEPTED\n")
	} else {
		sb.WriteString("Status: REJECTED\n")
	}

	if len(result.Violations) > 0 {
		sb.WriteString("\nViolations:\n")
		for _, v := range result.Violations {
			sb.WriteString(fmt.Sprintf("  - [%s] %s\n      %s", v.Kind, v.Location, v.Message))
			if v.Value != "" {
				sb.WriteString(fmt.Sprintf(": %q", v.Value))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// FormatConfigResult formats an edit configuration check for human display.
func FormatConfigResult(path string, result *editconfig.ValidationResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n", path))

	if result.Valid {
		sb.WriteString("Status: VALID\n")
	} else {
		sb.WriteString("Status: INVALID\n")
	}

	if len(result.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, err := range result.Errors {
			sb.WriteString(fmt.Sprintf("  - %s\n", err))
		}
	}

	return sb.String()
}

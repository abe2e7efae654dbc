package editconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Config is the decoded form of an edit configuration file.
type Config struct {
	TaxoID       int64             `json:"taxoid"`
	InstrumentID string            `json:"instrumentid"`
	Labels       map[string]string `json:"labels"`
	Segments     []string          `json:"segments"`
	Views        []string          `json:"views,omitempty"`
	Simplified   bool              `json:"simplified,omitempty"`
}

// ValidationError represents a configuration problem with its JSON path.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationResult contains configuration validation results.
type ValidationResult struct {
	Valid  bool
	Errors []error
}

// InvalidError is returned by Parse and Load when a configuration is rejected.
type InvalidError struct {
	Errors []error
}

func (e *InvalidError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return "invalid edit configuration: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *InvalidError) Unwrap() []error {
	return e.Errors
}

// FileName returns the storage name of the configuration for a card.
func FileName(taxoID int64, instrumentID string) string {
	return fmt.Sprintf("%d_%s.json", taxoID, instrumentID)
}

// ParseFileName extracts the identifiers from a FileName result.
// The instrument ID may itself contain underscores.
func ParseFileName(name string) (taxoID int64, instrumentID string, ok bool) {
	base := strings.TrimSuffix(name, ".json")
	if base == name {
		return 0, "", false
	}
	idx := strings.IndexByte(base, '_')
	if idx <= 0 || idx == len(base)-1 {
		return 0, "", false
	}
	id, err := strconv.ParseInt(base[:idx], 10, 64)
	if err != nil || id < 0 {
		return 0, "", false
	}
	return id, base[idx+1:], true
}

// Validate checks raw configuration bytes without decoding them into a Config.
func Validate(data []byte) *ValidationResult {
	result := &ValidationResult{
		Valid:  true,
		Errors: make([]error, 0),
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{Err: fmt.Errorf("parse json: %w", err)})
		return result
	}

	if dups := findDuplicateKeys(data); len(dups) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, dups...)
	}

	validateWithSchema(doc, result)
	if !result.Valid {
		return result
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{Err: fmt.Errorf("decode config: %w", err)})
		return result
	}
	for _, name := range sortedKeys(cfg.Labels) {
		if _, err := NormalizeColor(cfg.Labels[name]); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{Path: joinPath("labels", name), Err: err})
		}
	}

	return result
}

// Parse decodes and validates an edit configuration.
func Parse(data []byte) (*Config, error) {
	result := Validate(data)
	if !result.Valid {
		return nil, &InvalidError{Errors: result.Errors}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode edit config: %w", err)
	}
	return &cfg, nil
}

// Load reads and validates an edit configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read edit config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path with 2-space indentation.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal edit config: %w", err)
	}

	// Add trailing newline
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write edit config: %w", err)
	}

	return nil
}

// FileName returns the storage name of this configuration.
func (c *Config) FileName() string {
	return FileName(c.TaxoID, c.InstrumentID)
}

// findDuplicateKeys reports object keys that appear more than once.
// encoding/json silently keeps the last value, which would hide a
// label defined twice with two colors.
func findDuplicateKeys(data []byte) []error {
	dec := json.NewDecoder(bytes.NewReader(data))
	var errs []error

	var walk func(path string) error
	walk = func(path string) error {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		delim, ok := tok.(json.Delim)
		if !ok {
			return nil
		}
		switch delim {
		case '{':
			seen := make(map[string]bool)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				key, _ := keyTok.(string)
				child := joinPath(path, key)
				if seen[key] {
					errs = append(errs, &ValidationError{Path: child, Err: fmt.Errorf("duplicate key %q", key)})
				}
				seen[key] = true
				if err := walk(child); err != nil {
					return err
				}
			}
		case '[':
			for i := 0; dec.More(); i++ {
				if err := walk(fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}
		// closing delimiter
		_, err = dec.Token()
		return err
	}

	if err := walk(""); err != nil {
		// Syntax errors are reported by json.Unmarshal.
		return nil
	}
	return errs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

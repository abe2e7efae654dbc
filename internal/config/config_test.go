package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/taxocard/internal/svgpath"
)

// isolate points HOME and the working directory at empty temp dirs so no
// real config file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("TAXOCARD_CONFIG", "")
	for _, key := range configKeys {
		t.Setenv(EnvName(key), "")
	}
	wd := t.TempDir()
	t.Chdir(wd)
	return wd
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("taxocard", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))
	return fs
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.ConfigDir != DefaultConfigDir {
		t.Errorf("ConfigDir: got %q, want %q", cfg.ConfigDir, DefaultConfigDir)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Workers: got %d, want %d", cfg.Workers, DefaultWorkers)
	}
	if cfg.MaxSplineSegments != svgpath.DefaultMaxSegments {
		t.Errorf("MaxSplineSegments: got %d, want %d", cfg.MaxSplineSegments, svgpath.DefaultMaxSegments)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("logging: got %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.MetricsAddr != "" {
		t.Errorf("MetricsAddr: got %q, want empty", cfg.MetricsAddr)
	}
}

func TestLoadDefaultsOnly(t *testing.T) {
	wd := isolate(t)

	cws, err := LoadWithSources(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("LoadWithSources() error = %v", err)
	}
	cfg := cws.Config
	if got, want := cfg.ConfigDir, filepath.Join(wd, DefaultConfigDir); got != want {
		t.Errorf("ConfigDir: got %q, want %q", got, want)
	}
	if cfg.ProjectRoot != wd {
		t.Errorf("ProjectRoot: got %q, want %q", cfg.ProjectRoot, wd)
	}
	for _, key := range configKeys {
		if cws.Sources[key] != SourceDefault {
			t.Errorf("source of %s: got %q, want default", key, cws.Sources[key])
		}
	}
	if cws.File != "" {
		t.Errorf("File: got %q, want none", cws.File)
	}
}

func TestLoadLayering(t *testing.T) {
	wd := isolate(t)
	home := os.Getenv("HOME")

	userDir := filepath.Join(home, ".taxocard")
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		t.Fatal(err)
	}
	userFile := "workers = 2\nlog_level = \"debug\"\ncard_dir = \"/srv/cards\"\n"
	if err := os.WriteFile(filepath.Join(userDir, "taxocard.toml"), []byte(userFile), 0o644); err != nil {
		t.Fatal(err)
	}
	projectFile := "workers = 8\nmax_spline_segments = 12\n"
	if err := os.WriteFile(filepath.Join(wd, "taxocard.toml"), []byte(projectFile), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TAXOCARD_MAX_SPLINE_SEGMENTS", "20")
	t.Setenv("TAXOCARD_LOG_CALLER", "yes")

	fs := newFlagSet()
	cws, err := LoadWithSources(fs, []string{"-log-level", "warn", "validate", "a.html"})
	if err != nil {
		t.Fatalf("LoadWithSources() error = %v", err)
	}
	cfg := cws.Config

	tests := []struct {
		key    string
		value  string
		source ConfigSource
	}{
		{"card_dir", "/srv/cards", SourceUserFile},
		{"workers", "8", SourceProjFile},
		{"max_spline_segments", "20", SourceEnv},
		{"log_caller", "true", SourceEnv},
		{"log_level", "warn", SourceFlag},
		{"log_format", "text", SourceDefault},
	}
	for _, tt := range tests {
		if got := cfg.Value(tt.key); got != tt.value {
			t.Errorf("%s: got %q, want %q", tt.key, got, tt.value)
		}
		if got := cws.Sources[tt.key]; got != tt.source {
			t.Errorf("source of %s: got %q, want %q", tt.key, got, tt.source)
		}
	}
	if got := strings.Join(fs.Args(), " "); got != "validate a.html" {
		t.Errorf("remaining args: got %q", got)
	}
	if cws.File != "taxocard.toml" {
		t.Errorf("File: got %q, want the project file", cws.File)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("inbox_dir = \"/tmp/in\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TAXOCARD_CONFIG", path)

	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.InboxDir != "/tmp/in" {
		t.Errorf("InboxDir: got %q, want /tmp/in", cfg.InboxDir)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		args    []string
		wantErr string
	}{
		{name: "unknown key", file: "colour = \"red\"\n", wantErr: "unknown keys: colour"},
		{name: "bad toml", file: "workers = \n", wantErr: "loading project config file"},
		{name: "bad env int", env: map[string]string{"TAXOCARD_WORKERS": "many"}, wantErr: "TAXOCARD_WORKERS"},
		{name: "negative workers", args: []string{"-workers", "-1"}, wantErr: "workers must be >= 0"},
		{name: "zero spline segments", args: []string{"-max-spline-segments", "0"}, wantErr: "max_spline_segments must be >= 1"},
		{name: "bad log level", args: []string{"-log-level", "loud"}, wantErr: "log_level"},
		{name: "unknown flag", args: []string{"-nope"}, wantErr: "parsing flags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wd := isolate(t)
			if tt.file != "" {
				if err := os.WriteFile(filepath.Join(wd, "taxocard.toml"), []byte(tt.file), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(newFlagSet(), tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CARDS", "/data/cards")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/cards", filepath.Join(home, "cards")},
		{"$CARDS/new", "/data/cards/new"},
		{"relative", "relative"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEditConfigPath(t *testing.T) {
	cfg := &Config{ConfigDir: "/etc/taxocard"}
	if got, want := cfg.EditConfigPath(45072, "Zooscan"), "/etc/taxocard/45072_Zooscan.json"; got != want {
		t.Errorf("EditConfigPath: got %q, want %q", got, want)
	}
}

func TestExampleConfigDecodes(t *testing.T) {
	var cfg Config
	md, err := toml.Decode(ExampleConfig(), &cfg)
	if err != nil {
		t.Fatalf("example config does not decode: %v", err)
	}
	if len(md.Undecoded()) > 0 {
		t.Errorf("example config has unknown keys: %v", md.Undecoded())
	}
	for _, key := range configKeys {
		if !md.IsDefined(key) {
			t.Errorf("example config does not document %s", key)
		}
	}
}

func TestBoolFromString(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		if !boolFromString(v) {
			t.Errorf("boolFromString(%q) should be true", v)
		}
	}
	for _, v := range []string{"0", "false", "no", "maybe"} {
		if boolFromString(v) {
			t.Errorf("boolFromString(%q) should be false", v)
		}
	}
}

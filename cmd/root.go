// Package cmd implements the CLI command structure for taxocard.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taxocard/internal/config"
	"github.com/nibzard/taxocard/internal/logging"
	"github.com/nibzard/taxocard/internal/manager"
	"github.com/nibzard/taxocard/internal/ui"
	"github.com/nibzard/taxocard/internal/validator"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the taxocard CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("taxocard", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	remainingArgs := fs.Args()
	if len(remainingArgs) == 0 {
		printUsage(fs, os.Stderr)
		return fmt.Errorf("no command given")
	}
	subcommand, remainingArgs := remainingArgs[0], remainingArgs[1:]

	switch subcommand {
	case "validate":
		return validateCommand(ctx, cfg, remainingArgs)
	case "check-config":
		return checkConfigCommand(remainingArgs)
	case "save":
		return saveCommand(ctx, cfg, remainingArgs)
	case "watch":
		return watchCommand(ctx, cfg, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "doctor":
		return doctorCommand(cfg, remainingArgs)
	case "config":
		return configCommand(cws, remainingArgs)
	case "version", "--version", "-v":
		return versionCommand()
	case "help", "--help", "-h":
		printUsage(fs, os.Stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// newLogger builds the stderr logger configured by the log_* settings.
func newLogger(cfg *config.Config) *log.Logger {
	return logging.FromConfig(os.Stderr, cfg)
}

// validatorOptions returns the validator options configured globally.
func validatorOptions(cfg *config.Config) []validator.Option {
	return []validator.Option{validator.WithMaxSplineSegments(cfg.MaxSplineSegments)}
}

// newManager wires the gate to the configured directories.
func newManager(cfg *config.Config, opts ...manager.Option) *manager.Manager {
	opts = append([]manager.Option{
		manager.WithLogger(newLogger(cfg)),
		manager.WithValidatorOptions(validatorOptions(cfg)...),
	}, opts...)
	return manager.New(
		manager.NewDirConfigStore(cfg.ConfigDir),
		manager.NewDirStore(cfg.CardDir),
		opts...,
	)
}

// tuiCommand launches the card viewer.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taxocard tui", flag.ContinueOnError)
	interval := fs.Duration("interval", 0, "Refresh interval (default 2s)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return ui.RunTUI(ctx, cfg, ui.WithRefreshInterval(*interval))
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Printf("taxocard version %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "taxocard - validate taxonomic cards against their edit configuration")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taxocard [global options] <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  validate <card.html>...       Validate cards and report violations")
	fmt.Fprintln(w, "  check-config <config.json>... Check edit configurations against the schema")
	fmt.Fprintln(w, "  save <card.html>              Validate a card and store it if accepted")
	fmt.Fprintln(w, "  watch                         Validate and store cards dropped into the inbox")
	fmt.Fprintln(w, "  tui                           Browse the validation state of stored cards")
	fmt.Fprintln(w, "  doctor                        Check directories and edit configurations")
	fmt.Fprintln(w, "  config                        Show effective configuration and sources")
	fmt.Fprintln(w, "  version                       Show version information")
	fmt.Fprintln(w, "  help                          Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Validate Options:")
	fmt.Fprintln(w, "  -config string")
	fmt.Fprintln(w, "        Edit configuration for every card (default: from each card's metadata)")
	fmt.Fprintln(w, "  -format string")
	fmt.Fprintln(w, "        Output format (text|json|yaml) (default \"text\")")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config Options:")
	fmt.Fprintln(w, "  -example")
	fmt.Fprintln(w, "        Print an example taxocard.toml")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables use the TAXOCARD_ prefix, e.g. "+
		strings.Join([]string{config.EnvName("card_dir"), config.EnvName("log_level")}, ", ")+".")
	fmt.Fprintln(w, "TAXOCARD_CONFIG names a config file to use instead of taxocard.toml.")
}

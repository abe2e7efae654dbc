package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/nibzard/taxocard/internal/card"
	"github.com/nibzard/taxocard/internal/config"
	"github.com/nibzard/taxocard/internal/editconfig"
	"github.com/nibzard/taxocard/internal/manager"
	"github.com/nibzard/taxocard/internal/parallel"
	"github.com/nibzard/taxocard/internal/report"
)

// validateCommand validates card files and prints a report.
func validateCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taxocard validate", flag.ContinueOnError)
	configPath := fs.String("config", "", "Edit configuration for every card (default: from each card's metadata)")
	formatName := fs.String("format", string(report.FormatText), "Output format (text|json|yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := report.ParseFormat(*formatName)
	if err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return errors.New("validate: no card files given")
	}

	snapshotFor, err := snapshotSource(cfg, *configPath)
	if err != nil {
		return err
	}

	results, _ := parallel.ValidateFiles(ctx, paths, cfg.Workers, snapshotFor, validatorOptions(cfg)...)
	entries := make([]report.Entry, 0, len(results))
	for _, r := range results {
		entry := report.Entry{Card: r.TaskID, Result: r.Result}
		switch {
		case r.Error != nil:
			entry.Error = r.Error.Error()
		case r.Skipped:
			entry.Error = "not validated: interrupted"
		}
		entries = append(entries, entry)
	}

	if err := report.Write(os.Stdout, format, entries); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	summary := report.Summarize(entries)
	if n := summary.Rejected + summary.Errors; n > 0 {
		return fmt.Errorf("%d of %d card(s) not accepted", n, len(entries))
	}
	return nil
}

// snapshotSource picks the configuration lookup for validate. An explicit
// file that fails the schema is reported per card as MalformedInput.
func snapshotSource(cfg *config.Config, path string) (parallel.SnapshotFunc, error) {
	if path == "" {
		return manager.NewDirConfigStore(cfg.ConfigDir).SnapshotFor, nil
	}
	snap, err := editconfig.LoadSnapshot(path)
	if err != nil {
		var invalid *editconfig.InvalidError
		if !errors.As(err, &invalid) {
			return nil, err
		}
		return func(context.Context, *card.Document) (editconfig.Snapshot, error) {
			return editconfig.Snapshot{}, err
		}, nil
	}
	return parallel.FixedSnapshot(snap), nil
}

// checkConfigCommand validates edit configuration files.
func checkConfigCommand(args []string) error {
	fs := flag.NewFlagSet("taxocard check-config", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return errors.New("check-config: no configuration files given")
	}

	invalid := 0
	for i, path := range paths {
		if i > 0 {
			fmt.Println()
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read edit config: %w", err)
		}
		result := editconfig.Validate(data)
		fmt.Print(report.FormatConfigResult(path, result))
		if !result.Valid {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d configuration(s) invalid", invalid, len(paths))
	}
	return nil
}

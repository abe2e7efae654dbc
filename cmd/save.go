package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nibzard/taxocard/internal/config"
	"github.com/nibzard/taxocard/internal/manager"
	"github.com/nibzard/taxocard/internal/report"
)

// saveCommand submits one card through the gate into the card directory.
func saveCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("taxocard save", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("save: expected exactly one card file")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read card: %w", err)
	}

	result, err := newManager(cfg).Submit(ctx, data)
	var rejected *manager.RejectedError
	if errors.As(err, &rejected) {
		fmt.Print(report.FormatResult(path, result))
		return err
	}
	if err != nil {
		return err
	}
	fmt.Printf("Stored %s in %s\n", filepath.Base(path), cfg.CardDir)
	return nil
}

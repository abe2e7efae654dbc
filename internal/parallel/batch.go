package parallel

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nibzard/taxocard/internal/card"
	"github.com/nibzard/taxocard/internal/editconfig"
	"github.com/nibzard/taxocard/internal/validator"
)

// SnapshotFunc returns the configuration a card must be validated against.
type SnapshotFunc func(ctx context.Context, doc *card.Document) (editconfig.Snapshot, error)

// FixedSnapshot validates every card against the same configuration.
func FixedSnapshot(snap editconfig.Snapshot) SnapshotFunc {
	return func(context.Context, *card.Document) (editconfig.Snapshot, error) {
		return snap, nil
	}
}

// ValidateFiles validates card files with at most workers running at once.
// Unparsable cards and configurations are reported as MalformedInput results;
// the returned errors are I/O and lookup failures only.
func ValidateFiles(ctx context.Context, paths []string, workers int, snapshotFor SnapshotFunc, opts ...validator.Option) ([]TaskResult, []error) {
	pool := NewWorkerPool(ctx, workers, false)
	for _, path := range paths {
		pool.Submit(path, func(ctx context.Context) (validator.Result, error) {
			return ValidateFile(ctx, path, snapshotFor, opts...)
		})
	}
	return pool.Wait()
}

// ValidateFile validates a single card file.
func ValidateFile(ctx context.Context, path string, snapshotFor SnapshotFunc, opts ...validator.Option) (validator.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return validator.Result{}, fmt.Errorf("read card: %w", err)
	}
	doc, err := card.Parse(data)
	if err != nil {
		return validator.Malformed("card", err), nil
	}
	snap, err := snapshotFor(ctx, doc)
	if err != nil {
		var invalid *editconfig.InvalidError
		if errors.As(err, &invalid) {
			return validator.Malformed("config", err), nil
		}
		return validator.Result{}, err
	}
	return validator.Validate(snap, doc, opts...), nil
}

// Package editconfig loads and checks card edit configurations.
//
// An edit configuration fixes, for one taxon and one imaging instrument, the closed
// set of labels (each with its rendering color) and segments a card may reference:
//
//	{
//	  "taxoid": 45072,
//	  "instrumentid": "Zooscan",
//	  "labels": {"shell": "#ff0000", "spine": "blue"},
//	  "segments": ["adult", "juvenile"],
//	  "views": ["dorsal", "lateral"],
//	  "simplified": false
//	}
//
// Configurations are stored as {taxoid}_{instrumentid}.json (see FileName).
//
// # Validation
//
// Parse checks the document against an embedded JSON Schema (draft 2020-12), rejects
// duplicate label names, and normalizes every label color. Any failure is returned as
// an *InvalidError listing every problem with its JSON path.
//
// # Snapshots
//
// A Config is a plain, mutable value. Editing sessions work on a Snapshot instead:
// an immutable copy with normalized colors, safe to share between goroutines and
// passed by value.
package editconfig

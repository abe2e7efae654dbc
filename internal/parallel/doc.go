// Package parallel validates many cards at once.
//
// It provides:
//   - WorkerPool: bounded concurrency pool returning results in submission order
//   - ValidateFiles: batch validation of card files with a shared config resolver
package parallel

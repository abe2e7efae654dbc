// Package manager is the only path by which a card reaches storage.
//
// A Manager hands an editor a Session holding the stored card and a frozen
// snapshot of its edit configuration. Save validates the edited card against
// that snapshot and writes it only when the validator accepts it. Submit does
// the same for callers without a session, and Watcher feeds it from an inbox
// directory.
package manager

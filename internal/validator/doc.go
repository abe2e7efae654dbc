// Package validator decides whether a card may be stored under an edit
// configuration.
//
// Validate is a pure function: it reads a frozen editconfig.Snapshot and a
// parsed card, performs no I/O and keeps no state between calls, so it is safe
// for concurrent use. Every check runs and every violation is reported, in the
// order of a pre-order walk of the card. Checks about an element, including a
// missing required child, are reported when that element is visited.
//
// Input that cannot be parsed produces a single MalformedInput violation and
// nothing else.
package validator

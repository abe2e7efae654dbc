// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.taxocard/taxocard.toml or OS-specific config directory)
// 3. Project config file (taxocard.toml or .taxocard.toml in the working directory)
// 4. Environment variables (TAXOCARD_*)
// 5. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
// TAXOCARD_CONFIG names a config file that replaces the user and project
// lookup entirely.
package config

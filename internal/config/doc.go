// Package config resolves the effective settings for a run from the INI
// config file, process environment, and CLI flag overrides.
//
// Precedence: CLI flag > environment variable > config-file value > default.
// The resolved Config is treated as immutable for the rest of the run.
package config

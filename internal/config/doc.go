// Package config loads, normalizes, and validates doiupdate configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DATACITE_BASE_URL. Credentials are never read from the file; the CLI takes
// them from flags or the environment.
package config

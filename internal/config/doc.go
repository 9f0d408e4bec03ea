// Package config loads, normalizes, and validates subplay configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the ASSRT_TOKEN environment
// fallback for the remote API credential. Timeouts for remote requests are
// mandatory and validated here so the HTTP client never runs unbounded.
package config

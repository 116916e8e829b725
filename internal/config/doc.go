// Package config loads, normalizes, and validates q7z configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the Q7Z_ARCHIVER and Q7Z_NTFY_TOPIC environment
// fallbacks. Obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config

// Package config loads, normalizes, and validates wheelhouse configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WHEELHOUSE_CACHE_DIR and PIP_INDEX_URL. A .env file in the working directory
// is loaded before the environment is consulted.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config

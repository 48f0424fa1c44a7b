// Package manifest declares the artifacts the bootstrap installs, grouped by
// step, in one TOML document. The builtin manifest is embedded and can be
// replaced by a file through paths.manifest.
package manifest

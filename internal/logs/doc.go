// Package logs reads the wheelhouse log file for the CLI: the last N lines,
// optionally filtered to one run id, and follow mode that survives log
// rotation.
package logs

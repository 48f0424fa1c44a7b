// Package main hosts the wheelhouse CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, wires the pip runner,
// wheel cache, install journal and manifest through bootstrap.NewEnvironment,
// and exposes the full bootstrap plus single-artifact installs, cache
// inspection, journal history and host diagnostics.
//
// Keep this package thin: behaviour belongs in the internal packages and is
// surfaced here through commands and flags.
package main

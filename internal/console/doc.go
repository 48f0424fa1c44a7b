// Package console renders the bootstrap banner and status panels. Colour is
// emitted only when the output is a terminal.
package console

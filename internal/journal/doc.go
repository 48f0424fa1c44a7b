// Package journal records every artifact resolution in a SQLite database so
// operators can see which tier served each package across bootstrap runs.
package journal

// Package kvstore edits the application's YAML configuration file by dotted
// key, the way the application itself reads settings such as
// display_language.
package kvstore

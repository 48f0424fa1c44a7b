// Package artifact parses requirement strings and wheel filenames and derives
// the cache filename an artifact is looked up under.
//
// Names are compared in PEP 503 canonical form so "ruamel.yaml",
// "Ruamel_YAML" and "ruamel-yaml" refer to the same cache entry. Only exact
// "==" pins and bare names have a derived cache filename; range specifiers
// always go to the network.
package artifact

// Package installer makes one Python artifact available through a durable
// wheel cache.
//
// Resolution is attempted in order and the first success wins:
//
//  1. cache hit: a cached wheel matches the artifact and is installed locally
//  2. fetch then install: pip downloads into the cache and the new wheel is
//     installed, leaving it for the next run
//  3. direct: pip installs from the index without caching
//
// Install failures are returned wrapped with the artifact name and never
// retried. A failed download only routes to tier 3.
package installer

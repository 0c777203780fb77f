// Package cache provides a byte-bounded LRU for fetched reference documents.
//
// Resolvers fetch the same document repeatedly: every search that reaches a
// reference asks for it again until the catalog itself holds the target. The
// LRU keeps the raw (still encoded) bytes keyed by document name, so a hit
// skips the backend round trip but still decodes into fresh nodes.
package cache

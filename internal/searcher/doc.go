// Package searcher implements the read path of the page index: ranked
// BM25 full-text queries with per-field weighting, match counting, and
// stem-level word matching for external highlighting.
//
// Results are cached in an LRU keyed by request shape and the store's
// write generation, so a cache hit is always as fresh as the last write.
package searcher

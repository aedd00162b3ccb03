// Package indexer implements the write path of the page index: hash-gated
// upserts that keep the content store and the FTS5 table in lockstep, the
// reset/sweep cycle for bulk refreshes, and hard deletion of single paths.
//
// Markup is stripped before indexing so searches match prose, not tags, and
// per-page extra fields are carried as JSON in the info column.
package indexer

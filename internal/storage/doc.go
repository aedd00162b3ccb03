// Package storage provides SQLite-based persistence for the Sitemap index.
//
// The storage layer manages:
//   - The documents content store (one row per indexed path)
//   - The search FTS5 full-text index, kept in lockstep with documents
//   - The categories nested-set tree
//   - Versioned schema migrations
//
// # Database Schema
//
// Tables:
//   - search: FTS5 index over description, content, title, path, keywords
//   - documents: page metadata, extra-field bag, change hash, soft-delete flag
//   - categories: slash-delimited category names with nested-set bounds
//
// # Sessions
//
// All work happens through short-lived sessions. A session checks out the
// store's single connection, prepares statements on demand and caches
// them, and batches every mutation into one transaction that commits on
// Close:
//
//	session, err := store.Session(ctx)
//	if err != nil {
//	    return err
//	}
//	defer session.Close(ctx)
//
//	// ... mutate and query; reads see the session's own writes ...
//
// If any category was created during the session, Close refreshes the
// nested-set bounds of the whole tree before committing, so the refreshed
// bounds and the new rows land atomically.
//
// # Build Modes
//
// Two SQLite drivers are supported via the fts5 build tag: the CGO
// mattn/go-sqlite3 driver (tag set) and the pure Go modernc.org/sqlite
// driver (default). See build_cgo.go and build_purego.go.
package storage

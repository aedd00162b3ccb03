package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrNotFound is returned when a requested document doesn't exist
var ErrNotFound = errors.New("not found")

// Store owns the on-disk Sitemap index. One Store opens one database file;
// all reads and writes go through short-lived Sessions obtained from it.
type Store struct {
	db *sql.DB

	// bumped on every mutation in any session; read-side caches key
	// their entries by it so a cached result never outlives a write
	generation atomic.Uint64
}

// Generation returns the store-wide write counter.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// One connection: sessions own the database serially, and the
	// deferred-transaction model depends on every statement of a
	// session sharing a single SQLite connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Open opens (or creates) the Sitemap index at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// querier is the subset of database/sql shared by *sql.DB, *sql.Conn and
// *sql.Tx that the read paths operate over.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Status reports index-wide statistics.
type Status struct {
	Documents  int     // rows in the content store
	Deleted    int     // rows currently soft-deleted, pending a sweep
	Categories int     // category nodes
	SizeMB     float64 // database size on disk
}

// GetStatus returns document and category counts plus the database size.
func (s *Store) GetStatus(ctx context.Context) (*Status, error) {
	status := &Status{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&status.Documents)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE deleted = 1").Scan(&status.Deleted)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&status.Categories)
	if err != nil {
		return nil, err
	}

	// Calculate database size
	var pageCount, pageSize int
	err = s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.SizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	return status, nil
}

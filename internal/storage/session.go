package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Kylob/Sitemap/internal/hierarchy"
)

// action identifies one cached prepared statement. The set is fixed: one
// statement per action/table pair used by the write and lookup paths.
type action int

const (
	selectDocument action = iota
	insertSearch
	insertDocument
	insertCategory
	updateSearch
	updateDocument
	deleteSearch
	deleteDocument
)

// statements maps each action to its SQL. The search column lists follow
// the FTS table's column order (description, content, title, path,
// keywords); SearchFields is flattened in that order by args().
var statements = map[action]string{
	selectDocument: `SELECT docid, hash, updated, deleted FROM documents WHERE path = ?`,
	insertSearch:   `INSERT INTO search (description, content, title, path, keywords) VALUES (?, ?, ?, ?, ?)`,
	insertDocument: `INSERT INTO documents (docid, category_id, path, info, image, content, hash, updated, deleted) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	insertCategory: `INSERT INTO categories (category, parent) VALUES (?, ?)`,
	updateSearch:   `UPDATE search SET description = ?, content = ?, title = ?, path = ?, keywords = ? WHERE rowid = ?`,
	updateDocument: `UPDATE documents SET category_id = ?, path = ?, info = ?, image = ?, content = ?, hash = ?, updated = ?, deleted = ? WHERE docid = ?`,
	deleteSearch:   `DELETE FROM search WHERE rowid = ?`,
	deleteDocument: `DELETE FROM documents WHERE docid = ?`,
}

// Session is one unit of work against the index. It owns a dedicated
// connection, a cache of prepared statements, and at most one deferred
// transaction: BEGIN IMMEDIATE runs on the first mutation and COMMIT runs
// exactly once, in Close. Reads issued through the session see its own
// uncommitted writes. Abandoning a session without Close leaves the
// transaction uncommitted, which is the rollback path.
//
// A Session is not safe for concurrent use.
type Session struct {
	store      *Store
	conn       *sql.Conn
	stmts      map[action]*sql.Stmt
	inTx       bool
	generation uint64

	// category name -> id, loaded once per session
	categories    map[string]int64
	newCategories bool
}

// Session checks out the store's connection and starts a unit of work.
// The caller must Close it.
func (s *Store) Session(ctx context.Context) (*Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Session{
		store: s,
		conn:  conn,
		stmts: make(map[action]*sql.Stmt),
	}, nil
}

// Close tears the session down: closes cached statements, refreshes the
// category tree bounds if any category was inserted, commits the pending
// transaction, and releases the connection — in that order, so the
// refreshed bounds and the new rows commit atomically together.
func (st *Session) Close(ctx context.Context) error {
	// Search results cached while this session was open may include
	// its uncommitted writes. One more bump on teardown, commit or
	// rollback, expires them either way.
	if st.generation > 0 {
		defer st.store.generation.Add(1)
	}
	for _, stmt := range st.stmts {
		_ = stmt.Close()
	}
	st.stmts = nil

	if st.newCategories {
		if err := hierarchy.Refresh(ctx, st.conn); err != nil {
			_, _ = st.conn.ExecContext(ctx, "ROLLBACK")
			_ = st.conn.Close()
			return fmt.Errorf("failed to refresh category bounds: %w", err)
		}
	}
	if st.inTx {
		if _, err := st.conn.ExecContext(ctx, "COMMIT"); err != nil {
			_ = st.conn.Close()
			return fmt.Errorf("failed to commit session: %w", err)
		}
		st.inTx = false
	}
	return st.conn.Close()
}

// Generation counts this session's mutations.
func (st *Session) Generation() uint64 {
	return st.generation
}

// touch records one mutation on both the session and store counters.
func (st *Session) touch() {
	st.generation++
	st.store.generation.Add(1)
}

// ExecContext runs a statement on the session connection, inside the
// pending transaction if one is open.
func (st *Session) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return st.conn.ExecContext(ctx, query, args...)
}

// QueryContext runs a query on the session connection.
func (st *Session) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return st.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query on the session connection.
func (st *Session) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return st.conn.QueryRowContext(ctx, query, args...)
}

// begin opens the deferred transaction if it isn't open yet. Every
// mutating operation calls this before touching the database.
func (st *Session) begin(ctx context.Context) error {
	if st.inTx {
		return nil
	}
	if _, err := st.conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	st.inTx = true
	return nil
}

// prepared returns the cached statement for a, preparing it on first use.
func (st *Session) prepared(ctx context.Context, a action) (*sql.Stmt, error) {
	if stmt, ok := st.stmts[a]; ok {
		return stmt, nil
	}
	query, ok := statements[a]
	if !ok {
		return nil, fmt.Errorf("no statement defined for action %d", a)
	}
	stmt, err := st.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %q: %w", query, err)
	}
	st.stmts[a] = stmt
	return stmt, nil
}

// exec runs a cached mutating statement, opening the transaction first.
func (st *Session) exec(ctx context.Context, a action, args ...interface{}) (sql.Result, error) {
	if err := st.begin(ctx); err != nil {
		return nil, err
	}
	stmt, err := st.prepared(ctx, a)
	if err != nil {
		return nil, err
	}
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	st.touch()
	return res, nil
}

// CategoryID resolves a slash-delimited category path to its id, creating
// any missing nodes one segment at a time. The root category is id 0.
// Resolution is cached for the life of the session; re-resolving an
// existing path never creates duplicates.
func (st *Session) CategoryID(ctx context.Context, category string) (int64, error) {
	if category == "" {
		return 0, nil
	}
	if st.categories == nil {
		st.categories = make(map[string]int64)
		rows, err := st.conn.QueryContext(ctx, "SELECT category, id FROM categories")
		if err != nil {
			return 0, fmt.Errorf("failed to load categories: %w", err)
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var name string
			var id int64
			if err := rows.Scan(&name, &id); err != nil {
				return 0, err
			}
			st.categories[strings.ToLower(name)] = id
		}
		if err := rows.Err(); err != nil {
			return 0, err
		}
	}

	key := strings.ToLower(category)
	if id, ok := st.categories[key]; ok {
		return id, nil
	}

	var parent int64
	var prefix string
	for _, segment := range strings.Split(key, "/") {
		name := prefix + segment
		id, ok := st.categories[name]
		if !ok {
			res, err := st.exec(ctx, insertCategory, name, parent)
			if err != nil {
				return 0, fmt.Errorf("failed to insert category %q: %w", name, err)
			}
			id, err = res.LastInsertId()
			if err != nil {
				return 0, err
			}
			st.categories[name] = id
			st.newCategories = true
		}
		parent = id
		prefix = name + "/"
	}
	return st.categories[key], nil
}

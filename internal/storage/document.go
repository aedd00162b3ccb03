package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Document is one content-store row.
type Document struct {
	DocID      int64
	CategoryID int64
	Path       string
	Info       string // encoded extra-field bag
	Image      string
	Content    string // original content, markup intact
	Hash       string
	Updated    int64
	Deleted    bool
}

// DocumentRow is the subset of a document the upsert pipeline needs to
// decide between insert, update and no-op.
type DocumentRow struct {
	DocID   int64
	Hash    string
	Updated int64
	Deleted bool
}

// SearchFields are the five searchable fields of one document. Content
// must already be tag-stripped; the verbatim variant lives on Document.
type SearchFields struct {
	Path        string
	Title       string
	Description string
	Keywords    string
	Content     string
}

// args flattens f in the FTS table's column order.
func (f SearchFields) args() []interface{} {
	return []interface{}{f.Description, f.Content, f.Title, f.Path, f.Keywords}
}

// LookupDocument finds a document by path (case-insensitive). Returns
// ErrNotFound when no row exists.
func (st *Session) LookupDocument(ctx context.Context, path string) (*DocumentRow, error) {
	stmt, err := st.prepared(ctx, selectDocument)
	if err != nil {
		return nil, err
	}
	var row DocumentRow
	err = stmt.QueryRowContext(ctx, path).Scan(&row.DocID, &row.Hash, &row.Updated, &row.Deleted)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up document %q: %w", path, err)
	}
	return &row, nil
}

// InsertSearchRow adds a new row to the full-text index and returns the
// docid assigned to it.
func (st *Session) InsertSearchRow(ctx context.Context, f SearchFields) (int64, error) {
	res, err := st.exec(ctx, insertSearch, f.args()...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert search row: %w", err)
	}
	return res.LastInsertId()
}

// UpdateSearchRow rewrites the full-text index row for docid in place.
func (st *Session) UpdateSearchRow(ctx context.Context, docid int64, f SearchFields) error {
	args := append(f.args(), docid)
	if _, err := st.exec(ctx, updateSearch, args...); err != nil {
		return fmt.Errorf("failed to update search row %d: %w", docid, err)
	}
	return nil
}

// DeleteSearchRow removes the full-text index row for docid.
func (st *Session) DeleteSearchRow(ctx context.Context, docid int64) error {
	if _, err := st.exec(ctx, deleteSearch, docid); err != nil {
		return fmt.Errorf("failed to delete search row %d: %w", docid, err)
	}
	return nil
}

// InsertDocument adds a content-store row. DocID must come from
// InsertSearchRow so the two tables share one identity.
func (st *Session) InsertDocument(ctx context.Context, d *Document) error {
	_, err := st.exec(ctx, insertDocument,
		d.DocID, d.CategoryID, d.Path, d.Info, d.Image, d.Content, d.Hash, d.Updated, d.Deleted)
	if err != nil {
		return fmt.Errorf("failed to insert document %q: %w", d.Path, err)
	}
	return nil
}

// UpdateDocument rewrites the content-store row for d.DocID in place.
func (st *Session) UpdateDocument(ctx context.Context, d *Document) error {
	_, err := st.exec(ctx, updateDocument,
		d.CategoryID, d.Path, d.Info, d.Image, d.Content, d.Hash, d.Updated, d.Deleted, d.DocID)
	if err != nil {
		return fmt.Errorf("failed to update document %q: %w", d.Path, err)
	}
	return nil
}

// DeleteDocument removes the content-store row for docid.
func (st *Session) DeleteDocument(ctx context.Context, docid int64) error {
	if _, err := st.exec(ctx, deleteDocument, docid); err != nil {
		return fmt.Errorf("failed to delete document %d: %w", docid, err)
	}
	return nil
}

// MarkDeleted soft-deletes every document whose category falls under
// prefix, returning how many rows were flagged. The full-text index is
// left untouched; a later sweep purges whatever is not re-upserted.
func (st *Session) MarkDeleted(ctx context.Context, prefix string) (int64, error) {
	if err := st.begin(ctx); err != nil {
		return 0, err
	}
	res, err := st.conn.ExecContext(ctx,
		`UPDATE documents SET deleted = 1
		 WHERE category_id IN (SELECT id FROM categories WHERE category LIKE ?)`,
		prefix+"%")
	if err != nil {
		return 0, fmt.Errorf("failed to mark %q deleted: %w", prefix, err)
	}
	st.touch()
	return res.RowsAffected()
}

// DeletedDocIDs lists every document currently flagged for deletion.
func (st *Session) DeletedDocIDs(ctx context.Context) ([]int64, error) {
	rows, err := st.conn.QueryContext(ctx, "SELECT docid FROM documents WHERE deleted = 1")
	if err != nil {
		return nil, fmt.Errorf("failed to list deleted documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

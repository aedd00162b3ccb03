package hierarchy

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT UNIQUE COLLATE NOCASE,
		parent INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 0,
		lft INTEGER NOT NULL DEFAULT 0,
		rgt INTEGER NOT NULL DEFAULT 0
	)`)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insert(t *testing.T, db *sql.DB, category string, parent int64) int64 {
	res, err := db.Exec("INSERT INTO categories (category, parent) VALUES (?, ?)", category, parent)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func TestRefresh(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// blog
	//   blog/news
	//   blog/reviews
	// docs
	blog := insert(t, db, "blog", 0)
	insert(t, db, "blog/news", blog)
	insert(t, db, "blog/reviews", blog)
	insert(t, db, "docs", 0)

	require.NoError(t, Refresh(ctx, db))

	bounds := map[string][3]int64{} // lft, rgt, level
	rows, err := db.Query("SELECT category, lft, rgt, level FROM categories")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var name string
		var lft, rgt, level int64
		require.NoError(t, rows.Scan(&name, &lft, &rgt, &level))
		bounds[name] = [3]int64{lft, rgt, level}
	}
	require.NoError(t, rows.Err())

	// Siblings are ordered by name; children nest inside parents
	assert.Equal(t, [3]int64{1, 6, 0}, bounds["blog"])
	assert.Equal(t, [3]int64{2, 3, 1}, bounds["blog/news"])
	assert.Equal(t, [3]int64{4, 5, 1}, bounds["blog/reviews"])
	assert.Equal(t, [3]int64{7, 8, 0}, bounds["docs"])
}

func TestRefresh_OrphansBecomeRoots(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Parent id 99 does not exist
	insert(t, db, "lost", 99)
	require.NoError(t, Refresh(ctx, db))

	var lft, rgt, level int64
	err := db.QueryRow("SELECT lft, rgt, level FROM categories WHERE category = 'lost'").
		Scan(&lft, &rgt, &level)
	require.NoError(t, err)
	assert.Equal(t, int64(1), lft)
	assert.Equal(t, int64(2), rgt)
	assert.Equal(t, int64(0), level)
}

func TestLevel(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	blog := insert(t, db, "blog", 0)
	insert(t, db, "blog/news", blog)
	insert(t, db, "docs", 0)
	require.NoError(t, Refresh(ctx, db))

	roots, err := Level(ctx, db, 0)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "blog", roots[0].Name)
	assert.Equal(t, "docs", roots[1].Name)
	assert.Less(t, roots[0].Lft, roots[1].Lft)
}

func TestRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	blog := insert(t, db, "blog", 0)
	insert(t, db, "blog/news", blog)
	require.NoError(t, Refresh(ctx, db))

	lft, rgt, err := Range(ctx, db, "blog")
	require.NoError(t, err)
	assert.Equal(t, int64(1), lft)
	assert.Equal(t, int64(4), rgt)

	_, _, err = Range(ctx, db, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

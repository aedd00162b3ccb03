// Package hierarchy maintains the nested-set encoding of the category
// tree. Parent edges are the source of truth; Refresh recomputes the
// lft/rgt interval bounds and depth for the whole tree so that "all
// descendants of X" becomes a single range query.
package hierarchy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when a named category doesn't exist
var ErrNotFound = errors.New("category not found")

// Querier is the subset of database/sql this package operates over; it is
// satisfied by *sql.DB, *sql.Conn, *sql.Tx and the storage session.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Category is one tree node with its subtree bounds. Every descendant's
// bounds fall strictly within (Lft, Rgt).
type Category struct {
	ID   int64
	Name string
	Lft  int64
	Rgt  int64
}

type node struct {
	id       int64
	name     string
	children []*node
}

// Refresh recomputes level, lft and rgt for every category from the
// parent edges. Siblings are ordered by name, case-insensitively. The
// whole tree is rewritten; bounds are only valid once this has run after
// the last structural change.
func Refresh(ctx context.Context, q Querier) error {
	rows, err := q.QueryContext(ctx, "SELECT id, parent, category FROM categories")
	if err != nil {
		return fmt.Errorf("failed to load category edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	nodes := make(map[int64]*node)
	parents := make(map[int64]int64)
	for rows.Next() {
		var id, parent int64
		var name string
		if err := rows.Scan(&id, &parent, &name); err != nil {
			return err
		}
		nodes[id] = &node{id: id, name: name}
		parents[id] = parent
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Root is the virtual id 0; orphaned parents fall back to it.
	roots := make([]*node, 0)
	for id, n := range nodes {
		if p, ok := nodes[parents[id]]; ok {
			p.children = append(p.children, n)
		} else {
			roots = append(roots, n)
		}
	}
	sortNodes(roots)
	for _, n := range nodes {
		sortNodes(n.children)
	}

	counter := int64(1)
	var walk func(n *node, level int64) error
	walk = func(n *node, level int64) error {
		lft := counter
		counter++
		for _, child := range n.children {
			if err := walk(child, level+1); err != nil {
				return err
			}
		}
		rgt := counter
		counter++
		_, err := q.ExecContext(ctx,
			"UPDATE categories SET level = ?, lft = ?, rgt = ? WHERE id = ?",
			level, lft, rgt, n.id)
		return err
	}
	for _, root := range roots {
		if err := walk(root, 0); err != nil {
			return fmt.Errorf("failed to write category bounds: %w", err)
		}
	}
	return nil
}

func sortNodes(ns []*node) {
	sort.Slice(ns, func(i, j int) bool {
		return strings.ToLower(ns[i].name) < strings.ToLower(ns[j].name)
	})
}

// Level lists the categories at the given depth, ordered by lft.
func Level(ctx context.Context, q Querier, level int) ([]Category, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, category, lft, rgt FROM categories WHERE level = ? ORDER BY lft", level)
	if err != nil {
		return nil, fmt.Errorf("failed to list level %d: %w", level, err)
	}
	defer func() { _ = rows.Close() }()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Lft, &c.Rgt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Range returns the subtree bounds of a named category, case-insensitively.
// Returns ErrNotFound for an unknown name. Bounds are stale until the
// session-ending Refresh has run.
func Range(ctx context.Context, q Querier, name string) (lft, rgt int64, err error) {
	err = q.QueryRowContext(ctx,
		"SELECT lft, rgt FROM categories WHERE category = ?", name).Scan(&lft, &rgt)
	if err == sql.ErrNoRows {
		return 0, 0, ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to resolve range for %q: %w", name, err)
	}
	return lft, rgt, nil
}

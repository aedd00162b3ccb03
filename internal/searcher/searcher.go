package searcher

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Kylob/Sitemap/internal/storage"
	"github.com/Kylob/Sitemap/pkg/types"
)

// Querier is the read surface the searcher needs. Both *storage.Session
// and *sql.DB satisfy it; running through a session sees that session's
// uncommitted writes.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Query is one full-text search request. Term uses FTS5 query syntax.
// Categories are slash-delimited prefixes OR'd together; empty means the
// whole index. Weights follow the caller order path, title, description,
// keywords, content and are normalized to five entries. Where is an
// optional raw SQL predicate over the joined tables (aliases s, m, c),
// ANDed onto the query.
type Query struct {
	Term       string
	Categories []string
	Weights    []float64
	Limit      int
	Offset     int
	Where      string
}

const snippetTokens = 32

// fromClause joins the full-text index to the content store and the
// category tree. The category join is LEFT so root-level pages, whose
// category_id is 0, survive it.
const fromClause = `
	FROM search AS s
	INNER JOIN documents AS m ON m.docid = s.rowid
	LEFT JOIN categories AS c ON c.id = m.category_id`

// Searcher is the read path of the page index. Results are cached per
// request shape and invalidated by the store's write generation.
type Searcher struct {
	store  *storage.Store
	base   string
	suffix string
	cache  *resultCache
}

// New creates a Searcher over store. base and suffix frame result URLs
// as base + "/" + path + suffix.
func New(store *storage.Store, base, suffix string, cacheSize int) (*Searcher, error) {
	cache, err := newResultCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Searcher{
		store:  store,
		base:   strings.TrimRight(base, "/"),
		suffix: suffix,
		cache:  cache,
	}, nil
}

// Count returns how many live pages match term under the given category
// prefixes. extra is an optional raw SQL predicate over the joined
// tables, the same contract as Query.Where; pass "" for none.
func (s *Searcher) Count(ctx context.Context, q Querier, term, extra string, categories ...string) (int, error) {
	where, args := buildWhere(term, categories, extra)
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*)"+fromClause+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches for %q: %w", term, err)
	}
	return count, nil
}

// Search runs a ranked full-text query. Scores are positive,
// higher-is-better BM25 values; pages matching only zero-weighted columns
// score 0 and sort last. Each result carries a snippet from the first
// column that produced a highlight, in the order description, content,
// title, path, keywords, stripped of everything but the highlight tags.
func (s *Searcher) Search(ctx context.Context, q Querier, query Query) ([]types.Result, error) {
	key := cacheKey(query)
	generation := s.store.Generation()
	if results, ok := s.cache.get(key, generation); ok {
		return results, nil
	}

	weights := remapWeights(types.NormalizeWeights(query.Weights))
	where, args := buildWhere(query.Term, query.Categories, query.Where)

	sel := `SELECT s.rowid, s.title, s.description, s.keywords,
		m.path, m.image, m.content, m.info, m.updated, COALESCE(c.category, ''),
		bm25(s.search, ?, ?, ?, ?, ?),
		snippet(s.search, 0, '<b>', '</b>', '...', ` + fmt.Sprint(snippetTokens) + `),
		snippet(s.search, 1, '<b>', '</b>', '...', ` + fmt.Sprint(snippetTokens) + `),
		snippet(s.search, 2, '<b>', '</b>', '...', ` + fmt.Sprint(snippetTokens) + `),
		snippet(s.search, 3, '<b>', '</b>', '...', ` + fmt.Sprint(snippetTokens) + `),
		snippet(s.search, 4, '<b>', '</b>', '...', ` + fmt.Sprint(snippetTokens) + `)`

	full := sel + fromClause + where + ` ORDER BY bm25(s.search, ?, ?, ?, ?, ?) ASC, m.path ASC`
	queryArgs := append(append([]interface{}{}, weights...), args...)
	queryArgs = append(queryArgs, weights...)
	if query.Limit > 0 {
		full += " LIMIT ? OFFSET ?"
		offset := query.Offset
		if offset < 0 {
			offset = 0
		}
		queryArgs = append(queryArgs, query.Limit, offset)
	}

	rows, err := q.QueryContext(ctx, full, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to search for %q: %w", query.Term, err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]types.Result, 0)
	for rows.Next() {
		var r types.Result
		var info string
		var rank float64
		var snippets [5]string
		err := rows.Scan(&r.DocID, &r.Title, &r.Description, &r.Keywords,
			&r.Path, &r.Image, &r.Content, &info, &r.Updated, &r.Category,
			&rank,
			&snippets[0], &snippets[1], &snippets[2], &snippets[3], &snippets[4])
		if err != nil {
			return nil, err
		}
		r.Score = -rank
		r.Snippet = snippetPolicy.Sanitize(pickSnippet(snippets))
		r.URL = s.url(r.Path)
		if info != "" && info != "{}" {
			if err := json.Unmarshal([]byte(info), &r.Extra); err != nil {
				return nil, fmt.Errorf("failed to decode info for %q: %w", r.Path, err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.cache.put(key, generation, results)
	return results, nil
}

func (s *Searcher) url(path string) string {
	if path == "" {
		return s.base
	}
	return s.base + "/" + path + s.suffix
}

// buildWhere assembles the shared predicate: the MATCH term, the
// soft-delete filter, OR'd category prefixes, and any raw extra filter.
// The FTS table is aliased, so MATCH goes through its hidden s.search
// column; a bare "s MATCH" would not resolve.
func buildWhere(term string, categories []string, extra string) (string, []interface{}) {
	where := " WHERE s.search MATCH ? AND m.deleted = 0"
	args := []interface{}{term}
	if len(categories) > 0 {
		likes := make([]string, len(categories))
		for i, category := range categories {
			likes[i] = "c.category LIKE ?"
			args = append(args, category+"%")
		}
		where += " AND (" + strings.Join(likes, " OR ") + ")"
	}
	if extra != "" {
		where += " AND (" + extra + ")"
	}
	return where, args
}

// remapWeights converts caller-order weights (path, title, description,
// keywords, content) to the FTS table's column order (description,
// content, title, path, keywords).
func remapWeights(w []float64) []interface{} {
	return []interface{}{w[2], w[4], w[1], w[0], w[3]}
}

// snippetPolicy reduces a display snippet to the highlight tags. Title,
// description, path and keywords are indexed verbatim, so any markup a
// caller put there would otherwise ride along into the snippet.
var snippetPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b")
	return p
}()

// pickSnippet returns the first snippet that actually highlighted a term.
// The candidates arrive in FTS column order, which is also the display
// preference: description, content, title, path, keywords.
func pickSnippet(snippets [5]string) string {
	for _, snip := range snippets {
		if strings.Contains(snip, "<b>") {
			return snip
		}
	}
	return snippets[0]
}

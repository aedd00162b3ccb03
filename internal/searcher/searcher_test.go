package searcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kylob/Sitemap/internal/indexer"
	"github.com/Kylob/Sitemap/internal/storage"
	"github.com/Kylob/Sitemap/pkg/types"
)

func setupTest(t *testing.T) (*storage.Store, *storage.Session, *Searcher) {
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	session, err := store.Session(context.Background())
	require.NoError(t, err)

	search, err := New(store, "https://example.com", ".html", 8)
	require.NoError(t, err)
	return store, session, search
}

func index(t *testing.T, session *storage.Session, category string, f types.Fields) {
	require.NoError(t, indexer.New(session).Upsert(context.Background(), category, f))
}

func TestCount(t *testing.T) {
	_, session, search := setupTest(t)
	ctx := context.Background()

	index(t, session, "blog", types.Fields{Path: "a", Title: "Go tutorial", Updated: 1})
	index(t, session, "blog", types.Fields{Path: "b", Title: "Rust tutorial", Updated: 1})
	index(t, session, "docs", types.Fields{Path: "c", Title: "Go reference", Updated: 1})

	count, err := search.Count(ctx, session, "tutorial", "")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = search.Count(ctx, session, "go", "")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Category prefixes restrict, and OR together
	count, err = search.Count(ctx, session, "go", "", "docs")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = search.Count(ctx, session, "go", "", "docs", "blog")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCount_ExcludesSoftDeleted(t *testing.T) {
	_, session, search := setupTest(t)
	ctx := context.Background()

	index(t, session, "blog", types.Fields{Path: "a", Title: "Go tutorial", Updated: 1})
	_, err := session.MarkDeleted(ctx, "blog")
	require.NoError(t, err)

	count, err := search.Count(ctx, session, "tutorial", "")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSearch(t *testing.T) {
	_, session, search := setupTest(t)
	ctx := context.Background()

	index(t, session, "blog", types.Fields{
		Path:        "blog/go",
		Title:       "Learning Go",
		Description: "An introduction to the Go programming language",
		Updated:     100,
		Extra:       map[string]any{"author": "pat"},
	})
	index(t, session, "blog", types.Fields{Path: "blog/rust", Title: "Learning Rust", Updated: 100})

	results, err := search.Search(ctx, session, Query{Term: "programming", Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "blog/go", r.Path)
	assert.Equal(t, "Learning Go", r.Title)
	assert.Equal(t, "blog", r.Category)
	assert.Equal(t, "https://example.com/blog/go.html", r.URL)
	assert.Greater(t, r.Score, 0.0)
	assert.Contains(t, r.Snippet, "<b>programming</b>")
	assert.Equal(t, "pat", r.Extra["author"])
}

func TestSearch_SnippetKeepsOnlyHighlights(t *testing.T) {
	_, session, search := setupTest(t)
	ctx := context.Background()

	// Description is indexed verbatim, markup included; the snippet
	// must come back with nothing but the highlight tags.
	index(t, session, "", types.Fields{
		Path:        "a",
		Description: `Learn <i>gardening</i> fast with <a href="/x">tips</a>`,
		Updated:     1,
	})

	results, err := search.Search(ctx, session, Query{Term: "gardening", Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Learn <b>gardening</b> fast with tips", results[0].Snippet)
}

func TestExtraFilter(t *testing.T) {
	_, session, search := setupTest(t)
	ctx := context.Background()

	index(t, session, "blog", types.Fields{Path: "blog/a", Title: "Go tutorial", Updated: 1})
	index(t, session, "docs", types.Fields{Path: "docs/b", Title: "Go tutorial", Updated: 1})

	count, err := search.Count(ctx, session, "tutorial", "m.path LIKE 'blog/%'")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := search.Search(ctx, session, Query{
		Term:  "tutorial",
		Where: "m.path LIKE 'blog/%'",
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "blog/a", results[0].Path)
}

func TestSearch_PorterStemming(t *testing.T) {
	_, session, search := setupTest(t)
	ctx := context.Background()

	index(t, session, "", types.Fields{Path: "a", Content: "She was running every day", Updated: 1})

	results, err := search.Search(ctx, session, Query{Term: "runs", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_Weights(t *testing.T) {
	_, session, search := setupTest(t)
	ctx := context.Background()

	// "anchor" appears in both so each query matches both documents;
	// "special" is in X's keywords and Y's title only.
	index(t, session, "", types.Fields{Path: "x", Title: "Anchor", Keywords: "special", Updated: 1})
	index(t, session, "", types.Fields{Path: "y", Title: "Special anchor", Updated: 1})

	// Keywords-only weighting: X ranks with a positive score, Y still
	// appears but contributes nothing and sorts last.
	results, err := search.Search(ctx, session, Query{
		Term:    "special OR anchor",
		Weights: []float64{0, 0, 0, 1, 0},
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "x", results[0].Path)
	assert.Greater(t, results[0].Score, 0.0)
	assert.Equal(t, "y", results[1].Path)
	assert.InDelta(t, 0.0, results[1].Score, 1e-9)

	// Equal weighting returns both with positive scores
	results, err = search.Search(ctx, session, Query{Term: "special OR anchor", Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Greater(t, r.Score, 0.0)
	}
}

func TestSearch_Paging(t *testing.T) {
	_, session, search := setupTest(t)
	ctx := context.Background()

	for _, path := range []string{"a", "b", "c"} {
		index(t, session, "", types.Fields{Path: path, Content: "shared term", Updated: 1})
	}

	first, err := search.Search(ctx, session, Query{Term: "shared", Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)

	rest, err := search.Search(ctx, session, Query{Term: "shared", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.NotContains(t, []string{first[0].Path, first[1].Path}, rest[0].Path)
}

func TestSearch_CacheFollowsWrites(t *testing.T) {
	_, session, search := setupTest(t)
	ctx := context.Background()

	index(t, session, "", types.Fields{Path: "a", Title: "cached query", Updated: 1})
	results, err := search.Search(ctx, session, Query{Term: "cached", Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)

	// A write after the cached read must show up in the next search
	index(t, session, "", types.Fields{Path: "b", Title: "cached again", Updated: 1})
	results, err = search.Search(ctx, session, Query{Term: "cached", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestWords(t *testing.T) {
	_, session, search := setupTest(t)
	ctx := context.Background()

	index(t, session, "", types.Fields{Path: "a", Content: "He runs a small bakery", Updated: 1})
	row, err := session.LookupDocument(ctx, "a")
	require.NoError(t, err)

	words, err := search.Words(ctx, session, "running the Bakery marathon", row.DocID)
	require.NoError(t, err)
	assert.Equal(t, []string{"running", "bakery"}, words)

	_, err = search.Words(ctx, session, "anything", 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNormalizeWeights(t *testing.T) {
	assert.Equal(t, []float64{1, 1, 1, 1, 1}, types.NormalizeWeights(nil))
	assert.Equal(t, []float64{2, 0, 1, 1, 1}, types.NormalizeWeights([]float64{2, 0}))
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, types.NormalizeWeights([]float64{1, 2, 3, 4, 5, 6}))
}

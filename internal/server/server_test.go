package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kylob/Sitemap/internal/config"
	"github.com/Kylob/Sitemap/internal/indexer"
	"github.com/Kylob/Sitemap/internal/searcher"
	"github.com/Kylob/Sitemap/internal/storage"
	"github.com/Kylob/Sitemap/pkg/types"
)

func setupTestServer(t *testing.T) (*Server, *storage.Store) {
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{
		BaseURL: "https://example.com",
		Suffix:  ".html",
		Sitemap: config.SitemapConfig{Limit: 2, Expires: config.Duration(time.Hour)},
		Search:  config.SearchConfig{Limit: 10, CacheSize: 8},
	}
	srch, err := searcher.New(store, cfg.BaseURL, cfg.Suffix, cfg.Search.CacheSize)
	require.NoError(t, err)
	return New(store, srch, cfg, nil), store
}

func seed(t *testing.T, store *storage.Store, category string, f types.Fields) {
	ctx := context.Background()
	session, err := store.Session(ctx)
	require.NoError(t, err)
	require.NoError(t, indexer.New(session).Upsert(ctx, category, f))
	require.NoError(t, session.Close(ctx))
}

func TestSitemapRoutes(t *testing.T) {
	srv, store := setupTestServer(t)
	seed(t, store, "blog", types.Fields{Path: "blog/a", Title: "A", Updated: 86400})
	seed(t, store, "blog", types.Fields{Path: "blog/b", Title: "B", Updated: 2 * 86400})
	seed(t, store, "blog", types.Fields{Path: "blog/c", Title: "C", Updated: 3 * 86400})
	router := srv.Router()

	// Index file
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("Last-Modified"))
	assert.Contains(t, rec.Body.String(), "sitemap-blog.xml")
	assert.Contains(t, rec.Body.String(), "sitemap-blog-2.xml")

	// Leaf pages
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sitemap-blog.xml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://example.com/blog/a.html")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sitemap-blog-2.xml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://example.com/blog/c.html")

	// Unknown category and out-of-range page are 404s
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sitemap-docs.xml", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sitemap-blog-9.xml", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSitemap_NotModified(t *testing.T) {
	srv, store := setupTestServer(t)
	seed(t, store, "blog", types.Fields{Path: "blog/a", Title: "A", Updated: 86400})
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sitemap-blog.xml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	lastModified := rec.Header().Get("Last-Modified")
	require.NotEmpty(t, lastModified)

	req := httptest.NewRequest(http.MethodGet, "/sitemap-blog.xml", nil)
	req.Header.Set("If-Modified-Since", lastModified)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	// An older validator still gets the full document
	req = httptest.NewRequest(http.MethodGet, "/sitemap-blog.xml", nil)
	req.Header.Set("If-Modified-Since", time.Unix(0, 0).UTC().Format(http.TimeFormat))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	srv, store := setupTestServer(t)
	seed(t, store, "blog", types.Fields{Path: "blog/go", Title: "Go tutorial", Updated: 1})
	seed(t, store, "docs", types.Fields{Path: "docs/go", Title: "Go reference", Updated: 1})
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=tutorial", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	body := rec.Body.String()
	assert.Contains(t, body, `"count":1`)
	assert.Contains(t, body, "https://example.com/blog/go.html")

	// Category filter
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=go&category=docs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.NotContains(t, rec.Body.String(), "blog/go")

	// Missing and malformed parameters
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=go&weights=a,b", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFound_EvictsPath(t *testing.T) {
	srv, store := setupTestServer(t)
	seed(t, store, "blog", types.Fields{Path: "blog/gone", Title: "Gone", Updated: 1})
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blog/gone.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ctx := context.Background()
	session, err := store.Session(ctx)
	require.NoError(t, err)
	defer func() { _ = session.Close(ctx) }()
	_, err = session.LookupDocument(ctx, "blog/gone")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAutoIndex(t *testing.T) {
	srv, store := setupTestServer(t)

	page := srv.AutoIndex(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if meta := Meta(r.Context()); meta != nil {
			meta.Category = "blog"
			meta.Fields.Title = "Hello"
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<h1>Hello</h1><p>Auto indexed body</p>"))
	}))

	rec := httptest.NewRecorder()
	page.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blog/hello.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	ctx := context.Background()
	session, err := store.Session(ctx)
	require.NoError(t, err)
	row, err := session.LookupDocument(ctx, "blog/hello")
	require.NoError(t, err)

	// The served body stands in for unset content
	var title, content string
	err = session.QueryRowContext(ctx, "SELECT title, content FROM search WHERE rowid = ?", row.DocID).
		Scan(&title, &content)
	require.NoError(t, err)
	assert.Equal(t, "Hello", title)
	assert.Contains(t, content, "Auto indexed body")
	require.NoError(t, session.Close(ctx))

	// Query strings and non-HTML responses are never indexed
	rec = httptest.NewRecorder()
	page.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blog/other.html?draft=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	asset := srv.AutoIndex(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	rec = httptest.NewRecorder()
	asset.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	session, err = store.Session(ctx)
	require.NoError(t, err)
	defer func() { _ = session.Close(ctx) }()
	_, err = session.LookupDocument(ctx, "blog/other")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = session.LookupDocument(ctx, "api/data")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOptOut(t *testing.T) {
	srv, store := setupTestServer(t)

	handler := srv.AutoIndex(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if meta := Meta(r.Context()); meta != nil {
			meta.Skip = true
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<h1>secret</h1>"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/secret.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	ctx := context.Background()
	session, err := store.Session(ctx)
	require.NoError(t, err)
	defer func() { _ = session.Close(ctx) }()
	_, err = session.LookupDocument(ctx, "secret")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

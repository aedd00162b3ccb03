package server

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/Kylob/Sitemap/internal/indexer"
	"github.com/Kylob/Sitemap/pkg/types"
)

type metaKey struct{}

// PageMeta is how a page handler describes itself to the AutoIndex
// middleware. Handlers fetch it with Meta and fill in what they know;
// Skip leaves the page out of the index entirely.
type PageMeta struct {
	Category string
	Fields   types.Fields
	Skip     bool
}

// Meta returns the request's PageMeta, or nil when the AutoIndex
// middleware is not in the chain.
func Meta(ctx context.Context) *PageMeta {
	meta, _ := ctx.Value(metaKey{}).(*PageMeta)
	return meta
}

// AutoIndex indexes pages as they are served. After a successful HTML
// response to a plain GET (no query string), the page is upserted under
// the metadata its handler published; the response body stands in for
// any content the handler didn't set. Redirects, errors and opted-out
// pages are left alone.
func (s *Server) AutoIndex(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.RawQuery != "" {
			next.ServeHTTP(w, r)
			return
		}

		meta := &PageMeta{}
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), metaKey{}, meta)))

		if meta.Skip || rec.status != http.StatusOK {
			return
		}
		if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
			return
		}

		if meta.Fields.Path == "" {
			path := strings.TrimPrefix(r.URL.Path, "/")
			meta.Fields.Path = strings.TrimSuffix(path, s.cfg.Suffix)
		}
		if meta.Fields.Content == "" {
			meta.Fields.Content = rec.body.String()
		}

		ctx := r.Context()
		session, err := s.store.Session(ctx)
		if err != nil {
			s.logger.Error("failed to open auto-index session", "error", err)
			return
		}
		if err := indexer.New(session).Upsert(ctx, meta.Category, meta.Fields); err != nil {
			s.logger.Error("failed to auto-index page", "path", meta.Fields.Path, "error", err)
		}
		if err := session.Close(ctx); err != nil {
			s.logger.Error("failed to close auto-index session", "path", meta.Fields.Path, "error", err)
		}
	})
}

// recorder passes the response through while keeping the status and a
// copy of the body for indexing.
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (rec *recorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *recorder) Write(p []byte) (int, error) {
	rec.body.Write(p)
	return rec.ResponseWriter.Write(p)
}

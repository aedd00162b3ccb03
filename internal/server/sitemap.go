package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Kylob/Sitemap/internal/indexer"
	"github.com/Kylob/Sitemap/internal/sitemap"
)

// handleSitemap serves sitemap.xml and its per-category pages. An empty
// or unknown sitemap is a plain 404.
func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, category, page := sitemap.Match(chi.URLParam(r, "file"))
	if kind == sitemap.None {
		s.handleNotFound(w, r)
		return
	}

	session, err := s.store.Session(ctx)
	if err != nil {
		s.internalError(w, "sitemap", err)
		return
	}
	defer func() { _ = session.Close(ctx) }()

	var doc *sitemap.Document
	switch kind {
	case sitemap.Index:
		doc, err = s.builder.BuildIndex(ctx, session)
	case sitemap.Leaf:
		doc, err = s.builder.BuildLeaf(ctx, session, category, page)
	}
	if errors.Is(err, sitemap.ErrEmpty) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.internalError(w, "sitemap", err)
		return
	}
	s.writeXML(w, r, doc)
}

// writeXML delivers a generated document with cache headers and honors
// If-Modified-Since.
func (s *Server) writeXML(w http.ResponseWriter, r *http.Request, doc *sitemap.Document) {
	lastModified := doc.LastModified.UTC().Truncate(time.Second)
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.cfg.Sitemap.Expires.Std().Seconds())))
	if !lastModified.IsZero() {
		w.Header().Set("Last-Modified", lastModified.Format(http.TimeFormat))
		if since := r.Header.Get("If-Modified-Since"); since != "" {
			if t, err := http.ParseTime(since); err == nil && !lastModified.After(t) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}
	_, _ = w.Write(doc.Body)
}

// handleNotFound answers 404 and drops the missed path from the index,
// so pages removed from the site disappear from search and sitemaps on
// the next crawl that trips over them.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	path = strings.TrimSuffix(path, s.cfg.Suffix)
	if path != "" {
		ctx := r.Context()
		if session, err := s.store.Session(ctx); err == nil {
			removed, err := indexer.New(session).Delete(ctx, path)
			if err != nil {
				s.logger.Error("failed to evict missing page", "path", path, "error", err)
			} else if removed {
				s.logger.Info("evicted missing page from index", "path", path)
			}
			if err := session.Close(ctx); err != nil {
				s.logger.Error("failed to close eviction session", "path", path, "error", err)
			}
		}
	}
	http.NotFound(w, r)
}

func (s *Server) internalError(w http.ResponseWriter, what string, err error) {
	s.logger.Error("request failed", "handler", what, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

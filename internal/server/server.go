package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Kylob/Sitemap/internal/config"
	"github.com/Kylob/Sitemap/internal/searcher"
	"github.com/Kylob/Sitemap/internal/sitemap"
	"github.com/Kylob/Sitemap/internal/storage"
)

// Server serves the search API and the generated sitemaps, and keeps the
// index in sync with traffic: the AutoIndex middleware captures served
// pages, and unresolvable requests evict their path from the index.
type Server struct {
	store    *storage.Store
	searcher *searcher.Searcher
	builder  *sitemap.Builder
	cfg      *config.Config
	logger   *slog.Logger
}

// New assembles a Server from an open store.
func New(store *storage.Store, search *searcher.Searcher, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    store,
		searcher: search,
		builder: &sitemap.Builder{
			Limit:  cfg.Sitemap.Limit,
			Base:   cfg.BaseURL,
			Suffix: cfg.Suffix,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// Router builds the HTTP routes. Anything that is not the search API or
// a sitemap file falls through to the 404 handler, which also evicts the
// missed path from the index.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/search", s.handleSearch)
	r.Get(`/{file:sitemap[a-zA-Z0-9_.-]*\.xml}`, s.handleSitemap)
	r.NotFound(s.handleNotFound)
	return r
}

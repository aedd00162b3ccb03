package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Kylob/Sitemap/internal/searcher"
	"github.com/Kylob/Sitemap/pkg/types"
)

type searchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
	Results []types.Result `json:"results"`
}

// handleSearch answers GET /search. Query parameters: q (required, FTS5
// syntax), category (repeatable prefix filter), page (1-based), limit,
// and weights (comma-separated, in the order path, title, description,
// keywords, content).
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := r.URL.Query()

	term := strings.TrimSpace(params.Get("q"))
	if term == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}

	page := intParam(params.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := intParam(params.Get("limit"), s.cfg.Search.Limit)
	if limit < 1 || limit > 100 {
		limit = s.cfg.Search.Limit
	}

	var weights []float64
	if raw := params.Get("weights"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			weight, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				http.Error(w, "malformed weights parameter", http.StatusBadRequest)
				return
			}
			weights = append(weights, weight)
		}
	}

	session, err := s.store.Session(ctx)
	if err != nil {
		s.internalError(w, "search", err)
		return
	}
	defer func() { _ = session.Close(ctx) }()

	categories := params["category"]
	count, err := s.searcher.Count(ctx, session, term, "", categories...)
	if err != nil {
		s.internalError(w, "search", err)
		return
	}
	results, err := s.searcher.Search(ctx, session, searcher.Query{
		Term:       term,
		Categories: categories,
		Weights:    weights,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		s.internalError(w, "search", err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(searchResponse{
		Query:   term,
		Count:   count,
		Page:    page,
		Limit:   limit,
		Results: results,
	})
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

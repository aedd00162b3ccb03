// Package types provides shared type definitions for the Sitemap index.
//
// This package defines the value types that cross component boundaries:
// the page fields a caller submits for indexing, the ranked rows a search
// returns, and the per-field ranking weights.
//
// # Core Types
//
// Fields carries everything known about one page at upsert time:
//
//	fields := types.Fields{
//	    Path:    "beautiful-terrible-storm",
//	    Title:   "I Watched The Storm, So Beautiful Yet Terrific",
//	    Image:   "http://example.com/storm.jpg",
//	    Content: "<p>It was amazing.</p>",
//	    Extra:   map[string]any{"author": "Joe"},
//	}
//
// Anything beyond the fixed set goes in Extra; it is stored alongside the
// page and merged back into every search result that returns it.
//
// Result is one ranked search row. Fixed fields live on the struct, caller
// extras come back in Result.Extra so the two never collide.
//
// # Weights
//
// Weights order ranking importance over the five searched fields as
// [path, title, description, keywords, content]. NormalizeWeights pads a
// short list with 1 and truncates a long one, so callers may pass any
// length. Weights shift ranking only, never which documents match.
package types

package types

// SearchFieldCount is the number of searchable page fields:
// path, title, description, keywords, and content.
const SearchFieldCount = 5

// Fields contains the data a caller supplies for one indexed page.
//
// Path identifies the page; the empty string is the site root. Updated is
// an epoch-seconds timestamp, 0 meaning "now" (negative values are
// normalized to their absolute value). Content may contain markup; it is
// stored verbatim and a tag-stripped variant is what gets searched.
type Fields struct {
	Path        string
	Title       string
	Description string
	Keywords    string
	Image       string
	Content     string
	Updated     int64
	Extra       map[string]any
}

// Result is one search result row, ordered most relevant first.
type Result struct {
	// DocID is the document identity shared with the full-text index.
	DocID int64 `json:"docid"`

	// Searchable fields as indexed.
	Path        string `json:"path"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty"`

	// Metadata from the content store.
	Category string `json:"category,omitempty"`
	URL      string `json:"url"` // absolute display URL (base + path + suffix)
	Image    string `json:"image,omitempty"`
	Updated  int64  `json:"updated"`
	Content  string `json:"content,omitempty"` // original content, markup intact

	// Snippet is a display excerpt with <b> emphasis around matched
	// terms and all other markup stripped.
	Snippet string `json:"snippet,omitempty"`

	// Score is the relevance of this row; higher is better. A document
	// whose only matching fields carry zero weight scores 0.
	Score float64 `json:"score"`

	// Extra holds the caller-supplied fields beyond the fixed set,
	// kept separate so they can never shadow a fixed field.
	Extra map[string]any `json:"extra,omitempty"`
}

// NormalizeWeights pads w with 1 up to SearchFieldCount elements and
// truncates anything beyond, returning a slice of exactly that length.
// A nil or empty input means equal weighting.
func NormalizeWeights(w []float64) []float64 {
	out := make([]float64, SearchFieldCount)
	for i := range out {
		if i < len(w) {
			out[i] = w[i]
		} else {
			out[i] = 1
		}
	}
	return out
}

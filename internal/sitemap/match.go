package sitemap

import (
	"strconv"
	"strings"
)

// Kind classifies a requested file name.
type Kind int

const (
	// None means the name is not a sitemap file at all.
	None Kind = iota
	// Index is the top-level sitemap.xml listing one entry per
	// category page.
	Index
	// Leaf is one page of one category's URLs.
	Leaf
)

// Match classifies a file name into a sitemap request. Recognized names
// are "sitemap.xml", "sitemap-<category>.xml" (page 1) and
// "sitemap-<category>-<n>.xml" for n >= 2; page 1 never carries a
// numeric suffix, so a trailing "-<n>" always means a page number.
func Match(name string) (Kind, string, int) {
	if name == "sitemap.xml" {
		return Index, "", 0
	}
	if !strings.HasPrefix(name, "sitemap-") || !strings.HasSuffix(name, ".xml") {
		return None, "", 0
	}
	category := strings.TrimSuffix(strings.TrimPrefix(name, "sitemap-"), ".xml")
	if category == "" {
		return None, "", 0
	}
	page := 1
	if i := strings.LastIndex(category, "-"); i > 0 {
		if n, err := strconv.Atoi(category[i+1:]); err == nil {
			if n < 2 {
				return None, "", 0
			}
			page = n
			category = category[:i]
		}
	}
	return Leaf, category, page
}

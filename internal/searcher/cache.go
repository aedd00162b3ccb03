package searcher

import (
	"crypto/sha256"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Kylob/Sitemap/pkg/types"
)

// resultCache memoizes search results per request shape. Entries carry
// the store generation they were computed at; a later write makes every
// older entry a miss, so no explicit invalidation is needed.
type resultCache struct {
	entries *lru.Cache[[sha256.Size]byte, cacheEntry]
}

type cacheEntry struct {
	generation uint64
	results    []types.Result
}

func newResultCache(size int) (*resultCache, error) {
	if size <= 0 {
		size = 128
	}
	entries, err := lru.New[[sha256.Size]byte, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create search cache: %w", err)
	}
	return &resultCache{entries: entries}, nil
}

func (c *resultCache) get(key [sha256.Size]byte, generation uint64) ([]types.Result, bool) {
	entry, ok := c.entries.Get(key)
	if !ok || entry.generation != generation {
		return nil, false
	}
	return entry.results, true
}

func (c *resultCache) put(key [sha256.Size]byte, generation uint64, results []types.Result) {
	c.entries.Add(key, cacheEntry{generation: generation, results: results})
}

// cacheKey hashes every field that affects a query's result set.
func cacheKey(q Query) [sha256.Size]byte {
	var b strings.Builder
	b.WriteString(q.Term)
	b.WriteByte(0)
	for _, category := range q.Categories {
		b.WriteString(category)
		b.WriteByte(0)
	}
	b.WriteByte(0)
	for _, w := range q.Weights {
		fmt.Fprintf(&b, "%g,", w)
	}
	fmt.Fprintf(&b, "|%d|%d|%s", q.Limit, q.Offset, q.Where)
	return sha256.Sum256([]byte(b.String()))
}

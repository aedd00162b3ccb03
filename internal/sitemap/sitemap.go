package sitemap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kylob/Sitemap/internal/hierarchy"
)

// ErrEmpty is returned when the requested sitemap would contain no URLs:
// an unknown category, a page past the end, or an index with no
// categories at all. Callers map it to a 404.
var ErrEmpty = errors.New("sitemap is empty")

// Builder renders sitemaps.org XML out of the page index. Limit caps the
// URLs per leaf file; categories holding more are split into numbered
// pages. Base and Suffix frame page URLs exactly as search results do.
type Builder struct {
	Limit  int
	Base   string
	Suffix string
}

// Document is one finished sitemap file. LastModified is the newest
// updated timestamp of the URLs inside, for conditional GETs.
type Document struct {
	Body         []byte
	LastModified time.Time
}

// BuildIndex renders the top-level sitemap.xml: one entry per page of
// each top-level category, each stamped with the category subtree's
// newest update.
func (b *Builder) BuildIndex(ctx context.Context, q hierarchy.Querier) (*Document, error) {
	roots, err := hierarchy.Level(ctx, q, 0)
	if err != nil {
		return nil, err
	}

	index := sitemapIndex{Xmlns: xmlns}
	var newest int64
	for _, root := range roots {
		var count int
		var updated int64
		err := q.QueryRowContext(ctx,
			`SELECT COUNT(*), COALESCE(MAX(m.updated), 0)
			 FROM documents AS m
			 INNER JOIN categories AS c ON c.id = m.category_id
			 WHERE c.lft BETWEEN ? AND ? AND m.deleted = 0`,
			root.Lft, root.Rgt).Scan(&count, &updated)
		if err != nil {
			return nil, fmt.Errorf("failed to size category %q: %w", root.Name, err)
		}
		if count == 0 {
			continue
		}
		if updated > newest {
			newest = updated
		}
		pages := (count + b.Limit - 1) / b.Limit
		for page := 1; page <= pages; page++ {
			index.Sitemaps = append(index.Sitemaps, sitemapEntry{
				Loc:     b.Base + "/" + leafName(root.Name, page),
				LastMod: lastmod(updated),
			})
		}
	}
	if len(index.Sitemaps) == 0 {
		return nil, ErrEmpty
	}

	body, err := render(index)
	if err != nil {
		return nil, err
	}
	return &Document{Body: body, LastModified: time.Unix(newest, 0).UTC()}, nil
}

// BuildLeaf renders one page of one category's URLs, in path order.
// Pages are 1-based; a page past the category's end is ErrEmpty.
func (b *Builder) BuildLeaf(ctx context.Context, q hierarchy.Querier, category string, page int) (*Document, error) {
	if page < 1 {
		return nil, ErrEmpty
	}
	rows, err := q.QueryContext(ctx,
		`SELECT m.path, m.updated
		 FROM documents AS m
		 INNER JOIN categories AS c ON c.id = m.category_id
		 WHERE c.category LIKE ? AND m.deleted = 0
		 ORDER BY m.path ASC LIMIT ? OFFSET ?`,
		category+"%", b.Limit, (page-1)*b.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list category %q: %w", category, err)
	}
	defer func() { _ = rows.Close() }()

	set := urlSet{Xmlns: xmlns}
	var newest int64
	for rows.Next() {
		var path string
		var updated int64
		if err := rows.Scan(&path, &updated); err != nil {
			return nil, err
		}
		if updated > newest {
			newest = updated
		}
		set.URLs = append(set.URLs, urlEntry{
			Loc:     b.pageURL(path),
			LastMod: lastmod(updated),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(set.URLs) == 0 {
		return nil, ErrEmpty
	}

	body, err := render(set)
	if err != nil {
		return nil, err
	}
	return &Document{Body: body, LastModified: time.Unix(newest, 0).UTC()}, nil
}

func (b *Builder) pageURL(path string) string {
	if path == "" {
		return b.Base
	}
	return b.Base + "/" + path + b.Suffix
}

// leafName builds the file name for one category page. Page 1 is the
// bare name; later pages carry a numeric suffix.
func leafName(category string, page int) string {
	if page > 1 {
		return fmt.Sprintf("sitemap-%s-%d.xml", category, page)
	}
	return "sitemap-" + category + ".xml"
}

func lastmod(updated int64) string {
	if updated <= 0 {
		return ""
	}
	return time.Unix(updated, 0).UTC().Format("2006-01-02")
}

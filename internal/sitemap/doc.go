// Package sitemap renders the page index as sitemaps.org XML: a
// sitemapindex of per-category files and paginated urlset leaves, plus
// the file-name grammar that routes requests to them.
package sitemap

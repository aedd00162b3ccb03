// Package server exposes the page index over HTTP: a JSON search
// endpoint, generated sitemap.xml files with conditional-GET support,
// an auto-indexing middleware that captures pages as they are served,
// and a 404 handler that evicts vanished pages from the index.
package server

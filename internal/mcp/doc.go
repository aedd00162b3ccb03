// Package mcp implements the Model Context Protocol (MCP) server for the
// Sitemap index.
//
// The server exposes four tools to AI assistants over JSON-RPC 2.0 on
// stdio:
//   - search_pages: ranked full-text search over the indexed site
//   - count_pages: count matches for a query
//   - matched_words: report which query words occur in one page
//   - get_status: index statistics
//
// # Basic Usage
//
// The server is started in mcp mode:
//
//	sitemapd -mcp
//
// It then listens on stdin for protocol messages and writes responses to
// stdout; logs go to stderr.
//
// # Tool: search_pages
//
//	Request:
//	{
//	  "name": "search_pages",
//	  "arguments": {
//	    "query": "library hours",
//	    "categories": ["blog"],
//	    "weights": [0, 2, 1, 1, 1],
//	    "limit": 10
//	  }
//	}
//
// The response carries the total match count and one result per page,
// each with its URL, snippet and relevance score. Every tool call runs
// in its own short-lived session against the shared store.
package mcp

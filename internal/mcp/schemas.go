package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchPagesTool returns the tool definition for search_pages
func searchPagesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_pages",
		Description: "Search the indexed site for pages matching a full-text query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (FTS5 syntax: bare words, \"quoted phrases\", AND/OR/NOT)",
				},
				"categories": map[string]interface{}{
					"type":        "array",
					"description": "Slash-delimited category prefixes to restrict the search to (OR-combined)",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"weights": map[string]interface{}{
					"type":        "array",
					"description": "Relevance weights for path, title, description, keywords, content (missing entries default to 1)",
					"items": map[string]interface{}{
						"type": "number",
					},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Number of results to skip, for paging",
					"default":     0,
					"minimum":     0,
				},
			},
			Required: []string{"query"},
		},
	}
}

// countPagesTool returns the tool definition for count_pages
func countPagesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "count_pages",
		Description: "Count indexed pages matching a full-text query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (FTS5 syntax)",
				},
				"categories": map[string]interface{}{
					"type":        "array",
					"description": "Slash-delimited category prefixes to restrict the count to (OR-combined)",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"query"},
		},
	}
}

// matchedWordsTool returns the tool definition for matched_words
func matchedWordsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "matched_words",
		Description: "Report which words of a query occur in one indexed page, matched on word stems",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The search query whose words to check",
				},
				"docid": map[string]interface{}{
					"type":        "integer",
					"description": "Document id from a search_pages result",
				},
			},
			Required: []string{"query", "docid"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query index statistics: page and category counts, pending deletions, database size",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

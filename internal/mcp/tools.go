package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Kylob/Sitemap/internal/searcher"
	"github.com/Kylob/Sitemap/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery    = -32001 // Query parameter is empty
	ErrorCodePageNotFound  = -32002 // Document id not in the index
)

// handleSearchPages handles the search_pages tool invocation
func (s *Server) handleSearchPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	offset := getIntDefault(args, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	categories := getStringSlice(args, "categories")
	weights := getFloatSlice(args, "weights")

	session, err := s.store.Session(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to open session", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() { _ = session.Close(ctx) }()

	count, err := s.searcher.Count(ctx, session, query, "", categories...)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	results, err := s.searcher.Search(ctx, session, searcher.Query{
		Term:       query,
		Categories: categories,
		Weights:    weights,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"query":   query,
		"count":   count,
		"results": results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCountPages handles the count_pages tool invocation
func (s *Server) handleCountPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}
	categories := getStringSlice(args, "categories")

	session, err := s.store.Session(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to open session", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() { _ = session.Close(ctx) }()

	count, err := s.searcher.Count(ctx, session, query, "", categories...)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "count failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"query": query,
		"count": count,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleMatchedWords handles the matched_words tool invocation
func (s *Server) handleMatchedWords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}
	docid := getIntDefault(args, "docid", 0)
	if docid < 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "docid parameter is required", map[string]interface{}{
			"param":  "docid",
			"reason": "missing or not a positive integer",
		})
	}

	session, err := s.store.Session(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to open session", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() { _ = session.Close(ctx) }()

	words, err := s.searcher.Words(ctx, session, query, int64(docid))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodePageNotFound, "no such document", map[string]interface{}{
			"docid": docid,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "word matching failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"query": query,
		"docid": docid,
		"words": words,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.store.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"documents":        status.Documents,
		"pending_deletion": status.Deleted,
		"categories":       status.Categories,
		"database_size_mb": fmt.Sprintf("%.2f", status.SizeMB),
		"driver":           storage.DriverName,
		"build_mode":       storage.BuildMode,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts an array-of-strings parameter
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// getFloatSlice extracts an array-of-numbers parameter
func getFloatSlice(args map[string]interface{}, key string) []float64 {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}

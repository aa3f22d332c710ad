package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragctx/internal/domain"
	"github.com/kailas-cloud/ragctx/internal/domain/passage"
	"github.com/kailas-cloud/ragctx/internal/domain/search/request"
	"github.com/kailas-cloud/ragctx/internal/domain/search/result"
)

// JSON-RPC error codes.
const (
	ErrorCodeInvalidParams    = -32602
	ErrorCodeInternalError    = -32603
	ErrorCodeEmptyQuery       = -32004
	ErrorCodeDocumentNotFound = -32005
)

// Error is a tool failure carrying a JSON-RPC error code.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func newError(code int, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

type passageResult struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Title         string   `json:"title"`
	Author        string   `json:"author,omitempty"`
	URL           string   `json:"url,omitempty"`
	Themes        []string `json:"themes,omitempty"`
	Similarity    float64  `json:"similarity"`
	CombinedScore float64  `json:"combined_score"`
}

type documentResult struct {
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	Date   string `json:"date,omitempty"`
	URL    string `json:"url,omitempty"`
}

type metadataResult struct {
	Title    string   `json:"title"`
	Author   string   `json:"author,omitempty"`
	Date     string   `json:"date,omitempty"`
	URL      string   `json:"url,omitempty"`
	Gist     string   `json:"gist,omitempty"`
	Themes   []string `json:"themes,omitempty"`
	FileName string   `json:"file_name,omitempty"`
}

func (s *Server) handleSearchPassages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(req)

	query := getString(args, "query")
	if strings.TrimSpace(query) == "" {
		return nil, newError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty")
	}
	limit := getInt(args, "limit", 0)
	if limit < 0 || limit > maxLimit {
		return nil, newError(ErrorCodeInvalidParams, "limit must be between 1 and %d", maxLimit)
	}

	sr, err := request.New(query, limit, getString(args, "theme_filter"))
	if err != nil {
		return nil, newError(ErrorCodeInvalidParams, "%v", err)
	}

	ranked, err := s.search.Search(ctx, &sr)
	if err != nil {
		s.logger.Warn("search_passages failed", zap.Error(err))
		return mcp.NewToolResultError(toolMessage(err)), nil
	}

	out := make([]passageResult, len(ranked))
	for i := range ranked {
		out[i] = toPassageResult(&ranked[i])
	}
	return jsonResult(map[string]interface{}{"passages": out})
}

// handleBuildContext always succeeds for a non-empty query; retrieval failures
// yield the no-context marker.
func (s *Server) handleBuildContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := getString(arguments(req), "query")
	if strings.TrimSpace(query) == "" {
		return nil, newError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty")
	}
	return mcp.NewToolResultText(s.context.Build(ctx, query).Block), nil
}

func (s *Server) handleListDocuments(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.catalog.ListDocuments(ctx)
	if err != nil {
		s.logger.Warn("list_documents failed", zap.Error(err))
		return mcp.NewToolResultError(toolMessage(err)), nil
	}
	out := make([]documentResult, len(docs))
	for i, d := range docs {
		out[i] = documentResult{Title: d.Title, Author: d.Author, Date: d.Date, URL: d.URL}
	}
	return jsonResult(map[string]interface{}{"documents": out})
}

func (s *Server) handleDocumentMetadata(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := getString(arguments(req), "title")
	if title == "" {
		return nil, newError(ErrorCodeInvalidParams, "title parameter is required")
	}
	meta, err := s.catalog.Metadata(ctx, title)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return nil, newError(ErrorCodeDocumentNotFound, "document %q not found", title)
	}
	if err != nil {
		s.logger.Warn("document_metadata failed", zap.Error(err))
		return mcp.NewToolResultError(toolMessage(err)), nil
	}
	return jsonResult(toMetadataResult(meta))
}

func toPassageResult(r *result.Scored) passageResult {
	p := r.Passage()
	m := p.Metadata()
	return passageResult{
		ID:            p.ID(),
		Text:          p.Text(),
		Title:         m.DocumentKey(),
		Author:        m.Author,
		URL:           m.URL,
		Themes:        m.Themes,
		Similarity:    r.Similarity(),
		CombinedScore: r.Combined(),
	}
}

func toMetadataResult(m passage.Metadata) metadataResult {
	return metadataResult{
		Title:    m.Title,
		Author:   m.Author,
		Date:     m.Date,
		URL:      m.URL,
		Gist:     m.Gist,
		Themes:   m.Themes,
		FileName: m.FileName,
	}
}

// toolMessage reports provider and store failures without internal detail.
func toolMessage(err error) string {
	for _, s := range []error{domain.ErrEmbeddingProviderError, domain.ErrStore, domain.ErrInvalidRequest} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, newError(ErrorCodeInternalError, "encode result: %v", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func arguments(req mcp.CallToolRequest) map[string]interface{} {
	args, _ := req.Params.Arguments.(map[string]interface{})
	return args
}

func getString(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

// getInt accepts JSON numbers (float64) as well as ints from in-process callers.
func getInt(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

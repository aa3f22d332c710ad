package chi

import (
	"github.com/kailas-cloud/ragctx/internal/domain/passage"
	"github.com/kailas-cloud/ragctx/internal/domain/search/result"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest              ErrorCode = "bad_request"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeUnauthorized            ErrorCode = "unauthorized"
	CodeDocumentNotFound        ErrorCode = "document_not_found"
	CodeEmbeddingProviderError  ErrorCode = "embedding_provider_error"
	CodeGenerationProviderError ErrorCode = "generation_provider_error"
	CodeStoreUnavailable        ErrorCode = "store_unavailable"
	CodeNotImplemented          ErrorCode = "not_implemented"
	CodeInternalError           ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query       string  `json:"query"`
	Limit       *int    `json:"limit,omitempty"`
	ThemeFilter *string `json:"theme_filter,omitempty"`
}

// SearchResponse is the body returned by POST /v1/search.
type SearchResponse struct {
	Results []PassageItem `json:"results"`
}

// PassageItem is one ranked passage.
type PassageItem struct {
	ID            string       `json:"id"`
	Text          string       `json:"text"`
	Similarity    float64      `json:"similarity"`
	ThemeScore    float64      `json:"theme_score"`
	GistScore     float64      `json:"gist_score"`
	CombinedScore float64      `json:"combined_score"`
	Metadata      MetadataItem `json:"metadata"`
}

// MetadataItem is the wire form of passage metadata.
type MetadataItem struct {
	Title    string   `json:"title,omitempty"`
	Author   string   `json:"author,omitempty"`
	Date     string   `json:"date,omitempty"`
	URL      string   `json:"url,omitempty"`
	Gist     string   `json:"gist,omitempty"`
	Themes   []string `json:"themes,omitempty"`
	FileName string   `json:"file_name,omitempty"`
}

// ContextRequest is the body of POST /v1/context.
type ContextRequest struct {
	Query string `json:"query"`
}

// ContextResponse is the body returned by POST /v1/context.
type ContextResponse struct {
	Context  string        `json:"context"`
	Passages []PassageItem `json:"passages"`
}

// ChatMessage is one conversation turn on the wire.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// ChatResponse is the body returned by POST /v1/chat.
type ChatResponse struct {
	Reply       string   `json:"reply"`
	ContextUsed bool     `json:"context_used"`
	Sources     []string `json:"sources"`
}

// DocumentItem is one browsable source document.
type DocumentItem struct {
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	Date   string `json:"date,omitempty"`
	URL    string `json:"url,omitempty"`
}

// DocumentListResponse is the body returned by GET /v1/documents.
type DocumentListResponse struct {
	Documents []DocumentItem `json:"documents"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func passageItems(ranked []result.Scored) []PassageItem {
	items := make([]PassageItem, len(ranked))
	for i := range ranked {
		items[i] = passageItem(&ranked[i])
	}
	return items
}

func passageItem(r *result.Scored) PassageItem {
	p := r.Passage()
	return PassageItem{
		ID:            p.ID(),
		Text:          p.Text(),
		Similarity:    r.Similarity(),
		ThemeScore:    r.ThemeScore(),
		GistScore:     r.GistScore(),
		CombinedScore: r.Combined(),
		Metadata:      metadataItem(p.Metadata()),
	}
}

func metadataItem(m passage.Metadata) MetadataItem {
	return MetadataItem{
		Title:    m.Title,
		Author:   m.Author,
		Date:     m.Date,
		URL:      m.URL,
		Gist:     m.Gist,
		Themes:   m.Themes,
		FileName: m.FileName,
	}
}

func documentItems(docs []passage.DocumentSummary) []DocumentItem {
	items := make([]DocumentItem, len(docs))
	for i, d := range docs {
		items[i] = DocumentItem{Title: d.Title, Author: d.Author, Date: d.Date, URL: d.URL}
	}
	return items
}

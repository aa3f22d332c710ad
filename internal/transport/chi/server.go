package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/ragctx/internal/domain"
	"github.com/kailas-cloud/ragctx/internal/domain/passage"
	"github.com/kailas-cloud/ragctx/internal/domain/search/request"
	"github.com/kailas-cloud/ragctx/internal/domain/search/result"
	"github.com/kailas-cloud/ragctx/internal/usecase/chat"
	"github.com/kailas-cloud/ragctx/internal/usecase/grounding"
	healthuc "github.com/kailas-cloud/ragctx/internal/usecase/health"
)

// maxBodyBytes caps request bodies; chat histories are the largest.
const maxBodyBytes = 1 << 20

// Searcher ranks passages for a request.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]result.Scored, error)
}

// ContextBuilder renders grounding context for a query.
type ContextBuilder interface {
	Build(ctx context.Context, query string) grounding.Context
}

// Responder answers a conversation.
type Responder interface {
	Respond(ctx context.Context, history []domain.Message) (chat.Reply, error)
}

// Catalog browses source documents.
type Catalog interface {
	ListDocuments(ctx context.Context) ([]passage.DocumentSummary, error)
	Metadata(ctx context.Context, title string) (passage.Metadata, error)
}

// HealthReporter aggregates component health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	search  Searcher
	context ContextBuilder
	chat    Responder
	catalog Catalog
	health  HealthReporter
}

// NewServer creates an HTTP API server. chat may be nil when no generation
// provider is configured; /v1/chat then answers 501.
func NewServer(search Searcher, cb ContextBuilder, chat Responder, catalog Catalog, health HealthReporter) *Server {
	return &Server{search: search, context: cb, chat: chat, catalog: catalog, health: health}
}

// SearchPassages handles POST /v1/search.
func (s *Server) SearchPassages(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query is required")
		return
	}

	limit := 0
	if body.Limit != nil {
		if *body.Limit < 1 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be positive")
			return
		}
		limit = *body.Limit
	}
	theme := ""
	if body.ThemeFilter != nil {
		theme = *body.ThemeFilter
	}

	req, err := request.New(body.Query, limit, theme)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ranked, err := s.search.Search(ctx, &req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{Results: passageItems(ranked)})
}

// BuildContext handles POST /v1/context. Retrieval failures still answer 200
// with the no-context marker.
func (s *Server) BuildContext(w http.ResponseWriter, r *http.Request) {
	var body ContextRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	gc := s.context.Build(ctx, body.Query)

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, ContextResponse{Context: gc.Block, Passages: passageItems(gc.Passages)})
}

// Chat handles POST /v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusNotImplemented, CodeNotImplemented, "no generation provider configured")
		return
	}

	var body ChatRequest
	if !decodeBody(w, r, &body) {
		return
	}
	history, err := historyFromWire(body.Messages)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	reply, err := s.chat.Respond(ctx, history)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	sources := reply.Sources
	if sources == nil {
		sources = []string{}
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply.Text, ContextUsed: reply.ContextUsed, Sources: sources})
}

// ListDocuments handles GET /v1/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.catalog.ListDocuments(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: documentItems(docs)})
}

// GetDocumentMetadata handles GET /v1/documents/metadata?title=.
func (s *Server) GetDocumentMetadata(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "title is required")
		return
	}

	meta, err := s.catalog.Metadata(r.Context(), title)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metadataItem(meta))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func historyFromWire(msgs []ChatMessage) ([]domain.Message, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("messages must not be empty")
	}
	out := make([]domain.Message, len(msgs))
	for i, m := range msgs {
		switch m.Role {
		case domain.RoleUser, domain.RoleAssistant, domain.RoleSystem:
		default:
			return nil, fmt.Errorf("messages[%d]: unknown role %q", i, m.Role)
		}
		out[i] = domain.Message{Role: m.Role, Content: m.Content}
	}
	return out, nil
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

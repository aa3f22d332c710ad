package grounding

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragctx/internal/domain"
	"github.com/kailas-cloud/ragctx/internal/domain/search/request"
	"github.com/kailas-cloud/ragctx/internal/domain/search/result"
	"github.com/kailas-cloud/ragctx/internal/logger"
	"github.com/kailas-cloud/ragctx/internal/metrics"
)

// Searcher ranks passages for a request.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]result.Scored, error)
}

// Context is an assembled block plus the passages it was built from.
type Context struct {
	Block    string
	Passages []result.Scored
	// Degraded is set when retrieval failed and Block is the no-context marker.
	Degraded bool
}

// HasContext reports whether any passage made it into the block.
func (c Context) HasContext() bool { return len(c.Passages) > 0 }

// Sources returns distinct document keys in block order.
func (c Context) Sources() []string {
	seen := make(map[string]struct{}, len(c.Passages))
	var out []string
	for i := range c.Passages {
		p := c.Passages[i].Passage()
		key := p.Metadata().DocumentKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// Service builds grounding context for a query. It never fails: retrieval
// errors are logged and produce the no-context marker.
type Service struct {
	search    Searcher
	assembler *Assembler
	limit     int
}

// New creates a grounding service. limit 0 defers to the searcher's default.
func New(search Searcher, assembler *Assembler, limit int) *Service {
	if assembler == nil {
		assembler = NewAssembler(nil)
	}
	return &Service{search: search, assembler: assembler, limit: limit}
}

// Build retrieves passages for query and renders them.
func (s *Service) Build(ctx context.Context, query string) Context {
	req, err := request.New(query, s.limit, "")
	if err != nil {
		return s.degrade(ctx, "invalid_request", err)
	}

	ranked, err := s.search.Search(ctx, &req)
	if err != nil {
		return s.degrade(ctx, degradeReason(err), err)
	}

	block, kept := s.assembler.Assemble(ranked, query)
	if kept < len(ranked) {
		logger.FromContext(ctx).Debug("context budget dropped passages",
			zap.Int("ranked", len(ranked)),
			zap.Int("kept", kept),
		)
	}
	return Context{Block: block, Passages: ranked[:kept]}
}

func (s *Service) degrade(ctx context.Context, reason string, err error) Context {
	metrics.ContextDegradedTotal.WithLabelValues(reason).Inc()
	logger.FromContext(ctx).Warn("search failed, continuing without context",
		zap.String("reason", reason),
		zap.Error(err),
	)
	return Context{Block: NoContextMarker, Degraded: true}
}

func degradeReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return "embedding"
	case errors.Is(err, domain.ErrStore):
		return "store"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

// SystemPrompt appends the context block to generation instructions.
func SystemPrompt(instructions, block string) string {
	if block == "" {
		block = NoContextMarker
	}
	if instructions == "" {
		return "Context:\n" + block
	}
	return instructions + "\n\nContext:\n" + block
}

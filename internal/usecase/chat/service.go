// Package chat answers conversations grounded in retrieved passages.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragctx/internal/domain"
	"github.com/kailas-cloud/ragctx/internal/logger"
	"github.com/kailas-cloud/ragctx/internal/usecase/grounding"
)

// DefaultInstructions tell the model how to use the context block.
const DefaultInstructions = `You are a helpful assistant that answers questions about an indexed document collection.

Use the provided context to answer accurately. When a passage directly answers or supports your response, quote it on its own line in this exact format:
> "exact quote from the context"
After each quote, briefly explain its relevance. Name the source title when you cite it.

If the context does not contain the answer, say so plainly and answer from general knowledge only when you flag it as such.`

// ContextBuilder retrieves and renders grounding context.
type ContextBuilder interface {
	Build(ctx context.Context, query string) grounding.Context
}

// Reply is a generated answer with the context it was grounded on.
type Reply struct {
	Text        string
	ContextUsed bool
	Sources     []string
}

// Service drives one grounded generation turn.
type Service struct {
	context      ContextBuilder
	gen          domain.Generator
	instructions string
}

// New creates a chat service. Empty instructions select DefaultInstructions.
func New(cb ContextBuilder, gen domain.Generator, instructions string) *Service {
	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultInstructions
	}
	return &Service{context: cb, gen: gen, instructions: instructions}
}

// Respond retrieves context for the latest user message and generates a reply
// over the full history. Retrieval failures never fail the turn.
func (s *Service) Respond(ctx context.Context, history []domain.Message) (Reply, error) {
	if len(history) == 0 {
		return Reply{}, fmt.Errorf("%w: conversation is empty", domain.ErrInvalidRequest)
	}

	gc := s.context.Build(ctx, latestUserQuery(history))
	system := grounding.SystemPrompt(s.instructions, gc.Block)

	text, err := s.gen.Generate(ctx, system, history)
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationProviderError) {
			err = fmt.Errorf("%w: %w", domain.ErrGenerationProviderError, err)
		}
		return Reply{}, fmt.Errorf("generate reply: %w", err)
	}

	logger.FromContext(ctx).Debug("chat reply generated",
		zap.Int("history", len(history)),
		zap.Int("passages", len(gc.Passages)),
		zap.Bool("degraded", gc.Degraded),
	)

	return Reply{
		Text:        text,
		ContextUsed: gc.HasContext(),
		Sources:     gc.Sources(),
	}, nil
}

// latestUserQuery returns the last message when it comes from the user.
// Anything else means there is nothing new to search for.
func latestUserQuery(history []domain.Message) string {
	last := history[len(history)-1]
	if last.Role != domain.RoleUser {
		return ""
	}
	return last.Content
}

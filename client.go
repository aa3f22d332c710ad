package ragctx

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragctx/internal/app"
	"github.com/kailas-cloud/ragctx/internal/domain"
	"github.com/kailas-cloud/ragctx/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/ragctx/internal/usecase/health"
)

// Client is the ragctx entry point.
type Client struct {
	app *app.App
}

// New creates a Client and connects to the passage store.
func New(opts ...Option) (*Client, error) {
	c := &clientConfig{}
	for _, o := range opts {
		o.apply(c)
	}

	if c.cfg.Store.Driver == "" {
		return nil, errors.New("ragctx: passage store required (use WithRedis or WithSQLite)")
	}
	if c.embedder == nil && c.cfg.Embedding.APIKey == "" {
		return nil, errors.New("ragctx: embedder required (use WithOpenAI or WithEmbedder)")
	}
	c.cfg.ApplyDefaults()

	var appOpts []app.Option
	if c.embedder != nil {
		appOpts = append(appOpts, app.WithEmbedder(&embedderAdapter{inner: c.embedder}))
	}
	logger := c.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a, err := app.New(context.Background(), &c.cfg, logger, appOpts...)
	if err != nil {
		return nil, fmt.Errorf("ragctx: %w", err)
	}
	return &Client{app: a}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	c.app.Close()
}

// Ping checks store connectivity and, when supported, the embedding provider.
func (c *Client) Ping(ctx context.Context) error {
	report := c.app.Health.Check(ctx)
	for component, res := range report.Checks {
		if res != healthuc.CheckOK {
			return fmt.Errorf("ping: %s unavailable", component)
		}
	}
	return nil
}

// Search ranks passages for query. A blank query returns no results.
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	var sc searchConfig
	for _, o := range opts {
		o(&sc)
	}
	req, err := request.New(query, sc.limit, sc.theme)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	ranked, err := c.app.Search.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return resultsFromDomain(ranked), nil
}

// Context builds a grounding block for query. It never fails: retrieval
// errors produce the no-context marker with Degraded set.
func (c *Client) Context(ctx context.Context, query string) Context {
	gc := c.app.Context.Build(ctx, query)
	return Context{
		Text:     gc.Block,
		Results:  resultsFromDomain(gc.Passages),
		Degraded: gc.Degraded,
	}
}

// Documents lists the distinct source documents.
func (c *Client) Documents(ctx context.Context) ([]Document, error) {
	docs, err := c.app.Catalog.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("documents: %w", err)
	}
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document{Title: d.Title, Author: d.Author, Date: d.Date, URL: d.URL}
	}
	return out, nil
}

// Metadata returns the full metadata of the document titled title.
// Unknown titles yield ErrDocumentNotFound.
func (c *Client) Metadata(ctx context.Context, title string) (Metadata, error) {
	m, err := c.app.Catalog.Metadata(ctx, title)
	if err != nil {
		return Metadata{}, fmt.Errorf("metadata: %w", err)
	}
	return metadataFromDomain(m), nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

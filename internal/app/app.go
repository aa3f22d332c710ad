// Package app is the composition root shared by the CLI and the Go client.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragctx/internal/config"
	dbRedis "github.com/kailas-cloud/ragctx/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/ragctx/internal/db/sqlite"
	"github.com/kailas-cloud/ragctx/internal/domain"
	"github.com/kailas-cloud/ragctx/internal/domain/quote"
	"github.com/kailas-cloud/ragctx/internal/metrics"
	"github.com/kailas-cloud/ragctx/internal/repository/embcache"
	passagerepo "github.com/kailas-cloud/ragctx/internal/repository/passage"
	openaiTransport "github.com/kailas-cloud/ragctx/internal/transport/openai"
	"github.com/kailas-cloud/ragctx/internal/usecase/catalog"
	"github.com/kailas-cloud/ragctx/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/ragctx/internal/usecase/embedding"
	"github.com/kailas-cloud/ragctx/internal/usecase/grounding"
	healthuc "github.com/kailas-cloud/ragctx/internal/usecase/health"
	searchuc "github.com/kailas-cloud/ragctx/internal/usecase/search"
)

const providerOpenAI = "openai"

// passageStore is what the services need from a passage repository.
type passageStore interface {
	searchuc.CandidateStore
	catalog.MetadataReader
}

// App holds the wired services.
type App struct {
	Search  *searchuc.Service
	Context *grounding.Service
	// Chat is nil when no generation API key is configured.
	Chat    *chat.Service
	Catalog *catalog.Service
	Health  *healthuc.Service

	closers []func()
}

// Option overrides a collaborator built from config.
type Option func(*overrides)

type overrides struct {
	embedder  domain.Embedder
	generator domain.Generator
}

// WithEmbedder replaces the OpenAI-compatible embedder chain.
func WithEmbedder(e domain.Embedder) Option {
	return func(o *overrides) { o.embedder = e }
}

// WithGenerator replaces the OpenAI-compatible chat generator.
func WithGenerator(g domain.Generator) Option {
	return func(o *overrides) { o.generator = g }
}

// New opens the configured store and wires every service on top of it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	var ov overrides
	for _, o := range opts {
		o(&ov)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRankingMetrics()

	a := &App{}
	repo, pinger, cache, err := a.openStore(ctx, &cfg.Store, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Info("Connected to candidate store",
		zap.String("driver", cfg.Store.Driver),
	)

	embedder := ov.embedder
	if embedder == nil {
		embedder = buildEmbedder(&cfg.Embedding, cache, logger)
	}

	ranker := searchuc.NewRanker(
		searchuc.WithMinScore(cfg.Retrieval.MinScore),
		searchuc.WithWorkers(cfg.Retrieval.Workers),
	)
	a.Search = searchuc.New(repo, embedder, ranker,
		searchuc.WithDefaultLimit(cfg.Retrieval.Limit),
		searchuc.WithFetchPolicy(searchuc.FetchPolicy{
			OverFetchFactor: cfg.Retrieval.OverFetchFactor,
			FetchCap:        cfg.Retrieval.FetchCap,
		}),
	)

	extractor := quote.NewExtractor(
		quote.WithAnchorPhrases(cfg.Quotes.AnchorPhrases...),
		quote.WithSignalWords(cfg.Quotes.SignalWords...),
	)
	assembler := grounding.NewAssembler(extractor,
		grounding.WithMaxQuotes(cfg.Quotes.MaxQuotes),
		grounding.WithHeading(cfg.Context.Heading),
		grounding.WithMaxChars(cfg.Context.MaxChars),
	)
	a.Context = grounding.New(a.Search, assembler, cfg.Retrieval.Limit)

	gen := ov.generator
	if gen == nil && cfg.Generation.APIKey != "" {
		gen = openaiTransport.NewGenerator(&openaiTransport.Config{
			APIKey:   cfg.Generation.APIKey,
			BaseURL:  cfg.Generation.BaseURL,
			Model:    cfg.Generation.Model,
			Provider: providerOpenAI,
			Logger:   logger,
		}, cfg.Generation.Temperature)
	}
	if gen != nil {
		a.Chat = chat.New(a.Context, gen, cfg.Generation.SystemPrompt)
	}

	a.Catalog = catalog.New(repo, 0)

	var provider healthuc.ProviderChecker
	if hc, ok := embedder.(domain.HealthChecker); ok {
		provider = hc
	}
	a.Health = healthuc.New(pinger, provider)

	return a, nil
}

// Close releases the store connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// openStore returns the passage repository, its health pinger and, for
// Redis, the key-value store backing the embedding cache.
func (a *App) openStore(
	ctx context.Context, cfg *config.StoreConfig, logger *zap.Logger,
) (passageStore, healthuc.StorePinger, *dbRedis.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		a.closers = append(a.closers, store.Close)

		timeout := time.Duration(cfg.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			return nil, nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		return passagerepo.NewRedis(store, cfg.KeyPrefix, cfg.Index), store, store, nil

	case config.DriverSQLite:
		conn, err := dbSQLite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, func() { _ = conn.Close() })

		repo := passagerepo.NewSQLite(conn.DB)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, nil, nil, fmt.Errorf("sqlite schema: %w", err)
		}
		logger.Debug("Opened SQLite passage store", zap.String("path", conn.Path()))
		return repo, conn, nil, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
func buildEmbedder(cfg *config.EmbeddingConfig, cache *dbRedis.Store, logger *zap.Logger) domain.Embedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   providerOpenAI,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Cache && cache != nil {
		embedder = embcache.New(base, cache, cfg.Model, 0, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, providerOpenAI, cfg.Model, cfg.Dimensions, logger)

	// Outermost, so the cache key includes the instruction.
	if cfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
	}
	return embedder
}

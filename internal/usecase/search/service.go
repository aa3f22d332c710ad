package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragctx/internal/domain"
	"github.com/kailas-cloud/ragctx/internal/domain/search/query"
	"github.com/kailas-cloud/ragctx/internal/domain/search/request"
	"github.com/kailas-cloud/ragctx/internal/domain/search/result"
	"github.com/kailas-cloud/ragctx/internal/logger"
	"github.com/kailas-cloud/ragctx/internal/metrics"
)

// Retrieval defaults.
const (
	DefaultLimit           = 5
	DefaultOverFetchFactor = 2
	DefaultFetchCap        = 200
)

// FetchPolicy controls how many candidates are pulled before ranking.
// Metadata boosts can promote passages a similarity-only top-k would miss,
// so the store is always asked for more than the caller's limit.
type FetchPolicy struct {
	OverFetchFactor int
	FetchCap        int
}

// TopKSize is the native top-k request size for a result limit.
func (p FetchPolicy) TopKSize(limit int) int {
	return max(limit, min(limit*p.OverFetchFactor, p.FetchCap))
}

// BulkSize is the number of records fetched when scoring client-side.
func (p FetchPolicy) BulkSize(limit int) int {
	return max(limit, p.FetchCap)
}

// Service embeds queries, retrieves candidates and ranks them.
type Service struct {
	store        CandidateStore
	embed        Embedder
	ranker       *Ranker
	policy       FetchPolicy
	defaultLimit int
}

// Option configures a Service.
type Option func(*Service)

// WithFetchPolicy overrides the over-fetch policy.
func WithFetchPolicy(p FetchPolicy) Option {
	return func(s *Service) {
		if p.OverFetchFactor > 0 {
			s.policy.OverFetchFactor = p.OverFetchFactor
		}
		if p.FetchCap > 0 {
			s.policy.FetchCap = p.FetchCap
		}
	}
}

// WithDefaultLimit sets the result count used when a request leaves it unset.
func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// New creates a search service. A nil ranker selects NewRanker().
func New(store CandidateStore, embed Embedder, ranker *Ranker, opts ...Option) *Service {
	if ranker == nil {
		ranker = NewRanker()
	}
	s := &Service{
		store:  store,
		embed:  embed,
		ranker: ranker,
		policy: FetchPolicy{
			OverFetchFactor: DefaultOverFetchFactor,
			FetchCap:        DefaultFetchCap,
		},
		defaultLimit: DefaultLimit,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search returns ranked passages for req. A blank query returns an empty
// slice without calling the embedder.
//
// Failures wrap domain.ErrEmbeddingProviderError or domain.ErrStore.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Scored, error) {
	q := query.New(req.Query())
	if q.IsEmpty() {
		return []result.Scored{}, nil
	}
	limit := req.WithDefaultLimit(s.defaultLimit)

	start := time.Now()
	emb, err := s.embed.Embed(ctx, q.Raw())
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingProviderError) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	metrics.SearchStageDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	start = time.Now()
	candidates, mode, err := s.fetch(ctx, emb.Embedding, limit.Limit())
	if err != nil {
		return nil, err
	}
	metrics.SearchStageDuration.WithLabelValues("fetch").Observe(time.Since(start).Seconds())
	metrics.CandidatesScoredTotal.WithLabelValues(mode).Add(float64(len(candidates)))

	candidates = filterByTheme(candidates, req.ThemeFilter())

	start = time.Now()
	ranked := s.ranker.Rank(ctx, emb.Embedding, q, candidates, limit.Limit())
	metrics.SearchStageDuration.WithLabelValues("rank").Observe(time.Since(start).Seconds())
	metrics.SearchResultsReturned.Observe(float64(len(ranked)))

	logger.FromContext(ctx).Debug("search ranked",
		zap.String("mode", mode),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(ranked)),
	)
	return ranked, nil
}

// fetch asks the store for native top-k candidates and falls back to bulk
// retrieval when the store has no similarity index.
func (s *Service) fetch(ctx context.Context, vector []float32, limit int) ([]Candidate, string, error) {
	candidates, err := s.store.TopK(ctx, vector, s.policy.TopKSize(limit))
	if err == nil {
		return candidates, "topk", nil
	}
	if !errors.Is(err, domain.ErrTopKUnsupported) {
		return nil, "", storeErr("top-k candidates", err)
	}

	metrics.TopKFallbackTotal.Inc()
	logger.FromContext(ctx).Info("native top-k unavailable, falling back to bulk retrieval",
		zap.Error(err),
		zap.Int("fetch", s.policy.BulkSize(limit)),
	)

	passages, err := s.store.FetchRecent(ctx, s.policy.BulkSize(limit))
	if err != nil {
		return nil, "", storeErr("fetch candidates", err)
	}
	candidates = make([]Candidate, len(passages))
	for i := range passages {
		candidates[i] = Candidate{Passage: passages[i]}
	}
	return candidates, "bulk", nil
}

func storeErr(op string, err error) error {
	if !errors.Is(err, domain.ErrStore) {
		err = fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// filterByTheme keeps candidates with a theme containing filter, case-insensitively.
func filterByTheme(candidates []Candidate, filter string) []Candidate {
	if filter == "" {
		return candidates
	}
	filter = strings.ToLower(filter)
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		for _, theme := range c.Passage.Metadata().Themes {
			if strings.Contains(strings.ToLower(theme), filter) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

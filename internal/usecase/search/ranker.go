package search

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/ragctx/internal/domain/relevance"
	"github.com/kailas-cloud/ragctx/internal/domain/search/query"
	"github.com/kailas-cloud/ragctx/internal/domain/search/result"
	"github.com/kailas-cloud/ragctx/internal/domain/similarity"
	"github.com/kailas-cloud/ragctx/internal/logger"
	"github.com/kailas-cloud/ragctx/internal/metrics"
)

// Score weights. Similarity dominates: theme and gist together can add at
// most 0.3, so they reorder close candidates but cannot lift a weak match.
const (
	SimilarityWeight = 0.7
	ThemeWeight      = 0.2
	GistWeight       = 0.1

	DefaultMinScore = 0.3
)

// Combine returns the weighted ranking key.
func Combine(sim, theme, gist float64) float64 {
	return SimilarityWeight*sim + ThemeWeight*theme + GistWeight*gist
}

// Ranker scores candidates against a query and orders them.
type Ranker struct {
	relevance *relevance.Scorer
	minScore  float64
	workers   int
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithMinScore sets the exclusive lower bound on combined scores.
func WithMinScore(v float64) RankerOption {
	return func(r *Ranker) { r.minScore = v }
}

// WithWorkers scores candidates on up to n goroutines. n <= 1 scores inline.
func WithWorkers(n int) RankerOption {
	return func(r *Ranker) { r.workers = n }
}

// WithOverlap replaces the theme/gist matching strategy.
func WithOverlap(o relevance.TermOverlap) RankerOption {
	return func(r *Ranker) { r.relevance = relevance.NewScorer(o) }
}

// NewRanker creates a ranker with the default threshold and fuzzy overlap.
func NewRanker(opts ...RankerOption) *Ranker {
	r := &Ranker{
		relevance: relevance.NewScorer(nil),
		minScore:  DefaultMinScore,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

type scoreFlag uint8

const (
	flagNone scoreFlag = iota
	flagMalformed
	flagDimMismatch
)

type scored struct {
	res  result.Scored
	flag scoreFlag
}

// Rank scores every candidate, drops those at or below the threshold and
// returns at most limit results, best first. Equal scores keep candidate order.
// ctx only carries the request logger.
func (r *Ranker) Rank(
	ctx context.Context, vector []float32, q query.Query, candidates []Candidate, limit int,
) []result.Scored {
	if len(candidates) == 0 || limit <= 0 {
		return []result.Scored{}
	}

	all := make([]scored, len(candidates))
	if r.workers > 1 && len(candidates) > 1 {
		var g errgroup.Group
		g.SetLimit(r.workers)
		for i := range candidates {
			g.Go(func() error {
				all[i] = r.score(vector, q, &candidates[i])
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range candidates {
			all[i] = r.score(vector, q, &candidates[i])
		}
	}

	r.reportDataQuality(ctx, len(vector), all)

	kept := make([]result.Scored, 0, len(all))
	for _, s := range all {
		if s.res.Combined() > r.minScore {
			kept = append(kept, s.res)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Combined() > kept[j].Combined() })

	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

func (r *Ranker) score(vector []float32, q query.Query, c *Candidate) scored {
	p := c.Passage
	meta := p.Metadata()

	var (
		sim  float64
		flag scoreFlag
	)
	switch emb := p.Embedding(); {
	case p.Malformed():
		flag = flagMalformed
	case len(emb) > 0 && !similarity.DimensionsMatch(vector, emb):
		flag = flagDimMismatch
	case len(emb) > 0:
		sim = similarity.Cosine(vector, emb)
	case c.HasSimilarity:
		sim = c.Similarity
	}

	theme := r.relevance.ThemeScore(q.Terms(), meta.Themes)
	gist := r.relevance.GistScore(q.GistWords(), meta.Gist)

	return scored{
		res:  result.New(p, sim, theme, gist, Combine(sim, theme, gist)),
		flag: flag,
	}
}

func (r *Ranker) reportDataQuality(ctx context.Context, queryDims int, all []scored) {
	var malformed, mismatched []string
	for i := range all {
		p := all[i].res.Passage()
		switch all[i].flag {
		case flagMalformed:
			malformed = append(malformed, p.ID())
		case flagDimMismatch:
			mismatched = append(mismatched, p.ID())
		}
	}
	if len(malformed) == 0 && len(mismatched) == 0 {
		return
	}

	metrics.MalformedRecordsTotal.Add(float64(len(malformed)))
	metrics.DimensionMismatchTotal.Add(float64(len(mismatched)))

	log := logger.FromContext(ctx)
	if len(malformed) > 0 {
		log.Warn("malformed passage embeddings scored as zero similarity",
			zap.Int("count", len(malformed)),
			zap.String("passage_ids", sample(malformed)),
		)
	}
	if len(mismatched) > 0 {
		log.Warn("passage embedding dimension differs from query",
			zap.Int("count", len(mismatched)),
			zap.Int("query_dims", queryDims),
			zap.String("passage_ids", sample(mismatched)),
		)
	}
}

// sample joins up to five ids for log output.
func sample(ids []string) string {
	const maxIDs = 5
	if len(ids) > maxIDs {
		return strings.Join(ids[:maxIDs], ",") + ",..."
	}
	return strings.Join(ids, ",")
}

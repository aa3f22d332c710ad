package search

import (
	"context"

	"github.com/kailas-cloud/ragctx/internal/domain"
	"github.com/kailas-cloud/ragctx/internal/domain/passage"
)

// Candidate is a passage returned by the store for scoring.
type Candidate struct {
	Passage passage.Passage
	// Similarity is the store-reported score. It is used only when the
	// passage carries no vector to re-score locally.
	Similarity    float64
	HasSimilarity bool
}

// CandidateStore retrieves passages for ranking.
//
// TopK returns domain.ErrTopKUnsupported when the store has no native
// similarity index; the service then falls back to FetchRecent.
type CandidateStore interface {
	TopK(ctx context.Context, vector []float32, k int) ([]Candidate, error)
	FetchRecent(ctx context.Context, limit int) ([]passage.Passage, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

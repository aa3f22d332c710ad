package ragctx

import (
	"context"

	"github.com/kailas-cloud/ragctx/internal/domain"
	"github.com/kailas-cloud/ragctx/internal/domain/passage"
	"github.com/kailas-cloud/ragctx/internal/domain/search/result"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrDocumentNotFound       = domain.ErrDocumentNotFound
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrStore                  = domain.ErrStore
)

// Embedder converts query text to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Metadata describes a passage's source document.
type Metadata struct {
	Title    string
	Author   string
	Date     string
	URL      string
	Gist     string
	Themes   []string
	FileName string
}

// Result is a ranked passage.
type Result struct {
	ID            string
	Text          string
	Similarity    float64
	ThemeScore    float64
	GistScore     float64
	CombinedScore float64
	Metadata      Metadata
}

// Document is a browsable source document.
type Document struct {
	Title  string
	Author string
	Date   string
	URL    string
}

// Context is a rendered grounding block.
type Context struct {
	// Text is the block to place in a prompt, or the no-context marker.
	Text    string
	Results []Result
	// Degraded is set when retrieval failed.
	Degraded bool
}

// HasContext reports whether any passage made it into the block.
func (c Context) HasContext() bool { return len(c.Results) > 0 }

func metadataFromDomain(m passage.Metadata) Metadata {
	return Metadata{
		Title:    m.Title,
		Author:   m.Author,
		Date:     m.Date,
		URL:      m.URL,
		Gist:     m.Gist,
		Themes:   m.Themes,
		FileName: m.FileName,
	}
}

func resultsFromDomain(ranked []result.Scored) []Result {
	out := make([]Result, len(ranked))
	for i := range ranked {
		r := &ranked[i]
		p := r.Passage()
		out[i] = Result{
			ID:            p.ID(),
			Text:          p.Text(),
			Similarity:    r.Similarity(),
			ThemeScore:    r.ThemeScore(),
			GistScore:     r.GistScore(),
			CombinedScore: r.Combined(),
			Metadata:      metadataFromDomain(p.Metadata()),
		}
	}
	return out
}

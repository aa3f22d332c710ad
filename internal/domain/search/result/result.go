package result

import "github.com/kailas-cloud/ragctx/internal/domain/passage"

// Scored is a passage with its per-query relevance scores.
type Scored struct {
	passage    passage.Passage
	similarity float64
	theme      float64
	gist       float64
	combined   float64
}

// New creates a scored passage.
func New(p passage.Passage, similarity, theme, gist, combined float64) Scored {
	return Scored{passage: p, similarity: similarity, theme: theme, gist: gist, combined: combined}
}

// Passage returns the underlying passage.
func (s *Scored) Passage() passage.Passage { return s.passage }

// Similarity returns the vector similarity in [-1, 1].
func (s *Scored) Similarity() float64 { return s.similarity }

// ThemeScore returns the theme overlap in [0, 1].
func (s *Scored) ThemeScore() float64 { return s.theme }

// GistScore returns the gist overlap in [0, 1].
func (s *Scored) GistScore() float64 { return s.gist }

// Combined returns the ranking key.
func (s *Scored) Combined() float64 { return s.combined }

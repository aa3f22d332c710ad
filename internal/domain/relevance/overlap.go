// Package relevance scores lexical overlap between a query and passage metadata.
package relevance

import "strings"

// TermOverlap measures how many query terms are covered by a corpus of terms.
// Implementations return a value in [0, 1].
type TermOverlap interface {
	Overlap(queryTerms, corpusTerms []string) float64
}

// FuzzyOverlap counts a query term as covered when it is a substring of, or
// contains, any corpus term. Matching is case-insensitive, which tolerates
// plural and stem differences in short tags.
type FuzzyOverlap struct{}

// Overlap returns the fraction of queryTerms covered by corpusTerms.
func (FuzzyOverlap) Overlap(queryTerms, corpusTerms []string) float64 {
	if len(queryTerms) == 0 || len(corpusTerms) == 0 {
		return 0
	}
	corpus := make([]string, 0, len(corpusTerms))
	for _, c := range corpusTerms {
		if c = strings.ToLower(c); c != "" {
			corpus = append(corpus, c)
		}
	}
	if len(corpus) == 0 {
		return 0
	}

	matched := 0
	for _, q := range queryTerms {
		q = strings.ToLower(q)
		for _, c := range corpus {
			if strings.Contains(c, q) || strings.Contains(q, c) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(queryTerms))
}

// Scorer computes theme and gist relevance with a pluggable overlap strategy.
type Scorer struct {
	overlap TermOverlap
}

// NewScorer creates a scorer. A nil strategy selects FuzzyOverlap.
func NewScorer(overlap TermOverlap) *Scorer {
	if overlap == nil {
		overlap = FuzzyOverlap{}
	}
	return &Scorer{overlap: overlap}
}

// ThemeScore is the fraction of query terms found in any theme.
func (s *Scorer) ThemeScore(terms, themes []string) float64 {
	return clamp(s.overlap.Overlap(terms, themes))
}

// GistScore is the fraction of gist-length query words found among the words of gist.
func (s *Scorer) GistScore(gistWords []string, gist string) float64 {
	if strings.TrimSpace(gist) == "" {
		return 0
	}
	return clamp(s.overlap.Overlap(gistWords, strings.Fields(gist)))
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

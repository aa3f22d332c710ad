// Package quote selects short verbatim sentences from passages that best
// answer a query.
package quote

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/ragctx/internal/domain/relevance"
	"github.com/kailas-cloud/ragctx/internal/domain/search/query"
)

// Extraction bounds, in runes.
const (
	MinLength        = 25
	MaxLength        = 300
	readableMin      = 50
	readableMax      = 200
	minQuoteScore    = 0.15
	anchorBonus      = 0.2
	signalBonus      = 0.1
	readableBonus    = 0.1
	minQueryWord     = 2
	DefaultMaxQuotes = 3
)

// DefaultSignalWords mark sentences that tend to state a claim.
var DefaultSignalWords = []string{"system", "problem"}

// Extractor scores sentences by query overlap plus fixed bonuses.
type Extractor struct {
	anchors []string
	signals []string
	overlap relevance.TermOverlap
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithAnchorPhrases sets corpus-specific phrases worth a bonus.
func WithAnchorPhrases(phrases ...string) Option {
	return func(e *Extractor) { e.anchors = lowerAll(phrases) }
}

// WithSignalWords replaces the signal word set.
func WithSignalWords(words ...string) Option {
	return func(e *Extractor) { e.signals = lowerAll(words) }
}

// WithOverlap swaps the query/sentence matching strategy.
func WithOverlap(o relevance.TermOverlap) Option {
	return func(e *Extractor) { e.overlap = o }
}

// NewExtractor creates an extractor with default signal words and no anchors.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		signals: lowerAll(DefaultSignalWords),
		overlap: relevance.FuzzyOverlap{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

type candidate struct {
	text  string
	score float64
}

// Extract returns up to maxQuotes sentences of text, best first.
// Equal scores keep their order in the passage.
func (e *Extractor) Extract(text, q string, maxQuotes int) []string {
	if maxQuotes <= 0 {
		return nil
	}
	words := query.Words(q, minQueryWord)
	if len(words) == 0 {
		return nil
	}

	var kept []candidate
	for _, s := range SplitSentences(text) {
		n := utf8.RuneCountInString(s)
		if n < MinLength || n > MaxLength {
			continue
		}
		if score := e.score(s, n, words); score > minQuoteScore {
			kept = append(kept, candidate{text: s, score: score})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })

	if len(kept) > maxQuotes {
		kept = kept[:maxQuotes]
	}
	out := make([]string, len(kept))
	for i, c := range kept {
		out[i] = c.text
	}
	return out
}

func (e *Extractor) score(sentence string, length int, words []string) float64 {
	lower := strings.ToLower(sentence)
	score := e.overlap.Overlap(words, strings.Fields(lower))
	if containsAny(lower, e.anchors) {
		score += anchorBonus
	}
	if containsAny(lower, e.signals) {
		score += signalBonus
	}
	if length >= readableMin && length <= readableMax {
		score += readableBonus
	}
	return score
}

// SplitSentences cuts text after runs of '.', '!' or '?' that are followed by
// whitespace or the end of text. Terminators are dropped and pieces trimmed;
// empty pieces are skipped.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); {
		if !isTerminal(text[i]) {
			_, w := utf8.DecodeRuneInString(text[i:])
			i += w
			continue
		}
		end := i
		for i < len(text) && isTerminal(text[i]) {
			i++
		}
		if i < len(text) {
			r, _ := utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(r) {
				continue
			}
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = i
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminal(b byte) bool { return b == '.' || b == '!' || b == '?' }

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lowerAll(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

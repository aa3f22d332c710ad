// Package query derives the lexical features of a free-text search query.
package query

import (
	"strings"
	"unicode/utf8"
)

// Token length thresholds: terms must be longer than minTermLen runes,
// gist words longer than minGistWordLen.
const (
	minTermLen     = 2
	minGistWordLen = 3
)

// Query is a raw query string plus its derived terms.
type Query struct {
	raw       string
	terms     []string
	gistWords []string
}

// New tokenizes raw into lower-cased terms. Order of first appearance is kept
// and duplicates are dropped.
func New(raw string) Query {
	return Query{
		raw:       raw,
		terms:     Words(raw, minTermLen),
		gistWords: Words(raw, minGistWordLen),
	}
}

// Raw returns the query as typed.
func (q Query) Raw() string { return q.raw }

// Terms returns lower-cased tokens longer than two runes.
func (q Query) Terms() []string { return q.terms }

// GistWords returns lower-cased tokens longer than three runes.
func (q Query) GistWords() []string { return q.gistWords }

// IsEmpty reports whether the query is blank.
func (q Query) IsEmpty() bool { return strings.TrimSpace(q.raw) == "" }

// Words splits s on whitespace and returns the distinct lower-cased tokens
// longer than minLen runes.
func Words(s string, minLen int) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= minLen {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

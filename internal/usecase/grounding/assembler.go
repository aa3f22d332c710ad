// Package grounding turns ranked passages into the context block handed to
// the generation step.
package grounding

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragctx/internal/domain/passage"
	"github.com/kailas-cloud/ragctx/internal/domain/quote"
	"github.com/kailas-cloud/ragctx/internal/domain/search/result"
)

// NoContextMarker replaces the block when nothing relevant was retrieved.
// Generation can tell it apart from a request that never searched.
const NoContextMarker = "No specific context available for this query."

// Assembler defaults.
const (
	DefaultHeading  = "Relevant context:"
	DefaultMaxChars = 16000
)

// QuoteExtractor picks verbatim sentences from a passage.
type QuoteExtractor interface {
	Extract(text, query string, maxQuotes int) []string
}

// Assembler renders ranked passages grouped by source document.
type Assembler struct {
	quotes    QuoteExtractor
	maxQuotes int
	heading   string
	maxChars  int
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithMaxQuotes sets the quote count per passage.
func WithMaxQuotes(n int) AssemblerOption {
	return func(a *Assembler) { a.maxQuotes = n }
}

// WithHeading sets the first line of the block.
func WithHeading(h string) AssemblerOption {
	return func(a *Assembler) { a.heading = h }
}

// WithMaxChars bounds the block size. Whole passages are dropped, lowest ranked first.
func WithMaxChars(n int) AssemblerOption {
	return func(a *Assembler) { a.maxChars = n }
}

// NewAssembler creates an assembler. A nil extractor selects quote.NewExtractor().
func NewAssembler(quotes QuoteExtractor, opts ...AssemblerOption) *Assembler {
	if quotes == nil {
		quotes = quote.NewExtractor()
	}
	a := &Assembler{
		quotes:    quotes,
		maxQuotes: quote.DefaultMaxQuotes,
		heading:   DefaultHeading,
		maxChars:  DefaultMaxChars,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

type group struct {
	header  string
	entries []string
}

// Assemble renders ranked into a context block for query and reports how
// many leading passages of ranked made it into the block.
//
// Documents appear in the order their best passage ranks; passages within a
// document keep ranked order. An empty input yields NoContextMarker.
func (a *Assembler) Assemble(ranked []result.Scored, query string) (string, int) {
	if len(ranked) == 0 {
		return NoContextMarker, 0
	}

	var (
		groups []*group
		byKey  = make(map[string]*group)
		size   = len(a.heading) + 2
		kept   int
	)
	for i := range ranked {
		p := ranked[i].Passage()
		meta := p.Metadata()
		key := meta.DocumentKey()

		entry := a.renderEntry(p.Text(), query)
		g, seen := byKey[key]
		cost := len(entry)
		if !seen {
			g = &group{header: renderHeader(key, meta)}
			cost += len(g.header)
		}
		if a.maxChars > 0 && size+cost > a.maxChars && len(groups) > 0 {
			break
		}
		if !seen {
			byKey[key] = g
			groups = append(groups, g)
		}
		g.entries = append(g.entries, entry)
		size += cost
		kept++
	}

	var b strings.Builder
	b.Grow(size)
	if a.heading != "" {
		b.WriteString(a.heading)
		b.WriteString("\n\n")
	}
	for _, g := range groups {
		b.WriteString(g.header)
		for _, e := range g.entries {
			b.WriteString(e)
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n", kept
}

func renderHeader(title string, meta passage.Metadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Source: %s]\n", title)
	if meta.Gist != "" {
		fmt.Fprintf(&b, "Summary: %s\n", meta.Gist)
	}
	if len(meta.Themes) > 0 {
		fmt.Fprintf(&b, "Themes: %s\n", strings.Join(meta.Themes, ", "))
	}
	b.WriteString("\n")
	return b.String()
}

func (a *Assembler) renderEntry(text, query string) string {
	var b strings.Builder
	if quotes := a.quotes.Extract(text, query, a.maxQuotes); len(quotes) > 0 {
		b.WriteString("Key quotes:\n")
		for _, q := range quotes {
			fmt.Fprintf(&b, "> \"%s\"\n", q)
		}
		b.WriteString("\n")
	}
	b.WriteString(text)
	b.WriteString("\n\n")
	return b.String()
}

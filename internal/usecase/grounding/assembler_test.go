package grounding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/ragctx/internal/domain/passage"
	"github.com/kailas-cloud/ragctx/internal/domain/search/result"
)

type stubQuotes map[string][]string

func (s stubQuotes) Extract(text, _ string, maxQuotes int) []string {
	q := s[text]
	if len(q) > maxQuotes {
		q = q[:maxQuotes]
	}
	return q
}

func scored(id, text string, combined float64, meta passage.Metadata) result.Scored {
	return result.New(passage.New(id, text, nil, meta), combined, 0, 0, combined)
}

var (
	metaX = passage.Metadata{Title: "X", Gist: "A post about X.", Themes: []string{"alpha", "beta"}}
	metaY = passage.Metadata{Title: "Y"}
)

func TestAssemble_Empty(t *testing.T) {
	a := NewAssembler(stubQuotes{})

	got, kept := a.Assemble(nil, "q")
	assert.Equal(t, NoContextMarker, got)
	assert.Zero(t, kept)

	got, kept = a.Assemble([]result.Scored{}, "q")
	assert.Equal(t, NoContextMarker, got)
	assert.Zero(t, kept)
}

func TestAssemble_Format(t *testing.T) {
	a := NewAssembler(stubQuotes{"text A": {"quote one", "quote two"}})

	got, _ := a.Assemble([]result.Scored{
		scored("A", "text A", 0.9, metaX),
		scored("B", "text B", 0.5, metaX),
	}, "q")

	want := "Relevant context:\n\n" +
		"[Source: X]\n" +
		"Summary: A post about X.\n" +
		"Themes: alpha, beta\n" +
		"\n" +
		"Key quotes:\n" +
		"> \"quote one\"\n" +
		"> \"quote two\"\n" +
		"\n" +
		"text A\n" +
		"\n" +
		"text B\n"
	assert.Equal(t, want, got)
}

func TestAssemble_GroupsByFirstAppearance(t *testing.T) {
	a := NewAssembler(stubQuotes{})

	got, _ := a.Assemble([]result.Scored{
		scored("y1", "from Y first", 0.9, metaY),
		scored("x1", "from X", 0.8, metaX),
		scored("y2", "from Y second", 0.7, metaY),
	}, "q")

	require.Equal(t, 1, strings.Count(got, "[Source: Y]"))
	require.Equal(t, 1, strings.Count(got, "[Source: X]"))
	assert.Less(t, strings.Index(got, "[Source: Y]"), strings.Index(got, "[Source: X]"))
	assert.Less(t, strings.Index(got, "from Y first"), strings.Index(got, "from Y second"))
	assert.Less(t, strings.Index(got, "from Y second"), strings.Index(got, "[Source: X]"))
	assert.NotContains(t, got, "Summary:\n")
}

func TestAssemble_UsesFirstPassageMetadata(t *testing.T) {
	other := metaX
	other.Gist = "Different gist"

	got, _ := NewAssembler(stubQuotes{}).Assemble([]result.Scored{
		scored("a", "one", 0.9, metaX),
		scored("b", "two", 0.8, other),
	}, "q")

	assert.Contains(t, got, "Summary: A post about X.")
	assert.NotContains(t, got, "Different gist")
}

func TestAssemble_UntitledPassages(t *testing.T) {
	got, _ := NewAssembler(stubQuotes{}).Assemble([]result.Scored{scored("a", "orphan", 0.9, passage.Metadata{})}, "q")

	assert.Contains(t, got, "[Source: "+passage.UnknownTitle+"]")
}

func TestAssemble_MaxQuotesAndHeading(t *testing.T) {
	a := NewAssembler(stubQuotes{"t": {"q1", "q2", "q3"}}, WithMaxQuotes(1), WithHeading(""))

	got, _ := a.Assemble([]result.Scored{scored("a", "t", 0.9, metaY)}, "q")

	assert.True(t, strings.HasPrefix(got, "[Source: Y]"))
	assert.Contains(t, got, "> \"q1\"")
	assert.NotContains(t, got, "q2")
}

func TestAssemble_MaxCharsDropsLowestRanked(t *testing.T) {
	long := strings.Repeat("x", 300)
	a := NewAssembler(stubQuotes{}, WithMaxChars(500))

	got, kept := a.Assemble([]result.Scored{
		scored("a", "first "+long, 0.9, metaX),
		scored("b", "second "+long, 0.8, metaY),
	}, "q")

	assert.Equal(t, 1, kept)
	assert.Contains(t, got, "first ")
	assert.NotContains(t, got, "second ")
	assert.NotContains(t, got, "[Source: Y]")
}

func TestAssemble_MaxCharsKeepsAtLeastOnePassage(t *testing.T) {
	a := NewAssembler(stubQuotes{}, WithMaxChars(10))

	got, kept := a.Assemble([]result.Scored{scored("a", strings.Repeat("y", 100), 0.9, metaY)}, "q")

	assert.Equal(t, 1, kept)
	assert.Contains(t, got, strings.Repeat("y", 100))
}

package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/ragctx/internal/domain/passage"
	"github.com/kailas-cloud/ragctx/internal/domain/search/result"
	"github.com/kailas-cloud/ragctx/internal/version"
)

func init() {
	color.NoColor = true
}

func sample() []result.Scored {
	a := passage.New("a1", "Reward  models\nlearn preferences.", []float32{1}, passage.Metadata{Title: "Post A", Themes: []string{"RLHF"}})
	b := passage.New("b1", "Untitled text.", []float32{1}, passage.Metadata{})
	return []result.Scored{
		result.New(a, 0.95, 1, 0.5, 0.915),
		result.New(b, 0.6, 0, 0, 0.42),
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	printResults(&buf, sample())
	out := buf.String()

	assert.Contains(t, out, "1. 0.915  Post A")
	assert.Contains(t, out, "sim=0.950 theme=1.000 gist=0.500 id=a1")
	assert.Contains(t, out, "Reward models learn preferences.")
	assert.Contains(t, out, "2. 0.420  "+passage.UnknownTitle)
}

func TestPrintResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	printResults(&buf, nil)
	assert.Contains(t, buf.String(), "No passages")
}

func TestWriteResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResultsJSON(&buf, sample()))

	var got []jsonResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ID)
	assert.Equal(t, []string{"RLHF"}, got[0].Themes)
	assert.InDelta(t, 0.915, got[0].CombinedScore, 1e-9)
	assert.Equal(t, passage.UnknownTitle, got[1].Title)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n b\t\tc", 10))
	assert.Equal(t, "héll...", snippet("héllo world", 4))
}

func TestScoreColor(t *testing.T) {
	assert.Equal(t, "0.700", scoreColor(0.7))
	assert.Equal(t, "0.310", scoreColor(0.31))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(buf.String(), "ragctx "+version.Version))
}

func TestSearchCommand_RequiresQuery(t *testing.T) {
	rootCmd.SetArgs([]string{"search"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.Error(t, rootCmd.Execute())
}

package passage

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/ragctx/internal/domain"
	dompassage "github.com/kailas-cloud/ragctx/internal/domain/passage"
)

func TestParseThemes(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{`["RLHF","Scaling"]`, []string{"RLHF", "Scaling"}},
		{"RLHF, Scaling ,", []string{"RLHF", "Scaling"}},
		{"[broken", []string{"[broken"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseThemes(tt.raw), "raw=%q", tt.raw)
	}
}

func TestParseMetadataJSON(t *testing.T) {
	got := parseMetadataJSON(`{"title":"T","author":"A","themes":"x, y","file_name":"t.md"}`)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "A", got.Author)
	assert.Equal(t, []string{"x", "y"}, got.Themes)
	assert.Equal(t, "t.md", got.FileName)

	got = parseMetadataJSON(`{"title":"T","themes":["x"]}`)
	assert.Equal(t, []string{"x"}, got.Themes)

	assert.Empty(t, parseMetadataJSON(`not json`).Title)
	assert.Empty(t, parseMetadataJSON("").Title)
}

func TestParseThemesJSON_Null(t *testing.T) {
	assert.Nil(t, parseThemesJSON(json.RawMessage("null")))
}

func TestBuildPassage_MalformedRecord(t *testing.T) {
	for _, raw := range []string{"not a vector", "[oops", ""} {
		p, err := buildPassage("p-9", "text", raw, dompassage.Metadata{Title: "T"})

		require.Error(t, err, "raw=%q", raw)
		assert.ErrorIs(t, err, domain.ErrMalformedRecord)
		var mre *domain.MalformedRecordError
		require.True(t, errors.As(err, &mre))
		assert.Equal(t, "p-9", mre.ID)
		assert.True(t, p.Malformed())
		assert.Equal(t, "T", p.Metadata().Title)
	}
}

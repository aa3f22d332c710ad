package passage

import (
	"encoding/json"
	"strings"

	"github.com/kailas-cloud/ragctx/internal/db"
	"github.com/kailas-cloud/ragctx/internal/domain"
	dompassage "github.com/kailas-cloud/ragctx/internal/domain/passage"
)

// Hash field names of a stored passage.
const (
	fieldText      = "text"
	fieldEmbedding = "embedding"
	fieldTitle     = "title"
	fieldAuthor    = "author"
	fieldDate      = "date"
	fieldURL       = "url"
	fieldGist      = "gist"
	fieldThemes    = "themes"
	fieldFileName  = "file_name"
)

// metadataFields are returned by searches that do not need text or vectors.
var metadataFields = []string{fieldTitle, fieldAuthor, fieldDate, fieldURL, fieldGist, fieldThemes, fieldFileName}

// passageFields are returned by candidate searches.
var passageFields = append([]string{fieldText, fieldEmbedding}, metadataFields...)

// metadataJSON is the JSON shape of passage metadata, as loaders write it.
type metadataJSON struct {
	Title    string          `json:"title,omitempty"`
	Author   string          `json:"author,omitempty"`
	Date     string          `json:"date,omitempty"`
	URL      string          `json:"url,omitempty"`
	Gist     string          `json:"gist,omitempty"`
	Themes   json.RawMessage `json:"themes,omitempty"` // array or comma-separated string
	FileName string          `json:"file_name,omitempty"`
}

func (m metadataJSON) toDomain() dompassage.Metadata {
	return dompassage.Metadata{
		Title:    m.Title,
		Author:   m.Author,
		Date:     m.Date,
		URL:      m.URL,
		Gist:     m.Gist,
		Themes:   parseThemesJSON(m.Themes),
		FileName: m.FileName,
	}
}

func parseThemesJSON(raw json.RawMessage) []string {
	if string(raw) == "null" {
		return nil
	}
	var s string
	if len(raw) > 0 && raw[0] == '"' && json.Unmarshal(raw, &s) == nil {
		return parseThemes(s)
	}
	return parseThemes(string(raw))
}

// parseMetadataFields reads metadata from a flat hash.
func parseMetadataFields(m map[string]string) dompassage.Metadata {
	return dompassage.Metadata{
		Title:    m[fieldTitle],
		Author:   m[fieldAuthor],
		Date:     m[fieldDate],
		URL:      m[fieldURL],
		Gist:     m[fieldGist],
		Themes:   parseThemes(m[fieldThemes]),
		FileName: m[fieldFileName],
	}
}

// parseThemes accepts a JSON array or a comma-separated list.
func parseThemes(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var themes []string
		if err := json.Unmarshal([]byte(raw), &themes); err == nil {
			return themes
		}
	}
	var themes []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			themes = append(themes, t)
		}
	}
	return themes
}

// buildPassage assembles a passage, marking it malformed when the stored
// embedding does not decode. The error is a *domain.MalformedRecordError.
func buildPassage(id, text, rawEmbedding string, meta dompassage.Metadata) (dompassage.Passage, error) {
	vec, err := db.ParseStoredVector(rawEmbedding)
	if err != nil {
		return dompassage.NewMalformed(id, text, meta), domain.NewMalformedRecord(id, err)
	}
	return dompassage.New(id, text, vec, meta), nil
}

// parseHashFields converts a stored hash into a passage.
func parseHashFields(id string, m map[string]string) (dompassage.Passage, error) {
	return buildPassage(id, m[fieldText], m[fieldEmbedding], parseMetadataFields(m))
}

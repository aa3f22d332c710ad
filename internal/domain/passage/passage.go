// Package passage models indexed document passages and their source metadata.
package passage

// UnknownTitle labels passages whose source document has no title.
const UnknownTitle = "Unknown source"

// Metadata describes the source document a passage was cut from.
// Passages of the same document share identical metadata.
type Metadata struct {
	Title    string
	Author   string
	Date     string
	URL      string
	Gist     string
	Themes   []string
	FileName string
}

// DocumentKey returns the key passages are grouped by.
// Titles double as document identity; untitled passages share one bucket.
func (m Metadata) DocumentKey() string {
	if m.Title == "" {
		return UnknownTitle
	}
	return m.Title
}

// Passage is a unit of indexed text with its embedding.
type Passage struct {
	id        string
	text      string
	embedding []float32
	metadata  Metadata
	malformed bool
}

// New creates a passage.
func New(id, text string, embedding []float32, meta Metadata) Passage {
	return Passage{id: id, text: text, embedding: embedding, metadata: meta}
}

// NewMalformed creates a passage whose stored embedding could not be decoded.
// It keeps text and metadata but never scores above zero similarity.
func NewMalformed(id, text string, meta Metadata) Passage {
	return Passage{id: id, text: text, metadata: meta, malformed: true}
}

// ID returns the passage identifier.
func (p *Passage) ID() string { return p.id }

// Text returns the passage text.
func (p *Passage) Text() string { return p.text }

// Embedding returns the stored vector, nil for malformed records.
func (p *Passage) Embedding() []float32 { return p.embedding }

// Metadata returns the source document metadata.
func (p *Passage) Metadata() Metadata { return p.metadata }

// Malformed reports whether the stored embedding failed to decode.
func (p *Passage) Malformed() bool { return p.malformed }

// DocumentSummary is the browsable projection of a source document.
type DocumentSummary struct {
	Title  string
	Author string
	Date   string
	URL    string
}

// Summary projects metadata to its browsable fields.
func (m Metadata) Summary() DocumentSummary {
	return DocumentSummary{Title: m.Title, Author: m.Author, Date: m.Date, URL: m.URL}
}

package passage

import "testing"

func TestDocumentKey(t *testing.T) {
	if got := (Metadata{Title: "RLHF notes"}).DocumentKey(); got != "RLHF notes" {
		t.Errorf("expected title, got %q", got)
	}
	if got := (Metadata{}).DocumentKey(); got != UnknownTitle {
		t.Errorf("expected %q, got %q", UnknownTitle, got)
	}
}

func TestNewMalformed(t *testing.T) {
	p := NewMalformed("p1", "text", Metadata{Title: "T"})

	if !p.Malformed() {
		t.Error("expected malformed passage")
	}
	if p.Embedding() != nil {
		t.Errorf("expected nil embedding, got %v", p.Embedding())
	}
	if p.Metadata().Title != "T" || p.Text() != "text" || p.ID() != "p1" {
		t.Errorf("unexpected passage %+v", p)
	}
}

func TestSummary(t *testing.T) {
	m := Metadata{Title: "T", Author: "A", Date: "2024-01-02", URL: "https://x", Gist: "g", Themes: []string{"a"}}
	want := DocumentSummary{Title: "T", Author: "A", Date: "2024-01-02", URL: "https://x"}
	if got := m.Summary(); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

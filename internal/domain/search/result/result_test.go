package result

import (
	"testing"

	"github.com/kailas-cloud/ragctx/internal/domain/passage"
)

func TestNew(t *testing.T) {
	p := passage.New("p-1", "hello", []float32{0.1, 0.2}, passage.Metadata{Title: "T"})

	r := New(p, 0.9, 1, 0.5, 0.88)

	pp := r.Passage()
	if pp.ID() != "p-1" {
		t.Errorf("Passage().ID() = %q", pp.ID())
	}
	if r.Similarity() != 0.9 {
		t.Errorf("Similarity() = %f", r.Similarity())
	}
	if r.ThemeScore() != 1 {
		t.Errorf("ThemeScore() = %f", r.ThemeScore())
	}
	if r.GistScore() != 0.5 {
		t.Errorf("GistScore() = %f", r.GistScore())
	}
	if r.Combined() != 0.88 {
		t.Errorf("Combined() = %f", r.Combined())
	}
}

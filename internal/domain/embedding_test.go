package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	return s.result, s.err
}

func TestInstructionEmbedder_PrependsInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	emb := NewInstructionEmbedder(inner, "search_document: ")

	result, err := emb.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got != "search_document: hello world" {
		t.Errorf("expected prepended text, got %q", inner.got)
	}
	if len(result.Embedding) != 3 {
		t.Errorf("expected 3-element vector, got %d", len(result.Embedding))
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	inner := &stubEmbedder{err: innerErr}
	emb := NewInstructionEmbedder(inner, "search_document: ")

	_, err := emb.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestInstructionEmbedder_EmptyInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.5}}}
	emb := NewInstructionEmbedder(inner, "")

	_, err := emb.Embed(context.Background(), "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got != "test" {
		t.Errorf("expected 'test', got %q", inner.got)
	}
}

type checkingEmbedder struct {
	stubEmbedder
	healthErr error
}

func (c *checkingEmbedder) HealthCheck(context.Context) error { return c.healthErr }

func TestInstructionEmbedder_HealthCheckForwards(t *testing.T) {
	down := errors.New("down")
	emb := NewInstructionEmbedder(&checkingEmbedder{healthErr: down}, "q: ")

	if err := emb.HealthCheck(context.Background()); !errors.Is(err, down) {
		t.Errorf("expected forwarded health error, got %v", err)
	}
}

func TestInstructionEmbedder_HealthCheckWithoutChecker(t *testing.T) {
	emb := NewInstructionEmbedder(&stubEmbedder{}, "q: ")

	if err := emb.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected nil for inner without health check, got %v", err)
	}
}

func TestMalformedRecordError_Is(t *testing.T) {
	cause := errors.New("bad json")
	err := NewMalformedRecord("p-1", cause)

	if !errors.Is(err, ErrMalformedRecord) {
		t.Error("expected errors.Is ErrMalformedRecord")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is cause")
	}
	var mre *MalformedRecordError
	if !errors.As(err, &mre) || mre.ID != "p-1" {
		t.Errorf("expected MalformedRecordError with id p-1, got %v", err)
	}
}

func TestEmbeddingUsage_AddTokens(t *testing.T) {
	ctx, u := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddTokens(7)

	if u.TotalTokens != 7 || !u.Used {
		t.Errorf("unexpected usage %+v", u)
	}

	var nilUsage *EmbeddingUsage
	nilUsage.AddTokens(3)
	if UsageFromContext(context.Background()) != nil {
		t.Error("expected nil usage without collector")
	}
}

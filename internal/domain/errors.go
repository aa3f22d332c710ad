package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing source document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidRequest signals a malformed caller request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a chat completion failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrStore signals a candidate store failure.
	ErrStore = errors.New("candidate store error")
	// ErrTopKUnsupported signals that the store cannot answer native top-k queries.
	ErrTopKUnsupported = errors.New("native top-k not supported by store")

	// ErrMalformedRecord signals a stored passage whose vector cannot be decoded.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)

// MalformedRecordError wraps ErrMalformedRecord with the offending passage id.
type MalformedRecordError struct {
	ID  string
	Err error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrMalformedRecord.Error(), e.ID, e.Err)
}

func (e *MalformedRecordError) Unwrap() []error { return []error{ErrMalformedRecord, e.Err} }

// NewMalformedRecord creates a malformed record error.
func NewMalformedRecord(id string, err error) error {
	return &MalformedRecordError{ID: id, Err: err}
}

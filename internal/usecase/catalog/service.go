// Package catalog browses the source documents behind the indexed passages.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ragctx/internal/domain"
	"github.com/kailas-cloud/ragctx/internal/domain/passage"
)

// DefaultScanLimit bounds how many passage records a listing reads.
const DefaultScanLimit = 5000

// MetadataReader lists passage metadata in store order.
type MetadataReader interface {
	ListMetadata(ctx context.Context, limit int) ([]passage.Metadata, error)
}

// TitleLookup finds one document's metadata directly. Stores that can
// answer it avoid a full listing.
type TitleLookup interface {
	MetadataByTitle(ctx context.Context, title string) (passage.Metadata, error)
}

// Service projects passage metadata into documents.
type Service struct {
	store     MetadataReader
	scanLimit int
}

// New creates a catalog service. scanLimit <= 0 selects DefaultScanLimit.
func New(store MetadataReader, scanLimit int) *Service {
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	return &Service{store: store, scanLimit: scanLimit}
}

// ListDocuments returns one summary per distinct title, in store order.
func (s *Service) ListDocuments(ctx context.Context) ([]passage.DocumentSummary, error) {
	metas, err := s.store.ListMetadata(ctx, s.scanLimit)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}

	seen := make(map[string]struct{})
	docs := make([]passage.DocumentSummary, 0)
	for _, m := range metas {
		if m.Title == "" {
			continue
		}
		if _, ok := seen[m.Title]; ok {
			continue
		}
		seen[m.Title] = struct{}{}
		docs = append(docs, m.Summary())
	}
	return docs, nil
}

// Metadata returns the full metadata of the document titled title.
func (s *Service) Metadata(ctx context.Context, title string) (passage.Metadata, error) {
	if title == "" {
		return passage.Metadata{}, fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	}

	if tl, ok := s.store.(TitleLookup); ok {
		m, err := tl.MetadataByTitle(ctx, title)
		switch {
		case err == nil:
			return m, nil
		case errors.Is(err, domain.ErrDocumentNotFound):
			return passage.Metadata{}, err
		default:
			return passage.Metadata{}, fmt.Errorf("lookup title: %w", err)
		}
	}

	metas, err := s.store.ListMetadata(ctx, s.scanLimit)
	if err != nil {
		return passage.Metadata{}, fmt.Errorf("list metadata: %w", err)
	}
	for _, m := range metas {
		if m.Title == title {
			return m, nil
		}
	}
	return passage.Metadata{}, fmt.Errorf("%w: %q", domain.ErrDocumentNotFound, title)
}

package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragctx/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length in bytes.
	MaxQueryLength = 4096
	MaxLimit       = 100
)

// Request is a validated retrieval request.
// A blank query is valid and yields no results.
type Request struct {
	query       string
	limit       int
	themeFilter string
}

// New validates and normalizes search parameters.
// A non-positive limit means "use the service default"; limits above MaxLimit are clamped.
func New(query string, limit int, themeFilter string) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Request{
		query:       query,
		limit:       limit,
		themeFilter: strings.TrimSpace(themeFilter),
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Limit returns the requested result count, 0 for the default.
func (r *Request) Limit() int { return r.limit }

// ThemeFilter returns the theme substring results must carry, if any.
func (r *Request) ThemeFilter() string { return r.themeFilter }

// WithDefaultLimit returns a copy whose unset limit is replaced by def.
func (r Request) WithDefaultLimit(def int) Request {
	if r.limit == 0 {
		r.limit = min(def, MaxLimit)
	}
	return r
}

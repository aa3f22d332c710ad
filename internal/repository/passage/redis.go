package passage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragctx/internal/db"
	"github.com/kailas-cloud/ragctx/internal/db/redis"
	"github.com/kailas-cloud/ragctx/internal/domain"
	dompassage "github.com/kailas-cloud/ragctx/internal/domain/passage"
	"github.com/kailas-cloud/ragctx/internal/logger"
	searchuc "github.com/kailas-cloud/ragctx/internal/usecase/search"
)

// redisStore is the consumer interface for passage hashes (ISP).
type redisStore interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string, limit int) ([]string, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
}

// RedisRepo reads passages stored as hashes under a key prefix, with an
// optional FT vector index over the "embedding" field.
type RedisRepo struct {
	store  redisStore
	prefix string
	index  string
}

// NewRedis creates a Redis passage repository.
func NewRedis(s redisStore, keyPrefix, index string) *RedisRepo {
	return &RedisRepo{store: s, prefix: keyPrefix, index: index}
}

// TopK returns the k nearest passages by the index's cosine distance.
// It wraps domain.ErrTopKUnsupported when the server has no search module
// or the index is missing.
func (r *RedisRepo) TopK(ctx context.Context, vector []float32, k int) ([]searchuc.Candidate, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.index,
		VectorField:  fieldEmbedding,
		Vector:       vector,
		K:            k,
		ReturnFields: passageFields,
	})
	if err != nil {
		if errors.Is(err, db.ErrSearchUnavailable) {
			return nil, fmt.Errorf("redis index %s: %w: %w", r.index, domain.ErrTopKUnsupported, err)
		}
		return nil, fmt.Errorf("knn search: %w", err)
	}

	out := make([]searchuc.Candidate, 0, len(res.Entries))
	for _, e := range res.Entries {
		p, perr := parseHashFields(r.idFromKey(e.Key), e.Fields)
		if perr != nil {
			logMalformed(ctx, perr)
		}
		out = append(out, searchuc.Candidate{Passage: p, Similarity: e.Score, HasSimilarity: true})
	}
	return out, nil
}

// FetchRecent returns up to limit passages in key order.
func (r *RedisRepo) FetchRecent(ctx context.Context, limit int) ([]dompassage.Passage, error) {
	keys, err := r.scanKeys(ctx, limit)
	if err != nil {
		return nil, err
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch passages: %w", err)
	}

	out := make([]dompassage.Passage, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue // expired between SCAN and HGETALL
		}
		p, perr := parseHashFields(r.idFromKey(keys[i]), m)
		if perr != nil {
			logMalformed(ctx, perr)
		}
		out = append(out, p)
	}
	return out, nil
}

// ListMetadata returns metadata of up to limit passages in key order.
func (r *RedisRepo) ListMetadata(ctx context.Context, limit int) ([]dompassage.Metadata, error) {
	keys, err := r.scanKeys(ctx, limit)
	if err != nil {
		return nil, err
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}

	out := make([]dompassage.Metadata, 0, len(hashes))
	for _, m := range hashes {
		if len(m) == 0 {
			continue
		}
		out = append(out, parseMetadataFields(m))
	}
	return out, nil
}

// MetadataByTitle looks a document up through the index's title TAG field.
// Without an index it scans hashes.
func (r *RedisRepo) MetadataByTitle(ctx context.Context, title string) (dompassage.Metadata, error) {
	res, err := r.store.SearchList(ctx, r.index, redis.TagQuery(fieldTitle, title), 0, 1, metadataFields)
	switch {
	case err == nil:
		if len(res.Entries) == 0 {
			return dompassage.Metadata{}, fmt.Errorf("%w: %q", domain.ErrDocumentNotFound, title)
		}
		return parseMetadataFields(res.Entries[0].Fields), nil
	case errors.Is(err, db.ErrSearchUnavailable):
		return r.scanForTitle(ctx, title)
	default:
		return dompassage.Metadata{}, fmt.Errorf("title lookup: %w", err)
	}
}

func (r *RedisRepo) scanForTitle(ctx context.Context, title string) (dompassage.Metadata, error) {
	metas, err := r.ListMetadata(ctx, 0)
	if err != nil {
		return dompassage.Metadata{}, err
	}
	for _, m := range metas {
		if m.Title == title {
			return m, nil
		}
	}
	return dompassage.Metadata{}, fmt.Errorf("%w: %q", domain.ErrDocumentNotFound, title)
}

// scanKeys lists passage keys in sorted order so bulk reads are stable
// across calls. limit <= 0 reads every key.
func (r *RedisRepo) scanKeys(ctx context.Context, limit int) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*", 0)
	if err != nil {
		return nil, fmt.Errorf("scan passages: %w", err)
	}
	slices.Sort(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

func (r *RedisRepo) idFromKey(key string) string {
	return strings.TrimPrefix(key, r.prefix)
}

func logMalformed(ctx context.Context, err error) {
	fields := []zap.Field{zap.Error(err)}
	var mre *domain.MalformedRecordError
	if errors.As(err, &mre) {
		fields = append(fields, zap.String("passage_id", mre.ID))
	}
	logger.FromContext(ctx).Debug("stored embedding does not decode", fields...)
}

package passage

import (
	"context"

	"github.com/kailas-cloud/ragctx/internal/db"
)

// mockStore implements redisStore for tests.
type mockStore struct {
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	scanFn         func(ctx context.Context, pattern string, limit int) ([]string, error)
	searchKNNFn    func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchListFn   func(
		ctx context.Context, index, query string, offset, limit int, fields []string,
	) (*db.SearchResult, error)
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string, limit int) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern, limit)
	}
	return nil, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, index, query, offset, limit, fields)
	}
	return &db.SearchResult{}, nil
}

const (
	testPrefix = "ragctx:passage:"
	testIndex  = "ragctx:passages:idx"
)

func newTestRedisRepo(s *mockStore) *RedisRepo {
	return NewRedis(s, testPrefix, testIndex)
}

// hashFrom builds a stored hash for a passage.
func hashFrom(text, title string, vec []float32) map[string]string {
	m := map[string]string{
		fieldText:   text,
		fieldTitle:  title,
		fieldThemes: `["Scaling","RLHF"]`,
	}
	if vec != nil {
		m[fieldEmbedding] = string(db.EncodeVector(vec))
	}
	return m
}

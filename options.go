package ragctx

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragctx/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cfg      config.Config
	embedder Embedder
	logger   *zap.Logger
}

// WithRedis stores passages in a Redis instance with the search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Store.Driver = config.DriverRedis
		c.cfg.Store.Addrs = []string{addr}
		c.cfg.Store.Password = password
	})
}

// WithSQLite reads passages from a SQLite database file.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Store.Driver = config.DriverSQLite
		c.cfg.Store.SQLitePath = path
	})
}

// WithIndex overrides the Redis search index and passage key prefix.
func WithIndex(index, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Store.Index = index
		c.cfg.Store.KeyPrefix = keyPrefix
	})
}

// WithOpenAI configures an OpenAI-compatible embedding provider.
// An empty baseURL selects the OpenAI API.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.APIKey = apiKey
		c.cfg.Embedding.BaseURL = baseURL
	})
}

// WithEmbeddingModel sets the embedding model and its vector size.
// It must match the model the passages were indexed with.
func WithEmbeddingModel(model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.Model = model
		c.cfg.Embedding.Dimensions = dimensions
	})
}

// WithQueryInstruction prefixes every query before embedding.
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.QueryInstruction = instruction
	})
}

// WithEmbeddingCache caches query embeddings in Redis. Ignored for SQLite.
func WithEmbeddingCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.Cache = true
	})
}

// WithEmbedder replaces the OpenAI-compatible provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithDefaultLimit sets how many results Search returns without Limit.
func WithDefaultLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Retrieval.Limit = n
	})
}

// WithMinScore sets the combined score a passage must exceed. 0 keeps the default.
func WithMinScore(v float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Retrieval.MinScore = v
	})
}

// WithWorkers scores candidates on n goroutines.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Retrieval.Workers = n
	})
}

// WithFetchCap bounds how many candidates are scored per search.
func WithFetchCap(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Retrieval.FetchCap = n
	})
}

// WithAnchorPhrases boosts quotes containing any of phrases.
func WithAnchorPhrases(phrases ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Quotes.AnchorPhrases = phrases
	})
}

// WithMaxQuotes caps the quotes rendered per passage.
func WithMaxQuotes(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Quotes.MaxQuotes = n
	})
}

// WithLogger routes client logs to l. The default discards them.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// SearchOption narrows a single search.
type SearchOption func(*searchConfig)

type searchConfig struct {
	limit int
	theme string
}

// Limit caps the number of results.
func Limit(n int) SearchOption {
	return func(s *searchConfig) { s.limit = n }
}

// Theme keeps passages whose document has a theme containing filter.
func Theme(filter string) SearchOption {
	return func(s *searchConfig) { s.theme = filter }
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the ragctx service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Store      StoreConfig      `yaml:"store"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Quotes     QuotesConfig     `yaml:"quotes"`
	Context    ContextConfig    `yaml:"context"`
	Generation GenerationConfig `yaml:"generation"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Store drivers.
const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// StoreConfig holds candidate store settings.
type StoreConfig struct {
	Driver           string   `yaml:"driver"` // redis, sqlite (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	Index            string   `yaml:"index"`
	SQLitePath       string   `yaml:"sqlite_path"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds query embedding settings.
type EmbeddingConfig struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	Cache            bool   `yaml:"cache"`
}

// RetrievalConfig holds ranking and over-fetch settings.
type RetrievalConfig struct {
	Limit           int     `yaml:"limit"`
	MinScore        float64 `yaml:"min_score"`
	FetchCap        int     `yaml:"fetch_cap"`
	OverFetchFactor int     `yaml:"over_fetch_factor"`
	Workers         int     `yaml:"workers"` // 0 or 1 scores sequentially
}

// QuotesConfig holds quote extraction settings.
type QuotesConfig struct {
	MaxQuotes     int      `yaml:"max_quotes"`
	AnchorPhrases []string `yaml:"anchor_phrases"`
	SignalWords   []string `yaml:"signal_words"`
}

// ContextConfig holds context block rendering settings.
type ContextConfig struct {
	Heading  string `yaml:"heading"`
	MaxChars int    `yaml:"max_chars"`
}

// GenerationConfig holds chat completion settings.
type GenerationConfig struct {
	APIKey       string  `yaml:"api_key"`
	BaseURL      string  `yaml:"base_url"`
	Model        string  `yaml:"model"`
	Temperature  float32 `yaml:"temperature"`
	SystemPrompt string  `yaml:"system_prompt"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	loadDotEnv()

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverRedis
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "ragctx:passage:"
	}
	if c.Store.Index == "" {
		c.Store.Index = "ragctx:passages:idx"
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Retrieval.Limit <= 0 {
		c.Retrieval.Limit = 5
	}
	if c.Retrieval.MinScore == 0 {
		c.Retrieval.MinScore = 0.3
	}
	if c.Retrieval.FetchCap <= 0 {
		c.Retrieval.FetchCap = 200
	}
	if c.Retrieval.OverFetchFactor <= 0 {
		c.Retrieval.OverFetchFactor = 2
	}
	if c.Quotes.MaxQuotes <= 0 {
		c.Quotes.MaxQuotes = 3
	}
	if c.Quotes.SignalWords == nil {
		c.Quotes.SignalWords = []string{"system", "problem"}
	}
	if c.Context.Heading == "" {
		c.Context.Heading = "Relevant context:"
	}
	if c.Context.MaxChars <= 0 {
		c.Context.MaxChars = 16000
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gpt-4o"
	}
	if c.Generation.APIKey == "" {
		c.Generation.APIKey = c.Embedding.APIKey
	}
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = c.Embedding.BaseURL
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Store.Driver {
	case DriverRedis:
		if len(c.Store.Addrs) == 0 {
			return fmt.Errorf("store.addrs is required for driver %q", DriverRedis)
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for driver %q", DriverSQLite)
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverRedis, DriverSQLite, c.Store.Driver)
	}
	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore >= 1 {
		return fmt.Errorf("retrieval.min_score must be in [0, 1), got %g", c.Retrieval.MinScore)
	}
	if c.Retrieval.FetchCap < c.Retrieval.Limit {
		return fmt.Errorf("retrieval.fetch_cap (%d) must not be below retrieval.limit (%d)",
			c.Retrieval.FetchCap, c.Retrieval.Limit)
	}
	if c.Retrieval.Workers < 0 {
		return fmt.Errorf("retrieval.workers must not be negative, got %d", c.Retrieval.Workers)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// loadDotEnv populates the process environment from .env files.
// Variables already set in the environment are left untouched.
func loadDotEnv() {
	for _, name := range []string{".env.local", ".env"} {
		if fileExists(name) {
			_ = godotenv.Load(name)
		}
	}
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Store: StoreConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_SQLiteRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = DriverSQLite
	cfg.Store.Addrs = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing sqlite path")
	}

	cfg.Store.SQLitePath = "passages.db"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	expected := `store.driver must be "redis" or "sqlite", got "postgres"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_FetchCapBelowLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.Limit = 50
	cfg.Retrieval.FetchCap = 20

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when fetch_cap < limit")
	}
}

func TestValidate_MinScoreRange(t *testing.T) {
	for _, score := range []float64{-0.1, 1, 1.5} {
		cfg := validConfig()
		cfg.Retrieval.MinScore = score
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for min_score=%g", score)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Store.Driver != DriverRedis {
		t.Errorf("expected Driver=redis, got %q", cfg.Store.Driver)
	}
	if cfg.Store.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Store.ReadinessTimeout)
	}
	if cfg.Retrieval.Limit != 5 {
		t.Errorf("expected Limit=5, got %d", cfg.Retrieval.Limit)
	}
	if cfg.Retrieval.MinScore != 0.3 {
		t.Errorf("expected MinScore=0.3, got %g", cfg.Retrieval.MinScore)
	}
	if cfg.Retrieval.FetchCap != 200 {
		t.Errorf("expected FetchCap=200, got %d", cfg.Retrieval.FetchCap)
	}
	if cfg.Retrieval.OverFetchFactor != 2 {
		t.Errorf("expected OverFetchFactor=2, got %d", cfg.Retrieval.OverFetchFactor)
	}
	if cfg.Quotes.MaxQuotes != 3 {
		t.Errorf("expected MaxQuotes=3, got %d", cfg.Quotes.MaxQuotes)
	}
	if len(cfg.Quotes.SignalWords) != 2 {
		t.Errorf("expected default signal words, got %v", cfg.Quotes.SignalWords)
	}
	if cfg.Quotes.AnchorPhrases != nil {
		t.Errorf("expected no anchor phrases by default, got %v", cfg.Quotes.AnchorPhrases)
	}
	if cfg.Context.Heading != "Relevant context:" {
		t.Errorf("unexpected heading %q", cfg.Context.Heading)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 20, ShutdownSec: 5},
		Store:      StoreConfig{KeyPrefix: "custom:", ReadinessTimeout: 15},
		Retrieval:  RetrievalConfig{Limit: 8, FetchCap: 50, MinScore: 0.5},
		Quotes:     QuotesConfig{SignalWords: []string{}},
		Embedding:  EmbeddingConfig{APIKey: "emb-key"},
		Generation: GenerationConfig{APIKey: "gen-key"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 20 {
		t.Errorf("expected WriteTimeoutSec=20, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Store.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Store.KeyPrefix)
	}
	if cfg.Retrieval.Limit != 8 || cfg.Retrieval.FetchCap != 50 || cfg.Retrieval.MinScore != 0.5 {
		t.Errorf("retrieval overridden: %+v", cfg.Retrieval)
	}
	if len(cfg.Quotes.SignalWords) != 0 {
		t.Errorf("explicit empty signal words replaced: %v", cfg.Quotes.SignalWords)
	}
	if cfg.Generation.APIKey != "gen-key" {
		t.Errorf("expected generation key kept, got %q", cfg.Generation.APIKey)
	}
}

func TestApplyDefaults_GenerationInheritsEmbeddingCredentials(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{APIKey: "k", BaseURL: "http://llm.local/v1"}}
	cfg.ApplyDefaults()

	if cfg.Generation.APIKey != "k" || cfg.Generation.BaseURL != "http://llm.local/v1" {
		t.Errorf("generation credentials not inherited: %+v", cfg.Generation)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RAGCTX_TEST_ADDR", "redis:6379")

	got := string(expandEnvVars([]byte("a: ${RAGCTX_TEST_ADDR}\nb: ${RAGCTX_TEST_MISSING:-fallback}\nc: ${RAGCTX_TEST_MISSING}")))
	want := "a: redis:6379\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o750); err != nil {
		t.Fatal(err)
	}
	yaml := "http:\n  port: ${RAGCTX_TEST_PORT:-9000}\nstore:\n  driver: sqlite\n  sqlite_path: ./p.db\n"
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("RAGCTX_TEST_PORT=9100\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Cleanup(func() { _ = os.Unsetenv("RAGCTX_TEST_PORT") })

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9100 {
		t.Errorf("expected port from .env, got %d", cfg.HTTP.Port)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Store.SQLitePath != "./p.db" {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
}

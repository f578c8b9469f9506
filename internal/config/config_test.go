package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{}
	cfg.HTTP.Port = 8080
	cfg.Database.Addrs = []string{"localhost:6379"}
	cfg.Embedding.APIKey = "sk-test"
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("embedding model = %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 512 {
		t.Errorf("dimensions = %d", cfg.Embedding.Dimensions)
	}
	if cfg.Chat.Model != "gpt-4o" {
		t.Errorf("chat model = %q", cfg.Chat.Model)
	}
	if cfg.Chat.MaxTokens != 1000 {
		t.Errorf("max tokens = %d", cfg.Chat.MaxTokens)
	}
	if cfg.Retrieval.MatchCount != 8 {
		t.Errorf("match count = %d", cfg.Retrieval.MatchCount)
	}
	if cfg.Retrieval.SimilarityThreshold != 0.30 {
		t.Errorf("threshold = %g", cfg.Retrieval.SimilarityThreshold)
	}
}

func TestApplyDefaultsChatKeyFallsBackToEmbeddingKey(t *testing.T) {
	cfg := validConfig()
	if cfg.Chat.APIKey != "sk-test" {
		t.Errorf("chat api key = %q, want embedding key", cfg.Chat.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"no addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"no api key", func(c *Config) { c.Embedding.APIKey = ""; c.Chat.APIKey = "" }, "embedding.api_key"},
		{"threshold above one", func(c *Config) { c.Retrieval.SimilarityThreshold = 1.5 }, "similarity_threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RAGDEX_TEST_VAR", "redis:6379")

	got := string(expandEnvVars([]byte("addr: ${RAGDEX_TEST_VAR}")))
	if got != "addr: redis:6379" {
		t.Errorf("expanded = %q", got)
	}

	got = string(expandEnvVars([]byte("addr: ${RAGDEX_UNSET_VAR:-localhost:6379}")))
	if got != "addr: localhost:6379" {
		t.Errorf("default = %q", got)
	}

	got = string(expandEnvVars([]byte("addr: ${RAGDEX_UNSET_VAR}")))
	if got != "addr: " {
		t.Errorf("unset without default = %q", got)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, scoresDBEnv, openAIKeyEnv, openAIBaseURLEnv,
		openAIModelEnv, chromaURLEnv, embeddingModelEnv,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Storage.Path != "feed_scores.db" {
		t.Fatalf("unexpected storage path: %q", cfg.Storage.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
	if cfg.Engine.EntrySelector != ".entry" {
		t.Fatalf("unexpected entry selector: %q", cfg.Engine.EntrySelector)
	}
	if cfg.Engine.Debounce() != 200*time.Millisecond {
		t.Fatalf("unexpected debounce: %v", cfg.Engine.Debounce())
	}
	if cfg.Engine.CacheTTL() != 30*time.Second {
		t.Fatalf("unexpected cache ttl: %v", cfg.Engine.CacheTTL())
	}
	if cfg.Vector.URL != "" {
		t.Fatalf("vector store should default to disabled")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(scoresDBEnv, "/tmp/custom.db")
	t.Setenv(openAIKeyEnv, "secret")
	t.Setenv(openAIBaseURLEnv, "https://llm.internal/v1")
	t.Setenv(chromaURLEnv, "http://chroma:8000")

	cfg := Load()

	if cfg.Storage.Path != "/tmp/custom.db" {
		t.Fatalf("storage override ignored: %q", cfg.Storage.Path)
	}
	if cfg.LLM.APIKey != "secret" || cfg.LLM.BaseURL != "https://llm.internal/v1" {
		t.Fatalf("llm overrides ignored: %+v", cfg.LLM)
	}
	if cfg.Vector.URL != "http://chroma:8000" {
		t.Fatalf("vector override ignored: %q", cfg.Vector.URL)
	}

	// Embeddings inherit the LLM endpoint and key when unset.
	if cfg.Embeddings.BaseURL != "https://llm.internal/v1" || cfg.Embeddings.APIKey != "secret" {
		t.Fatalf("embeddings should inherit llm settings: %+v", cfg.Embeddings)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
logging:
  level: debug
storage:
  path: from-yaml.db
engine:
  debounceMs: 500
  fastPathLimit: 16
  legacyRequests: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Logging.Level != "debug" {
		t.Fatalf("yaml log level ignored: %q", cfg.Logging.Level)
	}
	if cfg.Storage.Path != "from-yaml.db" {
		t.Fatalf("yaml storage path ignored: %q", cfg.Storage.Path)
	}
	if cfg.Engine.Debounce() != 500*time.Millisecond {
		t.Fatalf("yaml debounce ignored: %v", cfg.Engine.Debounce())
	}
	if cfg.Engine.FastPathLimit != 16 {
		t.Fatalf("yaml fast path limit ignored: %d", cfg.Engine.FastPathLimit)
	}
	if !cfg.Engine.LegacyRequests {
		t.Fatalf("yaml legacy flag ignored")
	}

	// Unset sections keep their defaults.
	if cfg.Engine.EntrySelector != ".entry" {
		t.Fatalf("default selector lost in merge: %q", cfg.Engine.EntrySelector)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("default model lost in merge: %q", cfg.LLM.Model)
	}
}

func TestEnvOverridesBeatYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  path: from-yaml.db\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(scoresDBEnv, "from-env.db")

	cfg := Load()
	if cfg.Storage.Path != "from-env.db" {
		t.Fatalf("env should win over yaml, got %q", cfg.Storage.Path)
	}
}

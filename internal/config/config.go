package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "FEED_ANNOTATOR_CONFIG"
	scoresDBEnv       = "FEED_SCORES_DB"
	openAIKeyEnv      = "OPENAI_API_KEY"
	openAIBaseURLEnv  = "OPENAI_BASE_URL"
	openAIModelEnv    = "OPENAI_MODEL"
	chromaURLEnv      = "CHROMA_URL"
	embeddingModelEnv = "EMBEDDINGS_MODEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
	LLM        LLMConfig        `yaml:"llm"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Vector     VectorConfig     `yaml:"vector"`
	Engine     EngineConfig     `yaml:"engine"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StorageConfig describes the sqlite verdict store.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig defines the OpenAI-compatible analysis endpoint.
type LLMConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`
	Persona string `yaml:"persona"`
}

// EmbeddingsConfig selects the embedding model; endpoint and key default to
// the LLM settings when empty.
type EmbeddingsConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`
}

// VectorConfig describes the Chroma vector store; empty URL disables it.
type VectorConfig struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
}

// EngineConfig tunes the in-page annotation engine.
type EngineConfig struct {
	EntrySelector  string `yaml:"entrySelector"`
	DebounceMS     int    `yaml:"debounceMs"`
	CacheTTLSec    int    `yaml:"cacheTtlSeconds"`
	FastPathLimit  int    `yaml:"fastPathLimit"`
	LegacyRequests bool   `yaml:"legacyRequests"`
	MinActionText  int    `yaml:"minActionText"`
	ViewportWidth  int    `yaml:"viewportWidth"`
	ViewportHeight int    `yaml:"viewportHeight"`
}

// Debounce converts the configured delay into a duration.
func (e EngineConfig) Debounce() time.Duration {
	return time.Duration(e.DebounceMS) * time.Millisecond
}

// CacheTTL converts the configured verdict staleness into a duration.
func (e EngineConfig) CacheTTL() time.Duration {
	return time.Duration(e.CacheTTLSec) * time.Second
}

// Load reads YAML configuration (if present), loads .env, and applies
// environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	_ = godotenv.Load()
	cfg.applyEnvOverrides()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(scoresDBEnv); v != "" {
		c.Storage.Path = v
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(openAIBaseURLEnv); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(chromaURLEnv); v != "" {
		c.Vector.URL = v
	}
	if v := os.Getenv(embeddingModelEnv); v != "" {
		c.Embeddings.Model = v
	}

	if c.Embeddings.BaseURL == "" {
		c.Embeddings.BaseURL = c.LLM.BaseURL
	}
	if c.Embeddings.APIKey == "" {
		c.Embeddings.APIKey = c.LLM.APIKey
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Storage.Path != "" {
		base.Storage = override.Storage
	}

	if override.LLM.BaseURL != "" {
		base.LLM.BaseURL = override.LLM.BaseURL
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.Persona != "" {
		base.LLM.Persona = override.LLM.Persona
	}

	if override.Embeddings.BaseURL != "" {
		base.Embeddings.BaseURL = override.Embeddings.BaseURL
	}
	if override.Embeddings.Model != "" {
		base.Embeddings.Model = override.Embeddings.Model
	}
	if override.Embeddings.APIKey != "" {
		base.Embeddings.APIKey = override.Embeddings.APIKey
	}

	if override.Vector.URL != "" {
		base.Vector.URL = override.Vector.URL
	}
	if override.Vector.Collection != "" {
		base.Vector.Collection = override.Vector.Collection
	}

	if override.Engine.EntrySelector != "" {
		base.Engine.EntrySelector = override.Engine.EntrySelector
	}
	if override.Engine.DebounceMS > 0 {
		base.Engine.DebounceMS = override.Engine.DebounceMS
	}
	if override.Engine.CacheTTLSec > 0 {
		base.Engine.CacheTTLSec = override.Engine.CacheTTLSec
	}
	if override.Engine.FastPathLimit > 0 {
		base.Engine.FastPathLimit = override.Engine.FastPathLimit
	}
	if override.Engine.LegacyRequests {
		base.Engine.LegacyRequests = true
	}
	if override.Engine.MinActionText > 0 {
		base.Engine.MinActionText = override.Engine.MinActionText
	}
	if override.Engine.ViewportWidth > 0 {
		base.Engine.ViewportWidth = override.Engine.ViewportWidth
	}
	if override.Engine.ViewportHeight > 0 {
		base.Engine.ViewportHeight = override.Engine.ViewportHeight
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Storage: StorageConfig{Path: "feed_scores.db"},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			APIKey:  "",
			Persona: "You are a senior engineer triaging a technical reading feed.",
		},
		Embeddings: EmbeddingsConfig{Model: "text-embedding-3-small"},
		Vector:     VectorConfig{URL: "", Collection: "feed_articles"},
		Engine: EngineConfig{
			EntrySelector:  ".entry",
			DebounceMS:     200,
			CacheTTLSec:    30,
			FastPathLimit:  8,
			MinActionText:  80,
			ViewportWidth:  1280,
			ViewportHeight: 800,
		},
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docsift/docsift/internal/core/domain"
)

func TestLoadAppliesPipelineDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("CHUNK_OVERLAP", "")
	t.Setenv("RETRIEVAL_TOP_K", "")
	t.Setenv("FUSION_TOP_N", "")
	t.Setenv("FUSION_DENSE_WEIGHT", "")
	t.Setenv("ANSWER_CACHE_TTL", "")
	t.Setenv("GENERATION_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Fatalf("chunking defaults = %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.RetrievalTopK != 10 || cfg.FusionTopN != 5 {
		t.Fatalf("retrieval defaults = %d/%d", cfg.RetrievalTopK, cfg.FusionTopN)
	}
	if cfg.FusionDenseWeight != 0.6 || cfg.FusionLexicalWeight != 0.4 {
		t.Fatalf("fusion weights = %v/%v", cfg.FusionDenseWeight, cfg.FusionLexicalWeight)
	}
	if cfg.AnswerCacheTTL != 300*time.Second {
		t.Fatalf("cache ttl = %v", cfg.AnswerCacheTTL)
	}
	if cfg.GenerationTimeout != 120*time.Second {
		t.Fatalf("generation timeout = %v", cfg.GenerationTimeout)
	}
	if cfg.ExpansionEnabled {
		t.Fatalf("expansion should default off")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CHUNK_SIZE", "450")
	t.Setenv("CHUNK_UNIT", "tokens")
	t.Setenv("FUSION_DENSE_WEIGHT", "0.7")
	t.Setenv("FUSION_LEXICAL_WEIGHT", "0.3")
	t.Setenv("GENERATION_TIMEOUT", "30s")
	t.Setenv("EXPANSION_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChunkSize != 450 {
		t.Fatalf("chunk size = %d", cfg.ChunkSize)
	}
	if cfg.ChunkUnit != "tokens" {
		t.Fatalf("chunk unit = %q", cfg.ChunkUnit)
	}
	if cfg.FusionDenseWeight != 0.7 || cfg.FusionLexicalWeight != 0.3 {
		t.Fatalf("fusion weights = %v/%v", cfg.FusionDenseWeight, cfg.FusionLexicalWeight)
	}
	if cfg.GenerationTimeout != 30*time.Second {
		t.Fatalf("generation timeout = %v", cfg.GenerationTimeout)
	}
	if !cfg.ExpansionEnabled {
		t.Fatalf("expansion should be enabled")
	}
}

func TestLoadOverlaysFileButEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "chunk_size: 450\nollama_gen_model: mistral\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CHUNK_SIZE", "400")
	t.Setenv("OLLAMA_GEN_MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChunkSize != 400 {
		t.Fatalf("chunk size = %d, env should win over file", cfg.ChunkSize)
	}
	if cfg.OllamaGenModel != "mistral" {
		t.Fatalf("gen model = %q, file should override default", cfg.OllamaGenModel)
	}
}

func TestLoadFailsOnMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}

func validConfig() Config {
	return Config{
		ChunkSize:                 500,
		ChunkOverlap:              50,
		ChunkUnit:                 "runes",
		FusionDenseWeight:         0.6,
		FusionLexicalWeight:       0.4,
		ConfidenceRelevanceWeight: 0.5,
		ConfidenceOverlapWeight:   0.5,
		TemperatureMin:            0.1,
		TemperatureMax:            1.0,
		TemperatureLowThreshold:   0.5,
		TemperatureHighThreshold:  0.8,
		AdaptiveWindow:            20,
		MetricsWindow:             100,
		LLMMaxAttempts:            3,
	}
}

func TestValidateRejectsInvalidCombinations(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap not below size", func(c *Config) { c.ChunkOverlap = 500 }},
		{"unknown chunk unit", func(c *Config) { c.ChunkUnit = "words" }},
		{"fusion weights off one", func(c *Config) { c.FusionDenseWeight = 0.7 }},
		{"confidence weights off one", func(c *Config) { c.ConfidenceOverlapWeight = 0.6 }},
		{"temperature min above max", func(c *Config) { c.TemperatureMin = 1.2 }},
		{"thresholds out of order", func(c *Config) { c.TemperatureLowThreshold = 0.9 }},
		{"metrics window below adaptive", func(c *Config) { c.MetricsWindow = 10 }},
		{"zero llm attempts", func(c *Config) { c.LLMMaxAttempts = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !domain.IsKind(err, domain.ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setRequiredEnv supplies the credentials Validate demands, so tests can
// focus on the field under test.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_CHANNEL", "#research")
	t.Setenv("GEMINI_API_KEY", "gm-test")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "no-such-config.yaml"))
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TimeframeHours != 24 {
		t.Errorf("TimeframeHours: got %d, want 24", cfg.TimeframeHours)
	}
	if cfg.MaxItems != 20 {
		t.Errorf("MaxItems: got %d, want 20", cfg.MaxItems)
	}
	if cfg.MinRelevanceScore != 0.1 {
		t.Errorf("MinRelevanceScore: got %v, want 0.1", cfg.MinRelevanceScore)
	}
	if cfg.Scoring != "embedding" {
		t.Errorf("Scoring: got %q, want embedding", cfg.Scoring)
	}
	if cfg.TopicReduce != "max" {
		t.Errorf("TopicReduce: got %q, want max", cfg.TopicReduce)
	}
	if cfg.BatchSize != 3 {
		t.Errorf("BatchSize: got %d, want 3", cfg.BatchSize)
	}
	if cfg.BatchPause != time.Second {
		t.Errorf("BatchPause: got %v, want 1s", cfg.BatchPause)
	}
	if !cfg.CacheEnabled {
		t.Error("CacheEnabled should default to true")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TIMEFRAME_HOURS", "48")
	t.Setenv("MAX_ITEMS", "5")
	t.Setenv("MIN_RELEVANCE_SCORE", "0.25")
	t.Setenv("SCORING", "keyword")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("BATCH_PAUSE", "500ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TimeframeHours != 48 {
		t.Errorf("TimeframeHours: got %d, want 48", cfg.TimeframeHours)
	}
	if cfg.MaxItems != 5 {
		t.Errorf("MaxItems: got %d, want 5", cfg.MaxItems)
	}
	if cfg.MinRelevanceScore != 0.25 {
		t.Errorf("MinRelevanceScore: got %v, want 0.25", cfg.MinRelevanceScore)
	}
	if cfg.Scoring != "keyword" {
		t.Errorf("Scoring: got %q, want keyword", cfg.Scoring)
	}
	if cfg.CacheEnabled {
		t.Error("CACHE_ENABLED=false should disable caching")
	}
	if cfg.BatchPause != 500*time.Millisecond {
		t.Errorf("BatchPause: got %v, want 500ms", cfg.BatchPause)
	}
}

func TestLoad_YAMLFileThenEnvWins(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `timeframe_hours: 12
max_items: 7
scoring: keyword
llm_models:
  summarization: gemini-1.5-pro
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("MAX_ITEMS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TimeframeHours != 12 {
		t.Errorf("file value should apply: got %d, want 12", cfg.TimeframeHours)
	}
	if cfg.MaxItems != 3 {
		t.Errorf("env must override file: got %d, want 3", cfg.MaxItems)
	}
	if cfg.SummarizationModel != "gemini-1.5-pro" {
		t.Errorf("nested model from file: got %q", cfg.SummarizationModel)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SLACK_BOT_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when SLACK_BOT_TOKEN missing")
	}
}

func TestLoad_EmbeddingScoringRequiresOpenAIKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("embedding scoring without OPENAI_API_KEY should fail validation")
	}
}

func TestLoad_KeywordScoringWithoutOpenAIKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SCORING", "keyword")

	if _, err := Load(); err != nil {
		t.Errorf("keyword scoring should not need OPENAI_API_KEY: %v", err)
	}
}

func TestLoad_InvalidScoring(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCORING", "vibes")

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown scoring mode")
	}
}

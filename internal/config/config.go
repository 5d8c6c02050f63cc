package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Slack settings
	SlackToken   string
	SlackChannel string

	// Model settings
	GeminiAPIKey       string
	OpenAIAPIKey       string
	SummarizationModel string
	DigestModel        string
	EmbeddingModel     string
	EmbeddingsBaseURL  string

	// Curation settings
	TimeframeHours    int
	MaxItems          int
	MinScore          float64 // keyword variant threshold
	MinRelevanceScore float64 // embedding variant threshold, normalized [0,1]
	Scoring           string  // "embedding" or "keyword"
	TopicReduce       string  // "max" or "mean"

	// Input lists
	FeedsPath  string
	TopicsPath string

	// Cache settings
	CacheEnabled       bool
	EmbeddingCachePath string
	PostedCachePath    string

	// Batching for external calls
	BatchSize  int
	BatchPause time.Duration

	// App settings
	Debug          bool
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}

// fileConfig mirrors the optional YAML config file. Pointers distinguish
// "absent" from zero values so file entries only override defaults when set.
type fileConfig struct {
	TimeframeHours    *int     `yaml:"timeframe_hours"`
	MaxItems          *int     `yaml:"max_items"`
	MinScore          *float64 `yaml:"min_score"`
	MinRelevanceScore *float64 `yaml:"min_relevance_score"`
	Scoring           string   `yaml:"scoring"`
	TopicReduce       string   `yaml:"topic_reduce"`
	FeedsPath         string   `yaml:"feeds_path"`
	TopicsPath        string   `yaml:"topics_path"`
	CacheEnabled      *bool    `yaml:"cache_enabled"`
	EmbeddingCache    string   `yaml:"embedding_cache_path"`
	PostedCache       string   `yaml:"posted_cache_path"`
	BatchSize         *int     `yaml:"batch_size"`
	BatchPause        string   `yaml:"batch_pause"`

	LLMModels struct {
		Summarization string `yaml:"summarization"`
		Digest        string `yaml:"digest"`
		Embedding     string `yaml:"embedding"`
	} `yaml:"llm_models"`

	EmbeddingsBaseURL string `yaml:"embeddings_base_url"`
}

// Load builds the configuration: defaults, then the optional YAML file at
// CONFIG_PATH (default config.yaml), then environment variable overrides.
func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		SummarizationModel: "gemini-1.5-flash",
		DigestModel:        "gemini-1.5-flash",
		EmbeddingModel:     "text-embedding-3-small",
		EmbeddingsBaseURL:  "https://api.openai.com/v1",
		TimeframeHours:     24,
		MaxItems:           20,
		MinScore:           1,
		MinRelevanceScore:  0.1,
		Scoring:            "embedding",
		TopicReduce:        "max",
		FeedsPath:          "feeds.txt",
		TopicsPath:         "topics.txt",
		CacheEnabled:       true,
		EmbeddingCachePath: "cache/embeddings.json",
		PostedCachePath:    "cache/posted_articles.json",
		BatchSize:          3,
		BatchPause:         time.Second,
		RequestTimeout:     30 * time.Second,
		RetryAttempts:      3,
		RetryDelay:         2 * time.Second,
	}

	path := getEnvOrDefault("CONFIG_PATH", "config.yaml")
	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	return cfg, cfg.Validate()
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil // config file is optional
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.TimeframeHours != nil {
		c.TimeframeHours = *fc.TimeframeHours
	}
	if fc.MaxItems != nil {
		c.MaxItems = *fc.MaxItems
	}
	if fc.MinScore != nil {
		c.MinScore = *fc.MinScore
	}
	if fc.MinRelevanceScore != nil {
		c.MinRelevanceScore = *fc.MinRelevanceScore
	}
	if fc.Scoring != "" {
		c.Scoring = fc.Scoring
	}
	if fc.TopicReduce != "" {
		c.TopicReduce = fc.TopicReduce
	}
	if fc.FeedsPath != "" {
		c.FeedsPath = fc.FeedsPath
	}
	if fc.TopicsPath != "" {
		c.TopicsPath = fc.TopicsPath
	}
	if fc.CacheEnabled != nil {
		c.CacheEnabled = *fc.CacheEnabled
	}
	if fc.EmbeddingCache != "" {
		c.EmbeddingCachePath = fc.EmbeddingCache
	}
	if fc.PostedCache != "" {
		c.PostedCachePath = fc.PostedCache
	}
	if fc.BatchSize != nil {
		c.BatchSize = *fc.BatchSize
	}
	if fc.BatchPause != "" {
		d, err := time.ParseDuration(fc.BatchPause)
		if err != nil {
			return fmt.Errorf("invalid batch_pause %q: %w", fc.BatchPause, err)
		}
		c.BatchPause = d
	}
	if fc.LLMModels.Summarization != "" {
		c.SummarizationModel = fc.LLMModels.Summarization
	}
	if fc.LLMModels.Digest != "" {
		c.DigestModel = fc.LLMModels.Digest
	}
	if fc.LLMModels.Embedding != "" {
		c.EmbeddingModel = fc.LLMModels.Embedding
	}
	if fc.EmbeddingsBaseURL != "" {
		c.EmbeddingsBaseURL = fc.EmbeddingsBaseURL
	}

	return nil
}

func (c *Config) applyEnv() {
	c.SlackToken = getEnvOrDefault("SLACK_BOT_TOKEN", c.SlackToken)
	c.SlackChannel = getEnvOrDefault("SLACK_CHANNEL", c.SlackChannel)
	c.GeminiAPIKey = getEnvOrDefault("GEMINI_API_KEY", c.GeminiAPIKey)
	c.OpenAIAPIKey = getEnvOrDefault("OPENAI_API_KEY", c.OpenAIAPIKey)

	c.TimeframeHours = getEnvIntOrDefault("TIMEFRAME_HOURS", c.TimeframeHours)
	c.MaxItems = getEnvIntOrDefault("MAX_ITEMS", c.MaxItems)
	c.MinScore = getEnvFloatOrDefault("MIN_SCORE", c.MinScore)
	c.MinRelevanceScore = getEnvFloatOrDefault("MIN_RELEVANCE_SCORE", c.MinRelevanceScore)
	c.Scoring = getEnvOrDefault("SCORING", c.Scoring)
	c.TopicReduce = getEnvOrDefault("TOPIC_REDUCE", c.TopicReduce)

	c.FeedsPath = getEnvOrDefault("FEEDS_PATH", c.FeedsPath)
	c.TopicsPath = getEnvOrDefault("TOPICS_PATH", c.TopicsPath)

	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		c.CacheEnabled = v == "true"
	}
	c.EmbeddingCachePath = getEnvOrDefault("EMBEDDING_CACHE_PATH", c.EmbeddingCachePath)
	c.PostedCachePath = getEnvOrDefault("POSTED_CACHE_PATH", c.PostedCachePath)

	c.BatchSize = getEnvIntOrDefault("BATCH_SIZE", c.BatchSize)
	if v := os.Getenv("BATCH_PAUSE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.BatchPause = d
		}
	}

	c.SummarizationModel = getEnvOrDefault("SUMMARIZATION_MODEL", c.SummarizationModel)
	c.DigestModel = getEnvOrDefault("DIGEST_MODEL", c.DigestModel)
	c.EmbeddingModel = getEnvOrDefault("EMBEDDING_MODEL", c.EmbeddingModel)
	c.EmbeddingsBaseURL = getEnvOrDefault("EMBEDDINGS_BASE_URL", c.EmbeddingsBaseURL)

	if os.Getenv("DEBUG") == "true" {
		c.Debug = true
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.SlackToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if c.SlackChannel == "" {
		return fmt.Errorf("SLACK_CHANNEL is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Scoring != "embedding" && c.Scoring != "keyword" {
		return fmt.Errorf("SCORING must be 'embedding' or 'keyword'")
	}
	if c.Scoring == "embedding" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for embedding scoring")
	}
	if c.TopicReduce != "max" && c.TopicReduce != "mean" {
		return fmt.Errorf("TOPIC_REDUCE must be 'max' or 'mean'")
	}
	if c.TimeframeHours <= 0 {
		return fmt.Errorf("TIMEFRAME_HOURS must be positive")
	}
	if c.MaxItems <= 0 {
		return fmt.Errorf("MAX_ITEMS must be positive")
	}
	return nil
}

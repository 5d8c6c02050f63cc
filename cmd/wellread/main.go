package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/wellread/wellread/internal/app"
	"github.com/wellread/wellread/internal/config"
	"github.com/wellread/wellread/internal/curate"
	"github.com/wellread/wellread/internal/embeddings"
	"github.com/wellread/wellread/internal/feed"
	"github.com/wellread/wellread/internal/logger"
	"github.com/wellread/wellread/internal/metrics"
	"github.com/wellread/wellread/internal/retry"
	"github.com/wellread/wellread/internal/slack"
	"github.com/wellread/wellread/internal/storage"
	"github.com/wellread/wellread/internal/summarizer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger.Init(cfg.Debug)

	// Check if we should start HTTP server for monitoring
	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	ctx := context.Background()

	retryCfg := retry.Config{
		MaxAttempts: cfg.RetryAttempts,
		Delay:       cfg.RetryDelay,
		Backoff:     true,
	}

	var posted app.PostedStore
	if cfg.CacheEnabled {
		posted = storage.NewPostedCache(cfg.PostedCachePath)
	}

	var ranker app.Ranker
	var embedSaver app.Saver
	if cfg.Scoring == "embedding" {
		var cache embeddings.Cache
		if cfg.CacheEnabled {
			embedCache := storage.NewEmbeddingCache(cfg.EmbeddingCachePath)
			if err := embedCache.Load(); err != nil {
				logger.Warn("could not load embedding cache, starting empty", "error", err)
			}
			cache = embedCache
			embedSaver = embedCache
		}
		client := embeddings.NewClient(cfg.EmbeddingsBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.RequestTimeout)
		embedder := embeddings.NewCachedClient(client, cache, retryCfg)
		ranker = curate.NewEmbeddingRanker(embedder, cfg.MinRelevanceScore, cfg.MaxItems, cfg.TopicReduce)
	} else {
		keyword := curate.NewKeywordRanker(cfg.MinScore, cfg.MaxItems)
		ranker = app.RankerFunc(func(_ context.Context, items []feed.Item, topics []string) ([]feed.Item, error) {
			return keyword.Rank(items, topics), nil
		})
	}

	gemini, err := summarizer.NewClient(ctx, cfg.GeminiAPIKey, cfg.SummarizationModel, cfg.DigestModel, retryCfg)
	if err != nil {
		logger.Error("failed to create summarizer", "error", err)
		os.Exit(1)
	}
	defer gemini.Close()

	publisher := slack.NewClient(cfg.SlackToken, cfg.RequestTimeout, retryCfg)
	fetcher := feed.NewFetcher(cfg.BatchSize, cfg.BatchPause)

	pipeline := app.NewPipeline(cfg, fetcher, ranker, gemini, publisher, posted, embedSaver)

	if err := pipeline.Run(ctx); err != nil {
		metrics.Global.SetError(err.Error())
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	log.Printf("Starting monitoring server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("Monitoring server error: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

package curate

import (
	"context"
	"fmt"
	"math"

	"github.com/wellread/wellread/internal/feed"
	"github.com/wellread/wellread/internal/logger"
)

// Embedder produces an embedding vector for a text. The implementation is
// expected to cache aggressively; the ranker calls it once per topic and once
// per candidate item.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Reduction policies for collapsing per-topic similarities into one score.
const (
	ReduceMax  = "max"
	ReduceMean = "mean"
)

// EmbeddingRanker scores items by cosine similarity between the item title
// embedding and each topic embedding.
type EmbeddingRanker struct {
	embedder Embedder
	minScore float64 // normalized similarity threshold in [0,1]
	maxItems int
	reduce   string
}

func NewEmbeddingRanker(embedder Embedder, minScore float64, maxItems int, reduce string) *EmbeddingRanker {
	return &EmbeddingRanker{
		embedder: embedder,
		minScore: minScore,
		maxItems: maxItems,
		reduce:   reduce,
	}
}

// Rank embeds each topic once, then scores every item against the topic set.
// An item whose embedding cannot be computed is excluded rather than aborting
// the run; a topic that fails to embed is skipped the same way. The result is
// sorted descending by score (ties keep feed-fetch order) and truncated to
// maxItems after sorting.
func (r *EmbeddingRanker) Rank(ctx context.Context, items []feed.Item, topics []string) ([]feed.Item, error) {
	var topicVecs [][]float64
	for _, topic := range topics {
		vec, err := r.embedder.Embed(ctx, topic)
		if err != nil {
			logger.Warn("failed to embed topic, skipping", "topic", topic, "error", err)
			continue
		}
		topicVecs = append(topicVecs, vec)
	}
	if len(topicVecs) == 0 {
		return nil, fmt.Errorf("no topic embeddings available (%d topics configured)", len(topics))
	}

	scored := make([]feed.Item, 0, len(items))
	excluded := 0
	for _, item := range items {
		vec, err := r.embedder.Embed(ctx, item.Title)
		if err != nil {
			logger.Warn("failed to embed item, excluding", "title", item.Title, "error", err)
			excluded++
			continue
		}

		similarity := r.reduceSimilarities(vec, topicVecs)
		if similarity < r.minScore {
			continue
		}

		// Store the rescaled [0,100] form for display and digest context.
		item.Score = similarity * 100
		scored = append(scored, item)
	}

	// Thresholding already happened on the normalized similarity.
	top := selectTop(scored, 0, r.maxItems)
	logger.Info("embedding ranking done",
		"candidates", len(items), "excluded", excluded, "selected", len(top))
	return top, nil
}

func (r *EmbeddingRanker) reduceSimilarities(itemVec []float64, topicVecs [][]float64) float64 {
	if r.reduce == ReduceMean {
		sum := 0.0
		for _, tv := range topicVecs {
			sum += CosineSimilarity(itemVec, tv)
		}
		return sum / float64(len(topicVecs))
	}

	best := math.Inf(-1)
	for _, tv := range topicVecs {
		if s := CosineSimilarity(itemVec, tv); s > best {
			best = s
		}
	}
	return best
}

// CosineSimilarity returns the cosine of the angle between two vectors, or 0
// when either vector is empty, zero, or the lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

package curate

import (
	"strings"

	"github.com/wellread/wellread/internal/feed"
	"github.com/wellread/wellread/internal/logger"
)

// KeywordRanker scores items by topic keyword overlap. No external calls.
type KeywordRanker struct {
	minScore float64
	maxItems int
}

func NewKeywordRanker(minScore float64, maxItems int) *KeywordRanker {
	return &KeywordRanker{minScore: minScore, maxItems: maxItems}
}

// Rank scores every item against the topic list and returns the top items in
// descending score order; ties keep feed-fetch order.
func (r *KeywordRanker) Rank(items []feed.Item, topics []string) []feed.Item {
	scored := make([]feed.Item, len(items))
	for i, item := range items {
		item.Score = keywordScore(item, topics)
		scored[i] = item
	}

	top := selectTop(scored, r.minScore, r.maxItems)
	logger.Info("keyword ranking done", "scored", len(scored), "selected", len(top))
	return top
}

// keywordScore sums per-topic contributions over the lowercased title and
// description: +10 for the full topic phrase as substring, +2 for each topic
// word longer than 3 characters. Word contributions are additive even when
// the full phrase already matched.
func keywordScore(item feed.Item, topics []string) float64 {
	text := strings.ToLower(item.Title + " " + item.Description)

	score := 0
	for _, topic := range topics {
		t := strings.ToLower(strings.TrimSpace(topic))
		if t == "" {
			continue
		}

		if strings.Contains(text, t) {
			score += 10
		}
		for _, word := range strings.Fields(t) {
			if len(word) > 3 && strings.Contains(text, word) {
				score += 2
			}
		}
	}
	return float64(score)
}

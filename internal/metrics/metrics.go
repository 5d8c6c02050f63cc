package metrics

import (
	"sync"
	"time"
)

// Metrics collects per-run pipeline counters. The monitoring endpoints in
// cmd/wellread read a snapshot via GetStats.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	FeedsFetched         int64
	FeedsFailed          int64
	ItemsFetched         int64
	ItemsRecent          int64
	DuplicatesFiltered   int64
	AlreadyPosted        int64
	ItemsCurated         int64
	SummariesGenerated   int64
	SummariesFailed      int64
	ItemsPosted          int64
	ItemPostsFailed      int64
	EmbeddingCacheHits   int64
	EmbeddingCacheMisses int64

	// Timings
	LastRunDuration time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddFeedsFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedsFetched += int64(n)
}

func (m *Metrics) IncrementFeedsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedsFailed++
}

func (m *Metrics) AddItemsFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsFetched += int64(n)
}

func (m *Metrics) AddItemsRecent(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsRecent += int64(n)
}

func (m *Metrics) AddDuplicatesFiltered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += int64(n)
}

func (m *Metrics) AddAlreadyPosted(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AlreadyPosted += int64(n)
}

func (m *Metrics) AddItemsCurated(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsCurated += int64(n)
}

func (m *Metrics) IncrementSummariesGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesGenerated++
}

func (m *Metrics) IncrementSummariesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummariesFailed++
}

func (m *Metrics) IncrementItemsPosted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsPosted++
}

func (m *Metrics) IncrementItemPostsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemPostsFailed++
}

func (m *Metrics) IncrementEmbeddingCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmbeddingCacheHits++
}

func (m *Metrics) IncrementEmbeddingCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmbeddingCacheMisses++
}

func (m *Metrics) RecordRunDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunDuration = duration
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"feeds_fetched":          m.FeedsFetched,
		"feeds_failed":           m.FeedsFailed,
		"items_fetched":          m.ItemsFetched,
		"items_recent":           m.ItemsRecent,
		"duplicates_filtered":    m.DuplicatesFiltered,
		"already_posted":         m.AlreadyPosted,
		"items_curated":          m.ItemsCurated,
		"summaries_generated":    m.SummariesGenerated,
		"summaries_failed":       m.SummariesFailed,
		"items_posted":           m.ItemsPosted,
		"item_posts_failed":      m.ItemPostsFailed,
		"embedding_cache_hits":   m.EmbeddingCacheHits,
		"embedding_cache_misses": m.EmbeddingCacheMisses,
		"last_run_duration_ms":   m.LastRunDuration.Milliseconds(),
		"last_run_time":          m.LastRunTime.Format(time.RFC3339),
		"last_error_time":        m.LastErrorTime.Format(time.RFC3339),
		"last_error":             m.LastError,
		"is_healthy":             m.IsHealthy,
	}
}

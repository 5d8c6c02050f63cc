package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// EmbeddingEntry is one stored vector plus the model that produced it.
// Entries are immutable once written.
type EmbeddingEntry struct {
	Model  string    `json:"model"`
	Vector []float64 `json:"vector"`
}

// EmbeddingCache persists computed embedding vectors in a JSON file keyed by
// model name + content hash. The whole map lives in memory between Load and
// Save; writes during the run only touch memory, so a crash mid-run loses new
// entries but never corrupts the file. There is no eviction.
type EmbeddingCache struct {
	filePath string
	entries  map[string]EmbeddingEntry
	mu       sync.RWMutex
}

func NewEmbeddingCache(filePath string) *EmbeddingCache {
	return &EmbeddingCache{
		filePath: filePath,
		entries:  make(map[string]EmbeddingEntry),
	}
}

// CacheKey derives the storage key: the model name concatenated with the
// SHA-256 of the exact text. Any text change invalidates the entry and a
// different model never reuses a vector.
func CacheKey(text, model string) string {
	h := sha256.Sum256([]byte(text))
	return model + ":" + hex.EncodeToString(h[:])
}

// Load reads the cache file into memory. A missing file starts an empty
// cache; any read or decode failure is reported so the caller can degrade to
// recomputation.
func (c *EmbeddingCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read embedding cache: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries map[string]EmbeddingEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode embedding cache: %w", err)
	}
	c.entries = entries
	return nil
}

// Save writes the full map back to disk.
func (c *EmbeddingCache) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal embedding cache: %w", err)
	}

	if dir := filepath.Dir(c.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	if err := os.WriteFile(c.filePath, data, 0644); err != nil {
		return fmt.Errorf("write embedding cache: %w", err)
	}
	return nil
}

func (c *EmbeddingCache) Get(text, model string) ([]float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[CacheKey(text, model)]
	if !ok || entry.Model != model {
		return nil, false
	}
	return entry.Vector, true
}

func (c *EmbeddingCache) Put(text, model string, vector []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := CacheKey(text, model)
	if _, exists := c.entries[key]; exists {
		return // entries are immutable once written
	}
	c.entries[key] = EmbeddingEntry{Model: model, Vector: vector}
}

func (c *EmbeddingCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

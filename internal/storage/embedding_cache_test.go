package storage

import (
	"path/filepath"
	"testing"
)

func TestEmbeddingCache_RoundTrip(t *testing.T) {
	cache := NewEmbeddingCache(filepath.Join(t.TempDir(), "embeddings.json"))

	vec := []float64{0.1, -0.2, 0.3}
	cache.Put("some article title", "text-embedding-3-small", vec)

	got, ok := cache.Get("some article title", "text-embedding-3-small")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != len(vec) {
		t.Fatalf("vector length changed: got %d, want %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("vector[%d]: got %v, want %v", i, got[i], vec[i])
		}
	}
}

func TestEmbeddingCache_DifferentModelMisses(t *testing.T) {
	cache := NewEmbeddingCache(filepath.Join(t.TempDir(), "embeddings.json"))

	cache.Put("same text", "model-a", []float64{1, 2, 3})

	if _, ok := cache.Get("same text", "model-b"); ok {
		t.Error("a different model name must never reuse a stored vector")
	}
}

func TestEmbeddingCache_DifferentTextMisses(t *testing.T) {
	cache := NewEmbeddingCache(filepath.Join(t.TempDir(), "embeddings.json"))

	cache.Put("original text", "model", []float64{1})

	if _, ok := cache.Get("original text ", "model"); ok {
		t.Error("any text change must invalidate the cache")
	}
}

func TestEmbeddingCache_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "embeddings.json")

	cache := NewEmbeddingCache(path)
	cache.Put("persisted", "model", []float64{0.5, 0.25})
	if err := cache.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded := NewEmbeddingCache(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	got, ok := reloaded.Get("persisted", "model")
	if !ok {
		t.Fatal("expected hit after reload")
	}
	if got[0] != 0.5 || got[1] != 0.25 {
		t.Errorf("vector corrupted across save/load: %v", got)
	}
}

func TestEmbeddingCache_LoadMissingFileStartsEmpty(t *testing.T) {
	cache := NewEmbeddingCache(filepath.Join(t.TempDir(), "nope.json"))

	if err := cache.Load(); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cache.Size() != 0 {
		t.Errorf("expected empty cache, got %d entries", cache.Size())
	}
}

func TestEmbeddingCache_EntriesImmutable(t *testing.T) {
	cache := NewEmbeddingCache(filepath.Join(t.TempDir(), "embeddings.json"))

	cache.Put("text", "model", []float64{1})
	cache.Put("text", "model", []float64{2})

	got, _ := cache.Get("text", "model")
	if got[0] != 1 {
		t.Errorf("entry was overwritten: %v", got)
	}
}

func TestCacheKey_IncludesModelAndHash(t *testing.T) {
	a := CacheKey("text", "model-a")
	b := CacheKey("text", "model-b")
	if a == b {
		t.Error("keys for different models must differ")
	}

	c := CacheKey("other text", "model-a")
	if a == c {
		t.Error("keys for different texts must differ")
	}
}

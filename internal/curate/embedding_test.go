package curate

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/wellread/wellread/internal/feed"
)

// fakeEmbedder maps texts to fixed vectors and fails for texts it does not
// know about.
type fakeEmbedder struct {
	vectors map[string][]float64
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.calls++
	vec, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no embedding for %q", text)
	}
	return vec, nil
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0},
		{"length mismatch", []float64{1}, []float64{1, 0}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEmbeddingRanker_MaxReduction(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"ai":        {1, 0},
		"biology":   {0, 1},
		"ai paper":  {1, 0},
		"bio paper": {0.1, 0.9},
	}}

	ranker := NewEmbeddingRanker(embedder, 0.5, 20, ReduceMax)
	items := []feed.Item{
		{Title: "ai paper", Link: "a"},
		{Title: "bio paper", Link: "b"},
	}

	top, err := ranker.Rank(context.Background(), items, []string{"ai", "biology"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(top) != 2 {
		t.Fatalf("expected 2 items, got %d", len(top))
	}
	// "ai paper" matches "ai" exactly: similarity 1, score 100.
	if top[0].Link != "a" || math.Abs(top[0].Score-100) > 1e-6 {
		t.Errorf("expected 'a' first with score 100, got %q score %v", top[0].Link, top[0].Score)
	}
	if top[1].Link != "b" {
		t.Errorf("expected 'b' second, got %q", top[1].Link)
	}
}

func TestEmbeddingRanker_MeanReduction(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"topic one": {1, 0},
		"topic two": {0, 1},
		"item":      {1, 0},
	}}

	ranker := NewEmbeddingRanker(embedder, 0, 20, ReduceMean)
	items := []feed.Item{{Title: "item", Link: "a"}}

	top, err := ranker.Rank(context.Background(), items, []string{"topic one", "topic two"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("expected 1 item, got %d", len(top))
	}
	// Mean of similarity 1 and 0, rescaled to [0,100].
	if math.Abs(top[0].Score-50) > 1e-6 {
		t.Errorf("expected mean score 50, got %v", top[0].Score)
	}
}

func TestEmbeddingRanker_FailedItemExcluded(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"ai":       {1, 0},
		"ai paper": {1, 0},
		// "broken item" intentionally missing
	}}

	ranker := NewEmbeddingRanker(embedder, 0.1, 20, ReduceMax)
	items := []feed.Item{
		{Title: "broken item", Link: "x"},
		{Title: "ai paper", Link: "a"},
	}

	top, err := ranker.Rank(context.Background(), items, []string{"ai"})
	if err != nil {
		t.Fatalf("a single failed item must not abort the run: %v", err)
	}
	if len(top) != 1 || top[0].Link != "a" {
		t.Errorf("expected only the embeddable item, got %+v", top)
	}
}

func TestEmbeddingRanker_NoTopicVectorsIsError(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{}}
	ranker := NewEmbeddingRanker(embedder, 0.1, 20, ReduceMax)

	_, err := ranker.Rank(context.Background(), []feed.Item{{Title: "x"}}, []string{"unknown topic"})
	if err == nil {
		t.Fatal("expected error when no topic embedding can be computed")
	}
}

func TestEmbeddingRanker_BelowThresholdDropped(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"ai":        {1, 0},
		"unrelated": {0, 1},
	}}

	ranker := NewEmbeddingRanker(embedder, 0.1, 20, ReduceMax)
	top, err := ranker.Rank(context.Background(), []feed.Item{{Title: "unrelated", Link: "u"}}, []string{"ai"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top) != 0 {
		t.Errorf("expected orthogonal item dropped, got %+v", top)
	}
}

func TestEmbeddingRanker_TruncatesToMaxItems(t *testing.T) {
	vectors := map[string][]float64{"topic": {1, 0}}
	var items []feed.Item
	for i := 0; i < 30; i++ {
		title := fmt.Sprintf("item-%02d", i)
		// All items lean toward the topic with slightly different strength.
		vectors[title] = []float64{1, float64(i) * 0.01}
		items = append(items, feed.Item{Title: title, Link: title})
	}

	ranker := NewEmbeddingRanker(&fakeEmbedder{vectors: vectors}, 0.1, 20, ReduceMax)
	top, err := ranker.Rank(context.Background(), items, []string{"topic"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top) != 20 {
		t.Fatalf("expected truncation to 20, got %d", len(top))
	}
	for i := 1; i < len(top); i++ {
		if top[i].Score > top[i-1].Score {
			t.Fatalf("not sorted descending at %d", i)
		}
	}
}

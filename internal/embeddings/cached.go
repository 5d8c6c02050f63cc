package embeddings

import (
	"context"

	"github.com/wellread/wellread/internal/metrics"
	"github.com/wellread/wellread/internal/retry"
)

// Cache is the vector store consulted before any network call. Keys carry the
// model name, so a model change always misses.
type Cache interface {
	Get(text, model string) ([]float64, bool)
	Put(text, model string, vector []float64)
}

// CachedClient is a read-through wrapper around Client: cache hit avoids the
// API call entirely, a miss computes the vector with retries and stores it.
type CachedClient struct {
	client *Client
	cache  Cache
	retry  retry.Config
}

func NewCachedClient(client *Client, cache Cache, retryCfg retry.Config) *CachedClient {
	return &CachedClient{
		client: client,
		cache:  cache,
		retry:  retryCfg,
	}
}

func (c *CachedClient) Embed(ctx context.Context, text string) ([]float64, error) {
	model := c.client.Model()

	if c.cache != nil {
		if vec, ok := c.cache.Get(text, model); ok {
			metrics.Global.IncrementEmbeddingCacheHit()
			return vec, nil
		}
	}
	metrics.Global.IncrementEmbeddingCacheMiss()

	var vec []float64
	err := retry.Do(ctx, c.retry, func() error {
		var embedErr error
		vec, embedErr = c.client.Embed(ctx, text)
		return embedErr
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Put(text, model, vec)
	}
	return vec, nil
}

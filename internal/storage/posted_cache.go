package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// postedFile is the on-disk shape: a sorted list of links plus when the file
// was last flushed. Kept flat so the file diffs cleanly between runs.
type postedFile struct {
	PostedURLs  []string  `json:"posted_urls"`
	LastUpdated time.Time `json:"last_updated"`
}

// PostedCache records the set of article links already delivered, to prevent
// re-delivery across runs. The set is loaded fully at run start, appended to
// after each successful publish and flushed once at run end.
type PostedCache struct {
	filePath string
	urls     map[string]struct{}
	mu       sync.RWMutex
}

func NewPostedCache(filePath string) *PostedCache {
	return &PostedCache{
		filePath: filePath,
		urls:     make(map[string]struct{}),
	}
}

// Load reads the posted set from disk. A missing file starts empty.
func (c *PostedCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read posted cache: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var pf postedFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("decode posted cache: %w", err)
	}
	for _, url := range pf.PostedURLs {
		c.urls[url] = struct{}{}
	}
	return nil
}

func (c *PostedCache) Contains(link string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.urls[link]
	return ok
}

// Add records a link as delivered. Adding the same link twice is a no-op.
func (c *PostedCache) Add(link string) {
	if link == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls[link] = struct{}{}
}

// Flush persists the full set to disk.
func (c *PostedCache) Flush() error {
	c.mu.RLock()
	urls := make([]string, 0, len(c.urls))
	for url := range c.urls {
		urls = append(urls, url)
	}
	c.mu.RUnlock()
	sort.Strings(urls)

	data, err := json.MarshalIndent(postedFile{
		PostedURLs:  urls,
		LastUpdated: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal posted cache: %w", err)
	}

	if dir := filepath.Dir(c.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	if err := os.WriteFile(c.filePath, data, 0644); err != nil {
		return fmt.Errorf("write posted cache: %w", err)
	}
	return nil
}

func (c *PostedCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.urls)
}

package feed

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/wellread/wellread/internal/batch"
	"github.com/wellread/wellread/internal/logger"
	"github.com/wellread/wellread/internal/metrics"
)

// Item is one normalized piece of content from a feed. Link is the
// deduplication key; PublishedAt is nil when the feed gave no parseable date.
type Item struct {
	Title       string
	Link        string
	PublishedAt *time.Time
	Author      string
	Description string
	Content     string
	SourceName  string

	// Filled in by later pipeline stages.
	Score   float64
	Summary string
}

// LoadList reads a line-oriented list file: one entry per line, blank lines
// and lines starting with '#' are ignored. Used for both feeds.txt and
// topics.txt.
func LoadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	return entries, scanner.Err()
}

type Fetcher struct {
	parser    *gofeed.Parser
	batchSize int
	pause     time.Duration
}

func NewFetcher(batchSize int, pause time.Duration) *Fetcher {
	return &Fetcher{
		parser:    gofeed.NewParser(),
		batchSize: batchSize,
		pause:     pause,
	}
}

// FetchAll downloads and parses all feeds in bounded concurrent batches.
// A feed that fails to fetch or parse is logged and skipped; its items are
// simply absent from the result. Items keep feed-list order so downstream
// tie-breaking is deterministic.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Item {
	perFeed := make([][]Item, len(urls))
	var mu sync.Mutex
	successCount := 0

	_ = batch.Process(ctx, len(urls), f.batchSize, f.pause, func(i int) {
		feed, err := f.parser.ParseURLWithContext(urls[i], ctx)
		if err != nil {
			logger.Warn("failed to fetch feed", "url", urls[i], "error", err)
			metrics.Global.IncrementFeedsFailed()
			return
		}

		items := make([]Item, 0, len(feed.Items))
		for _, entry := range feed.Items {
			items = append(items, normalize(entry, feed.Title))
		}

		mu.Lock()
		perFeed[i] = items
		successCount++
		mu.Unlock()

		logger.Debug("fetched feed", "url", urls[i], "items", len(items))
	})

	var all []Item
	for _, items := range perFeed {
		all = append(all, items...)
	}

	metrics.Global.AddFeedsFetched(successCount)
	metrics.Global.AddItemsFetched(len(all))
	logger.Info("fetched feeds", "ok", successCount, "total", len(urls), "items", len(all))
	return all
}

func normalize(entry *gofeed.Item, feedTitle string) Item {
	item := Item{
		Title:       strings.TrimSpace(entry.Title),
		Link:        entry.Link,
		Description: StripHTML(entry.Description),
		Content:     StripHTML(entry.Content),
		SourceName:  feedTitle,
	}

	if entry.PublishedParsed != nil {
		item.PublishedAt = entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		item.PublishedAt = entry.UpdatedParsed
	}

	if entry.Author != nil {
		item.Author = entry.Author.Name
	} else if entry.DublinCoreExt != nil && len(entry.DublinCoreExt.Creator) > 0 {
		item.Author = entry.DublinCoreExt.Creator[0]
	}

	return item
}

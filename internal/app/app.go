// Package app wires the curation pipeline together and runs one batch
// invocation end to end.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wellread/wellread/internal/batch"
	"github.com/wellread/wellread/internal/config"
	"github.com/wellread/wellread/internal/curate"
	"github.com/wellread/wellread/internal/feed"
	"github.com/wellread/wellread/internal/logger"
	"github.com/wellread/wellread/internal/metrics"
)

// Summarizer produces per-item summaries and the digest-level overview.
type Summarizer interface {
	Summarize(ctx context.Context, item feed.Item, topics []string) (string, error)
	SummarizeDigest(ctx context.Context, items []feed.Item, topics []string) (string, error)
}

// Publisher delivers the digest and its per-item threads to the chat
// destination.
type Publisher interface {
	PostDigest(ctx context.Context, channel, digest string, itemCount int) (string, error)
	PostItem(ctx context.Context, channel, threadTS string, item feed.Item, index, total int) error
}

// Fetcher ingests all configured feeds into normalized items.
type Fetcher interface {
	FetchAll(ctx context.Context, urls []string) []feed.Item
}

// Ranker scores candidates against the topic set and selects the top items.
type Ranker interface {
	Rank(ctx context.Context, items []feed.Item, topics []string) ([]feed.Item, error)
}

// RankerFunc adapts a plain function to the Ranker interface.
type RankerFunc func(ctx context.Context, items []feed.Item, topics []string) ([]feed.Item, error)

func (f RankerFunc) Rank(ctx context.Context, items []feed.Item, topics []string) ([]feed.Item, error) {
	return f(ctx, items, topics)
}

// PostedStore is the posted-article cache consulted by dedup and appended to
// after each successful publish.
type PostedStore interface {
	Load() error
	Contains(link string) bool
	Add(link string)
	Flush() error
	Size() int
}

// Saver is a cache persisted once at run end (the embedding cache).
type Saver interface {
	Save() error
}

type Pipeline struct {
	cfg        *config.Config
	fetcher    Fetcher
	ranker     Ranker
	summarizer Summarizer
	publisher  Publisher
	posted     PostedStore
	embedCache Saver // nil in keyword mode or when caching is disabled
}

func NewPipeline(cfg *config.Config, fetcher Fetcher, ranker Ranker, summarizer Summarizer, publisher Publisher, posted PostedStore, embedCache Saver) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		fetcher:    fetcher,
		ranker:     ranker,
		summarizer: summarizer,
		publisher:  publisher,
		posted:     posted,
		embedCache: embedCache,
	}
}

// Run executes one full pipeline invocation. A nil return covers both a
// successful digest and the "nothing new to report" outcome; errors are
// run-level failures the caller should exit non-zero on.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.Global.RecordRunDuration(time.Since(start))
	}()

	feeds, err := feed.LoadList(p.cfg.FeedsPath)
	if err != nil {
		return fmt.Errorf("load feeds list: %w", err)
	}
	topics, err := feed.LoadList(p.cfg.TopicsPath)
	if err != nil {
		return fmt.Errorf("load topics list: %w", err)
	}
	if len(feeds) == 0 {
		return fmt.Errorf("no feeds configured in %s", p.cfg.FeedsPath)
	}
	if len(topics) == 0 {
		return fmt.Errorf("no topics configured in %s", p.cfg.TopicsPath)
	}
	logger.Info("loaded inputs", "feeds", len(feeds), "topics", len(topics))

	if p.posted != nil {
		// Cache read failures degrade to an empty cache, not a dead run.
		if err := p.posted.Load(); err != nil {
			logger.Warn("could not load posted cache, starting empty", "error", err)
		}
	}

	items := p.fetcher.FetchAll(ctx, feeds)

	window := time.Duration(p.cfg.TimeframeHours) * time.Hour
	recent := curate.FilterRecent(items, window, time.Now())
	metrics.Global.AddItemsRecent(len(recent))
	logger.Info("time filter done", "fetched", len(items), "recent", len(recent), "window_hours", p.cfg.TimeframeHours)

	if len(recent) == 0 {
		logger.Info("no new items to report")
		metrics.Global.SetLastRun()
		return nil
	}

	unique, duplicates, alreadyPosted := curate.Deduplicate(recent, p.posted)
	metrics.Global.AddDuplicatesFiltered(duplicates)
	metrics.Global.AddAlreadyPosted(alreadyPosted)
	logger.Info("dedup done", "unique", len(unique), "duplicates", duplicates, "already_posted", alreadyPosted)

	curated, err := p.ranker.Rank(ctx, unique, topics)
	if err != nil {
		return fmt.Errorf("rank items: %w", err)
	}
	metrics.Global.AddItemsCurated(len(curated))

	if len(curated) == 0 {
		logger.Info("no relevant items found")
		p.saveCaches()
		metrics.Global.SetLastRun()
		return nil
	}

	p.summarizeAll(ctx, curated, topics)

	digest, err := p.summarizer.SummarizeDigest(ctx, curated, topics)
	if err != nil {
		logger.Warn("digest summary failed, using fallback", "error", err)
		digest = fmt.Sprintf("Curated %d items matching your topics today.", len(curated))
	}

	if err := p.publish(ctx, digest, curated); err != nil {
		p.saveCaches()
		return err
	}

	p.saveCaches()
	metrics.Global.SetLastRun()
	logger.Info("run complete",
		"fetched", len(items),
		"recent", len(recent),
		"curated", len(curated),
		"posted", metrics.Global.GetStats()["items_posted"],
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// summarizeAll fills in item summaries in bounded concurrent batches. A
// failed summary call gets a fallback built from the item's own text.
func (p *Pipeline) summarizeAll(ctx context.Context, items []feed.Item, topics []string) {
	_ = batch.Process(ctx, len(items), p.cfg.BatchSize, p.cfg.BatchPause, func(i int) {
		summary, err := p.summarizer.Summarize(ctx, items[i], topics)
		if err != nil {
			logger.Warn("summary failed, using fallback", "title", items[i].Title, "error", err)
			metrics.Global.IncrementSummariesFailed()
			items[i].Summary = fallbackSummary(items[i])
			return
		}
		items[i].Summary = summary
		metrics.Global.IncrementSummariesGenerated()
	})
}

// publish posts the digest, then each item threaded under it. Digest failure
// is fatal for the run; a failed item post is logged and skipped, and only
// successfully posted items are recorded in the posted cache.
func (p *Pipeline) publish(ctx context.Context, digest string, items []feed.Item) error {
	threadTS, err := p.publisher.PostDigest(ctx, p.cfg.SlackChannel, digest, len(items))
	if err != nil {
		return fmt.Errorf("post digest: %w", err)
	}

	for i, item := range items {
		if err := p.publisher.PostItem(ctx, p.cfg.SlackChannel, threadTS, item, i+1, len(items)); err != nil {
			logger.Warn("failed to post item, skipping", "title", item.Title, "error", err)
			metrics.Global.IncrementItemPostsFailed()
			continue
		}
		metrics.Global.IncrementItemsPosted()
		if p.posted != nil {
			p.posted.Add(item.Link)
		}
	}
	return nil
}

func (p *Pipeline) saveCaches() {
	if p.posted != nil {
		if err := p.posted.Flush(); err != nil {
			logger.Warn("could not flush posted cache", "error", err)
		}
	}
	if p.embedCache != nil {
		if err := p.embedCache.Save(); err != nil {
			logger.Warn("could not save embedding cache", "error", err)
		}
	}
}

// fallbackSummary builds a placeholder from the item's own text when the
// summarizer is unavailable.
func fallbackSummary(item feed.Item) string {
	content := strings.TrimSpace(item.Description)
	if content == "" {
		content = strings.TrimSpace(item.Content)
	}
	if content == "" {
		return "(summary unavailable)"
	}

	var picked []string
	for _, sentence := range strings.Split(content, ".") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 25 {
			continue
		}
		picked = append(picked, sentence)
		if len(picked) >= 2 {
			break
		}
	}
	if len(picked) == 0 {
		if len(content) > 160 {
			return content[:160] + "..."
		}
		return content
	}
	return strings.Join(picked, ". ") + "."
}

// Package curate turns the raw feed item stream into a deduplicated,
// time-filtered, relevance-ranked candidate set.
package curate

import (
	"sort"
	"time"

	"github.com/wellread/wellread/internal/feed"
)

// PostedChecker reports whether a link was already delivered in a prior run.
type PostedChecker interface {
	Contains(link string) bool
}

// FilterRecent returns the items published strictly after now-window. Items
// without a parseable publish date are treated as not recent and dropped.
func FilterRecent(items []feed.Item, window time.Duration, now time.Time) []feed.Item {
	cutoff := now.Add(-window)

	var recent []feed.Item
	for _, item := range items {
		if item.PublishedAt == nil {
			continue
		}
		if item.PublishedAt.After(cutoff) {
			recent = append(recent, item)
		}
	}
	return recent
}

// Deduplicate removes repeated links within the run (first occurrence wins,
// order preserved) and items whose link is already in the posted cache.
// Items without a link are kept as-is. Returns the surviving items plus the
// removed-as-duplicate and removed-as-already-posted counts.
func Deduplicate(items []feed.Item, posted PostedChecker) (unique []feed.Item, duplicates, alreadyPosted int) {
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		if item.Link != "" {
			if _, dup := seen[item.Link]; dup {
				duplicates++
				continue
			}
			seen[item.Link] = struct{}{}

			if posted != nil && posted.Contains(item.Link) {
				alreadyPosted++
				continue
			}
		}
		unique = append(unique, item)
	}
	return unique, duplicates, alreadyPosted
}

// selectTop drops items scoring below minScore, sorts the survivors by score
// descending (stable, so ties keep feed-fetch order) and truncates to
// maxItems. Truncation happens after sorting so the highest-relevance items
// always survive.
func selectTop(items []feed.Item, minScore float64, maxItems int) []feed.Item {
	var qualified []feed.Item
	for _, item := range items {
		if item.Score >= minScore {
			qualified = append(qualified, item)
		}
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].Score > qualified[j].Score
	})

	if maxItems > 0 && len(qualified) > maxItems {
		qualified = qualified[:maxItems]
	}
	return qualified
}

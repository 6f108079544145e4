package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/sancwatch/sancwatch/internal/config"
	"github.com/sancwatch/sancwatch/internal/types"
)

// collectFeed fetches one feed and normalizes its first entries.
func (c *Collector) collectFeed(ctx context.Context, feed config.Feed, window time.Duration) ([]types.NewsItem, error) {
	parsed, err := c.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", feed.Name, err)
	}

	entries := parsed.Items
	if len(entries) > c.entriesPerFeed {
		entries = entries[:c.entriesPerFeed]
	}

	now := c.now()
	var items []types.NewsItem
	for _, entry := range entries {
		item, ok := c.normalizeEntry(entry, feed.Name, now, window)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// normalizeEntry converts a raw feed entry into a NewsItem. Entries with no
// resolvable timestamp, or published outside the window, are dropped.
func (c *Collector) normalizeEntry(entry *gofeed.Item, source string, now time.Time, window time.Duration) (types.NewsItem, bool) {
	published := entryTimestamp(entry)
	if published == nil {
		return types.NewsItem{}, false
	}
	if now.Sub(*published) > window {
		return types.NewsItem{}, false
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		return types.NewsItem{}, false
	}

	return types.NewsItem{
		Source:    source,
		Title:     title,
		Link:      entry.Link,
		Published: *published,
		Summary:   strings.TrimSpace(entry.Description),
	}, true
}

// entryTimestamp resolves the published time, falling back to the updated
// time when the feed omits it.
func entryTimestamp(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed
	}
	return nil
}

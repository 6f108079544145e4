// Package collector fetches raw items from the configured sources and
// normalizes them into NewsItems within the collection window.
package collector

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sancwatch/sancwatch/internal/config"
	"github.com/sancwatch/sancwatch/internal/types"
)

// fetchTimeout bounds every feed and scrape call; a stalled source fails
// its own fetch without holding up the rest of the collection.
const fetchTimeout = 15 * time.Second

// Collector fetches from all configured sources. Each source is isolated:
// a failing source contributes nothing and never aborts the others.
type Collector struct {
	feeds          []config.Feed
	scrapeName     string
	scrapeURL      string
	scrapeBase     string
	entriesPerFeed int

	parser *gofeed.Parser
	client *http.Client
	log    zerolog.Logger
	now    func() time.Time
}

// New creates a Collector for the configured sources.
func New(cfg config.SourcesConfig, log zerolog.Logger) *Collector {
	client := &http.Client{Timeout: fetchTimeout}
	parser := gofeed.NewParser()
	parser.Client = client

	return &Collector{
		feeds:          cfg.Feeds,
		scrapeName:     cfg.ScrapeName,
		scrapeURL:      cfg.ScrapeURL,
		scrapeBase:     cfg.ScrapeBaseURL,
		entriesPerFeed: cfg.EntriesPerFeed,
		parser:         parser,
		client:         client,
		log:            log.With().Str("component", "collector").Logger(),
		now:            time.Now,
	}
}

// Collect fetches all sources concurrently and returns the normalized items
// published within the window, concatenated in source-declaration order
// with the scraped source last. Per-source failures are logged and skipped.
func (c *Collector) Collect(ctx context.Context, window time.Duration) []types.NewsItem {
	numSources := len(c.feeds)
	if c.scrapeURL != "" {
		numSources++
	}

	results := make([][]types.NewsItem, numSources)

	g, ctx := errgroup.WithContext(ctx)

	for i, feed := range c.feeds {
		i, feed := i, feed
		g.Go(func() error {
			items, err := c.collectFeed(ctx, feed, window)
			if err != nil {
				c.log.Warn().Err(err).Str("source", feed.Name).Msg("feed fetch failed")
				return nil
			}
			results[i] = items
			return nil
		})
	}

	if c.scrapeURL != "" {
		g.Go(func() error {
			items, err := c.collectScrape(ctx)
			if err != nil {
				c.log.Warn().Err(err).Str("source", c.scrapeName).Msg("scrape failed")
				return nil
			}
			results[numSources-1] = items
			return nil
		})
	}

	// Goroutines swallow their own errors, so Wait never reports one.
	_ = g.Wait()

	var all []types.NewsItem
	for _, items := range results {
		all = append(all, items...)
	}
	return all
}

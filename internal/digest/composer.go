// Package digest composes the daily digest from the cache, the collector,
// and the summarization backend.
package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sancwatch/sancwatch/internal/store"
	"github.com/sancwatch/sancwatch/internal/summarize"
	"github.com/sancwatch/sancwatch/internal/types"
)

// Fallback is the canonical text returned and cached when nothing was
// published in the window. Recipients see this, never the raw backend
// sentinel.
const Fallback = "No new sanctions were published in the last 24 hours."

// Collector yields the normalized items published within the window.
type Collector interface {
	Collect(ctx context.Context, window time.Duration) []types.NewsItem
}

// Composer decides per calendar day whether a fresh digest is required and
// assembles it. It carries no state between invocations besides the store.
type Composer struct {
	store      *store.Store
	collector  Collector
	summarizer summarize.Summarizer

	window        time.Duration
	retentionDays int
	rollupDay     time.Weekday
	loc           *time.Location

	log zerolog.Logger
	now func() time.Time
}

// New creates a Composer.
func New(st *store.Store, col Collector, sum summarize.Summarizer, window time.Duration, retentionDays int, rollupDay time.Weekday, loc *time.Location, log zerolog.Logger) *Composer {
	return &Composer{
		store:         st,
		collector:     col,
		summarizer:    sum,
		window:        window,
		retentionDays: retentionDays,
		rollupDay:     rollupDay,
		loc:           loc,
		log:           log.With().Str("component", "digest").Logger(),
		now:           time.Now,
	}
}

// ComposeToday returns today's digest. A cache hit returns immediately
// without collecting or summarizing. On the rollup weekday the result is
// the weekly rollup; only the fresh portion is ever cached, so a rollup-day
// cache hit still concatenates the trailing week with the cached fresh
// section from cache reads alone.
func (c *Composer) ComposeToday(ctx context.Context) (string, error) {
	now := c.now().In(c.loc)
	today := store.Day(now)

	content, ok, err := c.store.GetDay(today)
	if err != nil {
		return "", fmt.Errorf("reading cache for %s: %w", today, err)
	}

	if now.Weekday() == c.rollupDay {
		return c.composeRollup(ctx, now, content, ok)
	}

	if ok {
		c.log.Debug().Str("day", today).Msg("cache hit")
		return content, nil
	}

	fresh, err := c.composeFresh(ctx)
	if err != nil {
		return "", err
	}

	if err := c.cacheAndPrune(today, fresh, now); err != nil {
		return "", err
	}
	return fresh, nil
}

// composeFresh collects the last window of items and summarizes them. The
// backend sentinel and an empty collection both yield the canonical
// fallback.
func (c *Composer) composeFresh(ctx context.Context) (string, error) {
	items := c.collector.Collect(ctx, c.window)
	if len(items) == 0 {
		c.log.Info().Msg("no items in window")
		return Fallback, nil
	}

	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = item.Line()
	}

	summary, err := c.summarizer.Summarize(ctx, strings.Join(lines, "\n"))
	if err != nil {
		return "", fmt.Errorf("summarizing %d items: %w", len(items), err)
	}

	if strings.Contains(summary, summarize.Sentinel) {
		return Fallback, nil
	}
	return strings.TrimSpace(summary), nil
}

// composeRollup concatenates the trailing week of cached entries verbatim
// with a last-24h section: the one already cached under today when hit is
// true, a freshly summarized one otherwise. Historical entries are never
// re-summarized, and only the fresh section is cached under today.
func (c *Composer) composeRollup(ctx context.Context, now time.Time, cached string, hit bool) (string, error) {
	from := store.Day(now.AddDate(0, 0, -c.retentionDays))
	to := store.Day(now.AddDate(0, 0, -1))
	history, err := c.store.GetDaysBetween(from, to)
	if err != nil {
		return "", fmt.Errorf("reading rollup history: %w", err)
	}

	fresh := cached
	if !hit {
		fresh, err = c.composeFresh(ctx)
		if err != nil {
			return "", err
		}
		if err := c.cacheAndPrune(store.Day(now), fresh, now); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	b.WriteString("Weekly sanctions rollup\n")
	for _, entry := range history {
		b.WriteString("\n")
		b.WriteString(entry.Day)
		b.WriteString(":\n")
		b.WriteString(entry.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nLast 24 hours:\n")
	b.WriteString(fresh)

	return b.String(), nil
}

func (c *Composer) cacheAndPrune(day, content string, now time.Time) error {
	if err := c.store.PutDay(day, content); err != nil {
		return fmt.Errorf("caching digest for %s: %w", day, err)
	}
	cutoff := store.Day(now.AddDate(0, 0, -c.retentionDays))
	if err := c.store.PruneBefore(cutoff); err != nil {
		return fmt.Errorf("pruning cache: %w", err)
	}
	return nil
}

package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sancwatch/sancwatch/internal/types"
)

// The listing endpoint rejects default Go clients, so the scrape presents a
// browser-like User-Agent.
const scrapeUserAgent = "Mozilla/5.0"

const scrapeDateParam = "ra-start-date"

// Layouts seen on the listing pages.
var scrapeDateLayouts = []string{"01/02/2006", "January 2, 2006"}

// collectScrape queries the listing endpoint filtered server-side to since
// yesterday and extracts one item per result block. Blocks without a title
// anchor are skipped.
func (c *Collector) collectScrape(ctx context.Context) ([]types.NewsItem, error) {
	now := c.now()
	yesterday := now.AddDate(0, 0, -1).Format("01/02/2006")

	u, err := url.Parse(c.scrapeURL)
	if err != nil {
		return nil, fmt.Errorf("parsing scrape url: %w", err)
	}
	q := u.Query()
	q.Set(scrapeDateParam, yesterday)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", scrapeUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", c.scrapeName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", c.scrapeName, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s listing: %w", c.scrapeName, err)
	}

	var items []types.NewsItem
	doc.Find(".views-row").Each(func(_ int, block *goquery.Selection) {
		anchor := block.Find("a").First()
		title := strings.TrimSpace(anchor.Text())
		href, hasHref := anchor.Attr("href")
		if title == "" || !hasHref {
			return
		}

		published := now
		dateText := strings.TrimSpace(block.Find("span.date-display-single").First().Text())
		if d, ok := parseScrapeDate(dateText); ok {
			published = d
		}

		items = append(items, types.NewsItem{
			Source:    c.scrapeName,
			Title:     title,
			Link:      c.resolveLink(href),
			Published: published,
		})
	})

	return items, nil
}

func (c *Collector) resolveLink(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return c.scrapeBase + href
}

func parseScrapeDate(text string) (time.Time, bool) {
	for _, layout := range scrapeDateLayouts {
		if d, err := time.Parse(layout, text); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

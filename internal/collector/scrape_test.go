package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sancwatch/sancwatch/internal/config"
)

const listingBody = `<html><body>
<div class="views-row">
  <a href="/recent-actions/20260301">Sanctions List Update</a>
  <span class="date-display-single">03/01/2026</span>
</div>
<div class="views-row">
  <span class="date-display-single">03/01/2026</span>
</div>
<div class="views-row">
  <a href="https://example.org/external">Settlement Agreement</a>
</div>
</body></html>`

func TestCollectScrape(t *testing.T) {
	var gotStartDate string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStartDate = r.URL.Query().Get(scrapeDateParam)
		fmt.Fprint(w, listingBody)
	}))
	t.Cleanup(srv.Close)

	c := newTestCollector(config.SourcesConfig{
		ScrapeName:    "OFAC",
		ScrapeURL:     srv.URL,
		ScrapeBaseURL: "https://ofac.example.gov",
	})

	items := c.Collect(context.Background(), 24*time.Hour)
	require.Len(t, items, 2)

	// Server-side filter is parameterized to since yesterday.
	yesterday := time.Now().AddDate(0, 0, -1).Format("01/02/2006")
	assert.Equal(t, yesterday, gotStartDate)

	assert.Equal(t, "Sanctions List Update", items[0].Title)
	assert.Equal(t, "https://ofac.example.gov/recent-actions/20260301", items[0].Link)
	assert.Equal(t, "OFAC", items[0].Source)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), items[0].Published)

	// Absolute links pass through untouched.
	assert.Equal(t, "https://example.org/external", items[1].Link)
}

func TestCollectScrapeBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	c := newTestCollector(config.SourcesConfig{
		ScrapeName: "OFAC",
		ScrapeURL:  srv.URL,
	})

	items := c.Collect(context.Background(), 24*time.Hour)
	assert.Empty(t, items)
}

func TestCollectScrapeSendsBrowserUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, listingBody)
	}))
	t.Cleanup(srv.Close)

	c := newTestCollector(config.SourcesConfig{ScrapeName: "OFAC", ScrapeURL: srv.URL})
	c.Collect(context.Background(), 24*time.Hour)

	assert.Equal(t, scrapeUserAgent, gotUA)
}

func TestParseScrapeDate(t *testing.T) {
	d, ok := parseScrapeDate("03/01/2026")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), d)

	d, ok = parseScrapeDate("March 1, 2026")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), d)

	_, ok = parseScrapeDate("not a date")
	assert.False(t, ok)
}

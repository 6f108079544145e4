package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration
type Config struct {
	Version    int              `toml:"version"`
	Sources    SourcesConfig    `toml:"sources"`
	Digest     DigestConfig     `toml:"digest"`
	Summarizer SummarizerConfig `toml:"summarizer"`

	// Secrets, populated from the environment rather than the config file.
	TelegramToken    string `toml:"-"`
	PerplexityAPIKey string `toml:"-"`
}

// Feed is a single feed-protocol source.
type Feed struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

type SourcesConfig struct {
	Feeds []Feed `toml:"feeds"`

	// Scrape is the HTML-scraped listing source. Empty URL disables it.
	ScrapeName    string `toml:"scrape_name"`
	ScrapeURL     string `toml:"scrape_url"`
	ScrapeBaseURL string `toml:"scrape_base_url"`

	EntriesPerFeed int `toml:"entries_per_feed"`
	WindowHours    int `toml:"window_hours"`
}

type DigestConfig struct {
	BroadcastTime string `toml:"broadcast_time"` // "HH:MM" local
	Timezone      string `toml:"timezone"`
	RollupWeekday string `toml:"rollup_weekday"`
	RetentionDays int    `toml:"retention_days"`
}

type SummarizerConfig struct {
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Sources: SourcesConfig{
			Feeds: []Feed{
				{Name: "GOV.UK", URL: "https://www.gov.uk/government/organisations/foreign-commonwealth-development-office.atom"},
				{Name: "EU", URL: "https://ec.europa.eu/commission/presscorner/api/rss"},
			},
			ScrapeName:     "OFAC",
			ScrapeURL:      "https://ofac.treasury.gov/recent-actions",
			ScrapeBaseURL:  "https://ofac.treasury.gov",
			EntriesPerFeed: 15,
			WindowHours:    24,
		},
		Digest: DigestConfig{
			BroadcastTime: "09:00",
			Timezone:      "Europe/Brussels",
			RollupWeekday: "Sunday",
			RetentionDays: 7,
		},
		Summarizer: SummarizerConfig{
			Model:          "sonar-pro",
			TimeoutSeconds: 60,
		},
	}
}

// Load reads config from path, falling back to defaults when the file does
// not exist, and pulls secrets from the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.PerplexityAPIKey = os.Getenv("PERPLEXITY_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally usable.
func (c *Config) Validate() error {
	if len(c.Sources.Feeds) == 0 && c.Sources.ScrapeURL == "" {
		return fmt.Errorf("no sources configured")
	}
	if c.Sources.EntriesPerFeed <= 0 {
		return fmt.Errorf("entries_per_feed must be positive, got %d", c.Sources.EntriesPerFeed)
	}
	if c.Sources.WindowHours <= 0 {
		return fmt.Errorf("window_hours must be positive, got %d", c.Sources.WindowHours)
	}
	if c.Digest.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive, got %d", c.Digest.RetentionDays)
	}
	if _, err := time.Parse("15:04", c.Digest.BroadcastTime); err != nil {
		return fmt.Errorf("invalid broadcast_time %q: %w", c.Digest.BroadcastTime, err)
	}
	if _, err := time.LoadLocation(c.Digest.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Digest.Timezone, err)
	}
	if _, err := c.Rollup(); err != nil {
		return err
	}
	return nil
}

// Window returns the collection window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Sources.WindowHours) * time.Hour
}

// Rollup resolves the configured rollup weekday.
func (c *Config) Rollup() (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), c.Digest.RollupWeekday) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid rollup_weekday %q", c.Digest.RollupWeekday)
}

package types

import (
	"fmt"
	"time"
)

// NewsItem is a normalized announcement from one of the configured sources.
// Items are produced by the collector's normalization step and are immutable
// afterwards; they are never persisted individually.
type NewsItem struct {
	Source    string
	Title     string
	Link      string
	Published time.Time
	Summary   string
}

// Line renders the item in the single-line digest material format.
func (n NewsItem) Line() string {
	return fmt.Sprintf("[%s] %s — %s", n.Source, n.Title, n.Link)
}

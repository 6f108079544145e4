package store

// Entry is one cached daily digest.
type Entry struct {
	Day     string
	Content string
}

package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DayFormat is the calendar-day key format used by the digest cache and the
// delivery records.
const DayFormat = "2006-01-02"

// Day returns the calendar-day key for t.
func Day(t time.Time) string {
	return t.Format(DayFormat)
}

// Store owns all persisted state: the per-day digest cache, the recipient
// registry, and the per-recipient delivery markers. Writes are atomic
// upserts; concurrent writers for the same key follow last-writer-wins.
type Store struct {
	db *sql.DB
}

// Open creates a new Store with SQLite backend
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recipients (
		chat_id INTEGER PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS deliveries (
		chat_id INTEGER PRIMARY KEY,
		last_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS digest_cache (
		day TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// GetDay returns the cached digest for the given day, if any.
func (s *Store) GetDay(day string) (string, bool, error) {
	var content string
	err := s.db.QueryRow(`SELECT content FROM digest_cache WHERE day = ?`, day).Scan(&content)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return content, true, nil
}

// PutDay writes the digest for a day, overwriting any previous entry.
func (s *Store) PutDay(day, content string) error {
	_, err := s.db.Exec(`
		INSERT INTO digest_cache (day, content, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			content = excluded.content,
			created_at = excluded.created_at
	`, day, content, time.Now())
	return err
}

// PruneBefore removes cache entries strictly older than cutoff.
func (s *Store) PruneBefore(cutoff string) error {
	_, err := s.db.Exec(`DELETE FROM digest_cache WHERE day < ?`, cutoff)
	return err
}

// GetDaysBetween returns cached entries with from <= day <= to, oldest first.
func (s *Store) GetDaysBetween(from, to string) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT day, content FROM digest_cache
		WHERE day >= ? AND day <= ?
		ORDER BY day ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Day, &e.Content); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RegisterRecipient records a chat in the registry. Inserting an already
// registered chat is a no-op.
func (s *Store) RegisterRecipient(chatID int64) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO recipients (chat_id) VALUES (?)`, chatID)
	return err
}

// ListRecipients returns all registered chat IDs.
func (s *Store) ListRecipients() ([]int64, error) {
	rows, err := s.db.Query(`SELECT chat_id FROM recipients ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LastDelivered returns the last day a digest was pushed to the chat.
func (s *Store) LastDelivered(chatID int64) (string, bool, error) {
	var day string
	err := s.db.QueryRow(`SELECT last_date FROM deliveries WHERE chat_id = ?`, chatID).Scan(&day)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return day, true, nil
}

// MarkDelivered records that the chat received a digest on the given day.
func (s *Store) MarkDelivered(chatID int64, day string) error {
	_, err := s.db.Exec(`
		INSERT INTO deliveries (chat_id, last_date)
		VALUES (?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			last_date = excluded.last_date
	`, chatID, day)
	return err
}

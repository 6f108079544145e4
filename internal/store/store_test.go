package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutDayOverwrites(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.PutDay("2026-03-02", "first"))
	require.NoError(t, s.PutDay("2026-03-02", "second"))

	content, ok, err := s.GetDay("2026-03-02")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", content)

	entries, err := s.GetDaysBetween("2026-01-01", "2026-12-31")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGetDayMiss(t *testing.T) {
	s := testStore(t)

	_, ok, err := s.GetDay("2026-03-02")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPruneBefore(t *testing.T) {
	s := testStore(t)

	today := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 10; i++ {
		day := Day(today.AddDate(0, 0, -i))
		require.NoError(t, s.PutDay(day, "digest"))
	}

	cutoff := Day(today.AddDate(0, 0, -7))
	require.NoError(t, s.PruneBefore(cutoff))

	entries, err := s.GetDaysBetween("2026-01-01", "2026-12-31")
	require.NoError(t, err)
	require.Len(t, entries, 7)
	for _, e := range entries {
		assert.GreaterOrEqual(t, e.Day, cutoff)
	}
}

func TestGetDaysBetweenOrdered(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.PutDay("2026-03-01", "c"))
	require.NoError(t, s.PutDay("2026-02-27", "a"))
	require.NoError(t, s.PutDay("2026-02-28", "b"))

	entries, err := s.GetDaysBetween("2026-02-27", "2026-02-28")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2026-02-27", entries[0].Day)
	assert.Equal(t, "2026-02-28", entries[1].Day)
}

func TestRegisterRecipientIdempotent(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.RegisterRecipient(42))
	require.NoError(t, s.RegisterRecipient(42))
	require.NoError(t, s.RegisterRecipient(7))

	ids, err := s.ListRecipients()
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 42}, ids)
}

func TestDeliveryRecord(t *testing.T) {
	s := testStore(t)

	_, ok, err := s.LastDelivered(42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.MarkDelivered(42, "2026-03-01"))
	require.NoError(t, s.MarkDelivered(42, "2026-03-02"))

	day, ok, err := s.LastDelivered(42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2026-03-02", day)
}

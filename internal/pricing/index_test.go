package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const payload = `[
  {"resource_id": "c1", "start_date": "2025-10-16", "slots": [
    {"start_time": "08:00:00", "duration": 60, "price": "20 EUR"},
    {"start_time": "08:00:00", "duration": 90, "price": "28 EUR"},
    {"start_time": "23:00:00", "duration": 90, "price": 31.5}
  ]},
  {"resource_id": "c1", "start_date": "2025-10-17", "slots": [
    {"start_time": "08:00:00", "duration": 60, "price": "99 EUR"}
  ]},
  {"resource_id": "c2", "start_date": "2025-10-16", "slots": [
    {"start_time": "9:30", "duration": "60", "price": "18 EUR"},
    {"start_time": "bad", "duration": 60, "price": "1 EUR"},
    {"start_time": "10:00", "duration": 60, "price": null}
  ]}
]`

func TestIngestBuildsExactAndFallbackKeys(t *testing.T) {
	ix := NewIndex()
	res, err := ix.Ingest([]byte(payload), "2025-10-16")
	require.NoError(t, err)
	require.True(t, res.DateFiltered)
	require.Equal(t, 3, res.Sections)

	p, ok := ix.Lookup("c1", "08:00", "09:30")
	require.True(t, ok)
	require.Equal(t, "28 EUR", p)

	// first record for a start owns the fallback key
	p, ok = ix.Lookup("c1", "08:00", "10:00")
	require.True(t, ok)
	require.Equal(t, "20 EUR", p)

	p, ok = ix.Lookup("c1", "23:00", "00:30")
	require.True(t, ok)
	require.Equal(t, "31.5", p)

	p, ok = ix.Lookup("c2", "09:30", "10:30")
	require.True(t, ok)
	require.Equal(t, "18 EUR", p)

	_, ok = ix.Lookup("c2", "10:00", "11:00")
	require.False(t, ok)
}

func TestLookupPrefersExactKey(t *testing.T) {
	ix := NewIndex()
	ix.Put(FallbackKey("c1", "08:00"), "fallback")
	ix.Put(ExactKey("c1", "08:00", "09:00"), "exact")

	p, ok := ix.Lookup("c1", "08:00", "09:00")
	require.True(t, ok)
	require.Equal(t, "exact", p)
}

func TestIngestFirstWriterWins(t *testing.T) {
	ix := NewIndex()
	_, err := ix.Ingest([]byte(payload), "2025-10-16")
	require.NoError(t, err)
	n := ix.Len()

	again := `[{"resource_id": "c1", "start_date": "2025-10-16", "slots": [
	  {"start_time": "08:00", "duration": 60, "price": "1 EUR"}
	]}]`
	res, err := ix.Ingest([]byte(again), "2025-10-16")
	require.NoError(t, err)
	require.Zero(t, res.Added)
	require.Equal(t, n, ix.Len())

	p, _ := ix.Lookup("c1", "08:00", "09:00")
	require.Equal(t, "20 EUR", p)
}

func TestIngestWithoutMatchingDateIndexesEverything(t *testing.T) {
	ix := NewIndex()
	res, err := ix.Ingest([]byte(payload), "2030-01-01")
	require.NoError(t, err)
	require.False(t, res.DateFiltered)

	// the 2025-10-17 section is no longer filtered out, but 2025-10-16
	// came first and keeps the key
	p, ok := ix.Lookup("c1", "08:00", "09:00")
	require.True(t, ok)
	require.Equal(t, "20 EUR", p)
	require.Equal(t, 7, ix.Len())
}

func TestIngestRejectsNonJSON(t *testing.T) {
	_, err := NewIndex().Ingest([]byte(`<html>`), "")
	require.Error(t, err)
}

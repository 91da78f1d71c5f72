package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterBurstPerClient(t *testing.T) {
	l := NewLimiter(100, 3)

	for i := 0; i < 3; i++ {
		require.True(t, l.Allow("a"), "request %d", i)
	}
	require.False(t, l.Allow("a"))

	// buckets are independent
	require.True(t, l.Allow("b"))
	require.Equal(t, 2, l.Len())
}

func TestLimiterRefills(t *testing.T) {
	now := time.Date(2025, 10, 16, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(3600, 1)
	l.now = func() time.Time { return now }

	require.True(t, l.Allow("a"))
	require.False(t, l.Allow("a"))

	now = now.Add(time.Second)
	require.True(t, l.Allow("a"))
	require.InDelta(t, 0, l.Tokens("a"), 0.01)
}

func TestLimiterPrune(t *testing.T) {
	now := time.Date(2025, 10, 16, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(100, 1)
	l.now = func() time.Time { return now }

	require.True(t, l.Allow("old"))
	now = now.Add(2 * time.Hour)
	require.True(t, l.Allow("fresh"))

	require.Equal(t, 1, l.Prune(time.Hour))
	require.Equal(t, 1, l.Len())

	// pruned client comes back with a full bucket
	require.True(t, l.Allow("old"))
}

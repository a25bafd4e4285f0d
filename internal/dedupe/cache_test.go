package dedupe_test

import (
	"testing"
	"time"

	"github.com/DeafMist/pilkada-radar/backend/internal/dedupe"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCacheSeenDuplicate(t *testing.T) {
	cache := dedupe.NewCache(10, time.Minute)
	key := dedupe.SnapshotKey("gubernur", "0", "2024-12-01 10:00:00")
	require.False(t, cache.IsSeen(key))
	cache.MarkSeen(key)
	require.True(t, cache.IsSeen(key))
	require.False(t, cache.IsSeen(dedupe.SnapshotKey("gubernur", "0", "2024-12-01 10:05:00")))
}

func TestCacheTTLExpiry(t *testing.T) {
	clk := &clock{t: time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)}
	cache := dedupe.NewCache(10, time.Minute).WithClock(clk.now)

	cache.MarkSeen("beta")
	clk.advance(30 * time.Second)
	require.True(t, cache.IsSeen("beta"))

	clk.advance(31 * time.Second)
	require.False(t, cache.IsSeen("beta"))

	cache.MarkSeen("gamma")
	require.Equal(t, 1, cache.Len())
}

func TestCacheCapacityEvictsOldest(t *testing.T) {
	cache := dedupe.NewCache(1, time.Minute)
	cache.MarkSeen("first")
	cache.MarkSeen("second")

	require.False(t, cache.IsSeen("first"))
	require.True(t, cache.IsSeen("second"))
	require.Equal(t, 1, cache.Len())
}

func TestCacheRemarkKeepsNewestEntry(t *testing.T) {
	clk := &clock{t: time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)}
	cache := dedupe.NewCache(2, time.Minute).WithClock(clk.now)

	cache.MarkSeen("a")
	clk.advance(time.Second)
	cache.MarkSeen("b")
	clk.advance(time.Second)
	cache.MarkSeen("a")
	clk.advance(time.Second)
	cache.MarkSeen("c")

	require.True(t, cache.IsSeen("a"))
	require.True(t, cache.IsSeen("c"))
	require.False(t, cache.IsSeen("b"))
}

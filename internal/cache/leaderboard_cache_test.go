package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeaderboardOrdering(t *testing.T) {
	c := NewLeaderboardCache(newTestClient(t))
	ctx := context.Background()

	require.NoError(t, c.UpdateScore(ctx, "s1", "a", 50))
	require.NoError(t, c.UpdateScore(ctx, "s1", "b", 200))
	require.NoError(t, c.UpdateScore(ctx, "s1", "c", 125))

	entries, err := c.GetTop(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "b", entries[0].PlayerID)
	require.Equal(t, 200, entries[0].DamageDealt)
	require.Equal(t, 1, entries[0].Rank)
	require.Equal(t, "c", entries[1].PlayerID)
	require.Equal(t, "a", entries[2].PlayerID)
}

func TestLeaderboardScoreOverwrite(t *testing.T) {
	c := NewLeaderboardCache(newTestClient(t))
	ctx := context.Background()

	require.NoError(t, c.UpdateScore(ctx, "s1", "a", 50))
	require.NoError(t, c.UpdateScore(ctx, "s1", "a", 180))

	entries, err := c.GetTop(ctx, "s1", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 180, entries[0].DamageDealt)
}

func TestLeaderboardRank(t *testing.T) {
	c := NewLeaderboardCache(newTestClient(t))
	ctx := context.Background()

	require.NoError(t, c.UpdateScore(ctx, "s1", "a", 50))
	require.NoError(t, c.UpdateScore(ctx, "s1", "b", 200))

	rank, err := c.GetRank(ctx, "s1", "a")
	require.NoError(t, err)
	require.Equal(t, int64(2), rank)
}

func TestLeaderboardLimit(t *testing.T) {
	c := NewLeaderboardCache(newTestClient(t))
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, c.UpdateScore(ctx, "s1", id, (i+1)*10))
	}

	entries, err := c.GetTop(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "d", entries[0].PlayerID)
	require.Equal(t, "c", entries[1].PlayerID)
}

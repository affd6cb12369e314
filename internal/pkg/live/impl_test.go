package live

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perprug/royale/internal/pkg/tournament"
)

func millis(v int64) *int64 {
	return &v
}

func TestRecentExits(t *testing.T) {
	t.Parallel()

	now := int64(1_000_000)

	round := &tournament.Tournament{
		Players: []tournament.Player{
			{Wallet: "w-stayed"},
			{Wallet: "Gnkp9MZSFAs6af6i6zYZJFHMb5RaezXZiKUBRKXTmqbM", ExitTime: millis(now - 30_000)},
			{Wallet: "w-early", ExitTime: millis(now - 90_000)},
		},
	}

	assert.Equal(t, []RecentExit{
		{Wallet: "Gnkp...mqbM", ExitTimeAgo: "30s ago"},
		{Wallet: "w-early", ExitTimeAgo: "90s ago"},
	}, recentExits(round, now))
}

func TestRecentExitsKeepsNewestTen(t *testing.T) {
	t.Parallel()

	now := int64(1_000_000)
	round := &tournament.Tournament{}

	for idx := 0; idx < 12; idx++ {
		round.Players = append(round.Players, tournament.Player{
			Wallet:   fmt.Sprintf("w-%d", idx),
			ExitTime: millis(now - int64(idx+1)*1000),
		})
	}

	exits := recentExits(round, now)

	require.Len(t, exits, 10)
	assert.Equal(t, "w-0", exits[0].Wallet)
	assert.Equal(t, "1s ago", exits[0].ExitTimeAgo)
	assert.Equal(t, "w-9", exits[9].Wallet)
	assert.Equal(t, "10s ago", exits[9].ExitTimeAgo)
}

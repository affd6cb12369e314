package tournament_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perprug/royale/internal/pkg/tournament"
)

func millis(v int64) *int64 {
	return &v
}

func TestTierFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tournament.TierDiamond, tournament.TierFor(0))
	assert.Equal(t, tournament.TierDiamond, tournament.TierFor(29_999))
	assert.Equal(t, tournament.TierPlatinum, tournament.TierFor(30_000))
	assert.Equal(t, tournament.TierPlatinum, tournament.TierFor(59_999))
	assert.Equal(t, tournament.TierGold, tournament.TierFor(60_000))
	assert.Equal(t, tournament.TierGold, tournament.TierFor(119_999))
	assert.Equal(t, tournament.TierSilver, tournament.TierFor(120_000))
	assert.Equal(t, tournament.TierSilver, tournament.TierFor(3_600_000))
}

func TestComputeWinnersOnePerTier(t *testing.T) {
	t.Parallel()

	const cutoff = int64(10_000_000)

	players := []tournament.Player{
		{Wallet: "wallet-diamond", ExitTime: millis(cutoff - 10_000)},
		{Wallet: "wallet-platinum", ExitTime: millis(cutoff - 45_000)},
		{Wallet: "wallet-gold", ExitTime: millis(cutoff - 90_000)},
		{Wallet: "wallet-silver", ExitTime: millis(cutoff - 200_000)},
		{Wallet: "wallet-holder", ExitTime: nil},
	}

	winners := tournament.ComputeWinners(players, 0.05, cutoff)

	assert.Len(t, winners, 4)

	assert.Equal(t, "wallet-diamond", winners[0].Wallet)
	assert.Equal(t, tournament.TierDiamond, winners[0].Tier)
	assert.InDelta(t, 0.02, winners[0].Reward, 1e-9)
	assert.Equal(t, int64(10_000), winners[0].ExitLatency)

	assert.Equal(t, "wallet-platinum", winners[1].Wallet)
	assert.Equal(t, tournament.TierPlatinum, winners[1].Tier)
	assert.InDelta(t, 0.015, winners[1].Reward, 1e-9)

	assert.Equal(t, "wallet-gold", winners[2].Wallet)
	assert.Equal(t, tournament.TierGold, winners[2].Tier)
	assert.InDelta(t, 0.01, winners[2].Reward, 1e-9)

	assert.Equal(t, "wallet-silver", winners[3].Wallet)
	assert.Equal(t, tournament.TierSilver, winners[3].Tier)
	assert.InDelta(t, 0.005, winners[3].Reward, 1e-9)
}

func TestComputeWinnersSingleTierKeepsOtherSharesUndistributed(t *testing.T) {
	t.Parallel()

	const cutoff = int64(10_000_000)

	players := []tournament.Player{
		{Wallet: "w1", ExitTime: millis(cutoff - 10_000)},
		{Wallet: "w2", ExitTime: millis(cutoff - 10_000)},
		{Wallet: "w3", ExitTime: millis(cutoff - 10_000)},
		{Wallet: "w4", ExitTime: millis(cutoff - 10_000)},
		{Wallet: "w5", ExitTime: millis(cutoff - 10_000)},
	}

	winners := tournament.ComputeWinners(players, 0.05, cutoff)

	assert.Len(t, winners, 5)

	total := 0.0

	for _, w := range winners {
		assert.Equal(t, tournament.TierDiamond, w.Tier)
		assert.InDelta(t, 0.004, w.Reward, 1e-9)

		total += w.Reward
	}

	// Only the Diamond share of the pool is paid out.
	assert.InDelta(t, 0.05*0.4, total, 1e-9)
}

func TestComputeWinnersExcludesLateAndMissingExits(t *testing.T) {
	t.Parallel()

	const cutoff = int64(10_000_000)

	players := []tournament.Player{
		{Wallet: "at-cutoff", ExitTime: millis(cutoff)},
		{Wallet: "after-cutoff", ExitTime: millis(cutoff + 5_000)},
		{Wallet: "no-exit", ExitTime: nil},
		{Wallet: "before-cutoff", ExitTime: millis(cutoff - 1)},
	}

	winners := tournament.ComputeWinners(players, 1.0, cutoff)

	assert.Len(t, winners, 1)
	assert.Equal(t, "before-cutoff", winners[0].Wallet)
}

func TestComputeWinnersOrdering(t *testing.T) {
	t.Parallel()

	const cutoff = int64(10_000_000)

	players := []tournament.Player{
		{Wallet: "silver", ExitTime: millis(cutoff - 150_000)},
		{Wallet: "diamond-slow", ExitTime: millis(cutoff - 20_000)},
		{Wallet: "tie-first", ExitTime: millis(cutoff - 40_000)},
		{Wallet: "tie-second", ExitTime: millis(cutoff - 40_000)},
		{Wallet: "diamond-fast", ExitTime: millis(cutoff - 5_000)},
	}

	winners := tournament.ComputeWinners(players, 1.0, cutoff)

	wallets := make([]string, 0, len(winners))
	for _, w := range winners {
		wallets = append(wallets, w.Wallet)
	}

	// Tier rank first, ascending latency within tier, registration order on
	// ties.
	assert.Equal(t, []string{"diamond-fast", "diamond-slow", "tie-first", "tie-second", "silver"}, wallets)
}

func TestComputeWinnersEmptyRoster(t *testing.T) {
	t.Parallel()

	winners := tournament.ComputeWinners(nil, 1.0, 10_000)

	assert.Empty(t, winners)
}

func TestComputeWinnersDeterministic(t *testing.T) {
	t.Parallel()

	const cutoff = int64(10_000_000)

	players := []tournament.Player{
		{Wallet: "a", ExitTime: millis(cutoff - 65_000)},
		{Wallet: "b", ExitTime: millis(cutoff - 25_000)},
		{Wallet: "c", ExitTime: millis(cutoff - 25_000)},
	}

	first := tournament.ComputeWinners(players, 0.3, cutoff)
	second := tournament.ComputeWinners(players, 0.3, cutoff)

	assert.Equal(t, first, second)
}

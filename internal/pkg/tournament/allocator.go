package tournament

import "sort"

// TierFor maps a latency-to-cutoff (milliseconds) onto its prize tier.
func TierFor(latency int64) Tier {
	switch {
	case latency < DiamondWindowMillis:
		return TierDiamond
	case latency < PlatinumWindowMillis:
		return TierPlatinum
	case latency < GoldWindowMillis:
		return TierGold
	default:
		return TierSilver
	}
}

// ComputeWinners derives the tiered winner list from a roster, a prize pool
// and a cutoff timestamp (milliseconds). A player qualifies only with an
// exit strictly before the cutoff. Each tier's share of the pool splits
// evenly among its members; an empty tier's share stays undistributed.
//
// Output is ordered by tier rank, then ascending latency-to-cutoff, with
// registration order breaking ties. The function is pure: identical inputs
// always produce identical output.
func ComputeWinners(players []Player, prizePool float64, cutoff int64) []Winner {
	tiers := map[Tier][]Winner{}

	for _, player := range players {
		if player.ExitTime == nil || *player.ExitTime >= cutoff {
			continue
		}

		latency := cutoff - *player.ExitTime
		tier := TierFor(latency)

		tiers[tier] = append(tiers[tier], Winner{
			Wallet:      player.Wallet,
			Tier:        tier,
			ExitLatency: latency,
		})
	}

	winners := []Winner{}

	for _, tier := range []Tier{TierDiamond, TierPlatinum, TierGold, TierSilver} {
		members := tiers[tier]
		if len(members) == 0 {
			continue
		}

		reward := prizePool * tier.Share() / float64(len(members))

		sort.SliceStable(members, func(a, b int) bool {
			return members[a].ExitLatency < members[b].ExitLatency
		})

		for idx := range members {
			members[idx].Reward = reward
		}

		winners = append(winners, members...)
	}

	return winners
}

package tournament

// Status is the lifecycle state of a tournament. Pending covers the
// provisioning phase before the token and pool exist; Ended and Failed are
// terminal and never change again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusSettling Status = "settling"
	StatusEnded    Status = "ended"
	StatusFailed   Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusEnded || s == StatusFailed
}

// Tier is a latency-to-cutoff bracket. The set is closed; every ranking or
// share lookup switches exhaustively over these four values.
type Tier string

const (
	TierDiamond  Tier = "Diamond"
	TierPlatinum Tier = "Platinum"
	TierGold     Tier = "Gold"
	TierSilver   Tier = "Silver"
)

// Tier windows in milliseconds before the cutoff.
const (
	DiamondWindowMillis  = 30_000
	PlatinumWindowMillis = 60_000
	GoldWindowMillis     = 120_000
)

func (t Tier) Rank() int {
	switch t {
	case TierDiamond:
		return 0
	case TierPlatinum:
		return 1
	case TierGold:
		return 2
	case TierSilver:
		return 3
	}

	return 4
}

// Share is the fraction of the prize pool reserved for this tier.
func (t Tier) Share() float64 {
	switch t {
	case TierDiamond:
		return 0.4
	case TierPlatinum:
		return 0.3
	case TierGold:
		return 0.2
	case TierSilver:
		return 0.1
	}

	return 0.0
}

type Player struct {
	Wallet     string `json:"wallet"`
	EntryTime  int64  `json:"entry_time"`
	ExitTime   *int64 `json:"exit_time"`
	ExitProof  string `json:"exit_proof,omitempty"`
	BuyInProof string `json:"buy_in_proof,omitempty"`
}

func (p Player) Exited() bool {
	return p.ExitTime != nil
}

type Winner struct {
	Wallet string  `json:"wallet"`
	Tier   Tier    `json:"tier"`
	Reward float64 `json:"reward"`

	// ExitLatency is the distance between the exit and the cutoff, in
	// milliseconds.
	ExitLatency int64 `json:"exit_latency"`
}

// Tournament is the single-slot record the store tracks. Timestamps are
// milliseconds since the epoch, nil until set.
type Tournament struct {
	ID     string `json:"id"`
	Status Status `json:"status"`

	TokenID    *string `json:"token_id"`
	PoolID     *string `json:"pool_id"`
	PositionID *string `json:"position_id"`

	StartTime *int64 `json:"start_time"`
	EndTime   *int64 `json:"end_time"`

	BuyInAmount float64 `json:"buy_in_amount"`
	PrizePool   float64 `json:"prize_pool"`
	MaxPlayers  int     `json:"max_players"`

	Players []Player `json:"players"`
	Winners []Winner `json:"winners"`

	LiquidityWithdrawn bool `json:"liquidity_withdrawn"`
}

func (t *Tournament) FindPlayer(wallet string) *Player {
	for idx := range t.Players {
		if t.Players[idx].Wallet == wallet {
			return &t.Players[idx]
		}
	}

	return nil
}

func (t *Tournament) Full() bool {
	return len(t.Players) >= t.MaxPlayers
}

// Clone returns a deep copy safe to hand out of the manager's lock.
func (t *Tournament) Clone() *Tournament {
	if t == nil {
		return nil
	}

	clone := *t

	clone.Players = make([]Player, len(t.Players))
	copy(clone.Players, t.Players)

	clone.Winners = make([]Winner, len(t.Winners))
	copy(clone.Winners, t.Winners)

	return &clone
}

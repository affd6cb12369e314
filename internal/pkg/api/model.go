package api

import "github.com/perprug/royale/internal/pkg/tournament"

type RegisterRequest struct {
	Wallet string `json:"wallet"`
	Proof  string `json:"proof"`
}

type ExitRequest struct {
	Wallet string `json:"wallet"`
	Proof  string `json:"proof"`
}

type AdminRequest struct {
	AdminKey string `json:"adminKey"`
}

// PublicWinner is a winner row with the wallet masked for public views.
type PublicWinner struct {
	Wallet      string          `json:"wallet"`
	Tier        tournament.Tier `json:"tier"`
	Reward      float64         `json:"reward"`
	ExitLatency int64           `json:"exitTimeToPull"`
}

// StatusResponse is the public snapshot of the current round.
type StatusResponse struct {
	IsActive     bool           `json:"isActive"`
	TournamentID string         `json:"tournamentId"`
	StartTime    *int64         `json:"startTime"`
	EndTime      *int64         `json:"endTime"`
	PlayerCount  int            `json:"playerCount"`
	MaxPlayers   int            `json:"maxPlayers"`
	PrizePool    float64        `json:"prizePool"`
	Winners      []PublicWinner `json:"winners"`
}

// LeaderboardEntry covers both views: during a round it carries exit
// recency, after settlement it carries tier and reward.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Wallet string `json:"wallet"`

	ExitTime    *int64 `json:"exitTime,omitempty"`
	ExitTimeAgo string `json:"exitTimeAgo,omitempty"`

	Tier           tournament.Tier `json:"tier,omitempty"`
	Reward         float64         `json:"reward,omitempty"`
	ExitTimeToPull string          `json:"exitTimeToPull,omitempty"`
}

type LeaderboardResponse struct {
	TournamentID string             `json:"tournamentId"`
	IsActive     bool               `json:"isActive"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
}

type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`

	Message string `json:"message,omitempty"`
}

package live

// StatusFrame is pushed to every client on connect.
type StatusFrame struct {
	Type         string `json:"type"`
	IsActive     bool   `json:"isActive"`
	TournamentID string `json:"tournamentId"`
	StartTime    *int64 `json:"startTime"`
	EndTime      *int64 `json:"endTime"`
	PlayerCount  int    `json:"playerCount"`
	ExitedCount  int    `json:"exitedCount"`
}

// DataFrame is pushed when a client joins a tournament channel.
type DataFrame struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Status      string `json:"status"`
	PlayerCount int    `json:"playerCount"`
	ExitedCount int    `json:"exitedCount"`
	StartTime   *int64 `json:"startTime"`
	EndTime     *int64 `json:"endTime"`
}

// RecentExit is one row of the recent-exits frame; wallets arrive masked.
type RecentExit struct {
	Wallet      string `json:"wallet"`
	ExitTimeAgo string `json:"exitTimeAgo"`
}

type RecentExitsFrame struct {
	Type  string       `json:"type"`
	Exits []RecentExit `json:"exits"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ClientCommand is the single inbound message shape clients send.
type ClientCommand struct {
	Type         string `json:"type"`
	TournamentID string `json:"tournamentId"`
}

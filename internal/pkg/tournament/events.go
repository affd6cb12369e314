package tournament

// EventType names match the frames the live hub pushes to clients.
type EventType string

const (
	EventTournamentStarted EventType = "tournamentStarted"
	EventPlayerRegistered  EventType = "playerRegistered"
	EventPlayerExited      EventType = "playerExited"
	EventTournamentEnded   EventType = "tournamentEnded"
)

// Event is a lifecycle notification emitted by the manager. Wallets are
// already masked; events are safe to broadcast as-is.
type Event struct {
	Type         EventType `json:"type"`
	TournamentID string    `json:"tournamentId"`

	Wallet string `json:"wallet,omitempty"`

	PlayerCount int `json:"playerCount"`
	ExitedCount int `json:"exitedCount"`

	EndTime   *int64 `json:"endTime,omitempty"`
	ForcedEnd bool   `json:"forcedEnd,omitempty"`
}

// MaskWallet shortens a wallet address to its first and last four
// characters for public views.
func MaskWallet(wallet string) string {
	if len(wallet) <= 8 {
		return wallet
	}

	return wallet[:4] + "..." + wallet[len(wallet)-4:]
}

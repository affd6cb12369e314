package tournament

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/perprug/royale/internal/pkg/common"
	"github.com/perprug/royale/internal/pkg/proof"
	"github.com/perprug/royale/internal/pkg/venue"
	"github.com/samber/do/v2"
)

var (
	ErrTerminationScheduled = errors.New("termination already scheduled for this tournament")
	ErrRoundSuperseded      = errors.New("tournament superseded by a newer round")
)

// LiquidityVenue provisions the round token and pool and later pulls the
// liquidity out. Every call is a single attempt; the manager never retries.
type LiquidityVenue interface {
	CreateMarket(ctx context.Context, cfg venue.TokenConfig) (venue.Market, error)
	CreatePool(ctx context.Context, tokenID string, baseAmount, quoteAmount float64) (venue.Pool, error)
	WithdrawAllLiquidity(ctx context.Context, poolID, positionID string) (string, error)
}

// ProofVerifier validates the transaction proofs players attach to buy-in
// and exit requests.
type ProofVerifier interface {
	VerifyBuyIn(proof, wallet string) bool
	VerifyExit(proof, wallet, tokenID string) bool
}

// ManagerService owns the tournament lifecycle. All roster mutation and the
// Active to Settling transition are serialized on one mutex; venue and
// verifier calls happen off the lock, with conditions re-checked at commit.
type ManagerService struct {
	Store    Store
	Venue    LiquidityVenue
	Verifier ProofVerifier
	Events   chan<- Event
	Logger   *slog.Logger
	Clock    clockwork.Clock

	BuyInAmount      float64
	MaxPlayers       int
	Duration         time.Duration
	SettlementMargin time.Duration
	PoolDeposit      float64
	AdminToken       string

	mu         sync.Mutex
	current    *Tournament
	timer      clockwork.Timer
	timerArmed bool
}

func NewManagerService(i do.Injector) (*ManagerService, error) {
	databaseService := do.MustInvoke[*common.DatabaseService](i)
	venueService := do.MustInvoke[*venue.SimulatedVenue](i)
	verifierService := do.MustInvoke[*proof.HMACVerifier](i)

	eventSink := do.MustInvokeNamed[chan<- Event](i, "event-sink")
	clock := do.MustInvokeNamed[clockwork.Clock](i, "clock")
	logger := do.MustInvokeNamed[*slog.Logger](i, "logger")

	result := &ManagerService{
		Store:    NewBoltStore(databaseService.DB),
		Venue:    venueService,
		Verifier: verifierService,
		Events:   eventSink,
		Logger:   logger.With("component", "tournament"),
		Clock:    clock,

		BuyInAmount:      do.MustInvokeNamed[float64](i, "buy-in"),
		MaxPlayers:       do.MustInvokeNamed[int](i, "max-players"),
		Duration:         do.MustInvokeNamed[time.Duration](i, "duration"),
		SettlementMargin: do.MustInvokeNamed[time.Duration](i, "settlement-margin"),
		PoolDeposit:      do.MustInvokeNamed[float64](i, "pool-deposit"),
		AdminToken:       do.MustInvokeNamed[string](i, "admin-token"),
	}

	return result, nil
}

// Start loads the persisted tournament and, when it finds an Active round,
// re-arms the termination timer from the stored end time. A round whose
// deadline passed while the process was down settles immediately;
// an interrupted settlement runs again from the top, which at worst repeats
// a tolerated withdrawal attempt.
func (m *ManagerService) Start() error {
	t, err := m.Store.Load()
	if err != nil {
		return fmt.Errorf("failed to recover tournament state: %w", err)
	}

	if t == nil {
		return nil
	}

	m.mu.Lock()
	m.current = t

	if t.Status == StatusSettling {
		t.Status = StatusActive
	}
	m.mu.Unlock()

	if t.Status != StatusActive {
		return nil
	}

	if t.EndTime != nil {
		remaining := time.Duration(*t.EndTime-m.Clock.Now().UnixMilli()) * time.Millisecond
		if remaining > 0 {
			m.Logger.Info("re-armed termination timer after restart",
				"tournament_id", t.ID,
				"remaining", remaining,
			)

			return m.ScheduleTermination(remaining)
		}
	}

	m.Logger.Warn("tournament deadline passed while down, settling now", "tournament_id", t.ID)
	go m.settle(t.ID, false)

	return nil
}

// Init allocates a fresh Pending tournament, overwriting the store slot.
// The previous round's record is gone from this point on.
func (m *ManagerService) Init() (*Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
	}

	m.timerArmed = false

	t := &Tournament{
		ID:          "BR-" + uuid.NewString(),
		Status:      StatusPending,
		BuyInAmount: m.BuyInAmount,
		MaxPlayers:  m.MaxPlayers,
		Players:     []Player{},
		Winners:     []Winner{},
	}

	err := m.Store.Save(t)
	if err != nil {
		return nil, fmt.Errorf("failed to persist new tournament: %w", err)
	}

	m.current = t

	m.Logger.Info("tournament initialized", "tournament_id", t.ID)

	return t.Clone(), nil
}

// Run executes one full round: provision token and pool, open registration,
// arm the termination timer. A provisioning failure ends the round as
// Failed before any player could be charged.
func (m *ManagerService) Run(ctx context.Context) (*Tournament, error) {
	t, err := m.Init()
	if err != nil {
		return nil, err
	}

	cfg := venue.TokenConfig{
		Name:     "BATTLE PERPRUG",
		Symbol:   "BPERP",
		URI:      "https://perprug.fun/token-metadata.json",
		Decimals: 9,
		Supply:   1_000_000_000,
	}

	market, err := m.Venue.CreateMarket(ctx, cfg)
	if err != nil {
		m.fail(t.ID, "token creation failed", err)

		return nil, fmt.Errorf("failed to create market: %w", err)
	}

	err = m.commit(t.ID, func(current *Tournament) {
		current.TokenID = &market.TokenID
	})
	if err != nil {
		return nil, err
	}

	pool, err := m.Venue.CreatePool(ctx, market.TokenID, float64(cfg.Supply), m.PoolDeposit)
	if err != nil {
		m.fail(t.ID, "pool creation failed", err)

		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	start := m.Clock.Now().UnixMilli()
	end := start + m.Duration.Milliseconds()

	var snapshot *Tournament

	err = m.commit(t.ID, func(current *Tournament) {
		current.PoolID = &pool.PoolID
		current.PositionID = &pool.PositionID
		current.StartTime = &start
		current.EndTime = &end
		current.Status = StatusActive
		snapshot = current.Clone()
	})
	if err != nil {
		return nil, err
	}

	err = m.ScheduleTermination(m.Duration)
	if err != nil {
		return nil, err
	}

	m.Logger.Info("tournament active",
		"tournament_id", t.ID,
		"token_id", market.TokenID,
		"pool_id", pool.PoolID,
		"ends_in", m.Duration,
	)

	m.emit(Event{
		Type:         EventTournamentStarted,
		TournamentID: t.ID,
		EndTime:      &end,
	})

	return snapshot, nil
}

// commit applies fn to the current round and persists it, but only while the
// store slot still holds tournamentID. A run whose round was replaced by a
// newer Init aborts here instead of writing its ids into the new record.
func (m *ManagerService) commit(tournamentID string, fn func(current *Tournament)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.ID != tournamentID {
		return ErrRoundSuperseded
	}

	fn(m.current)

	return m.Store.Save(m.current)
}

// Register adds a wallet to the roster. The proof check runs outside the
// lock; every precondition is checked again at commit in case the roster
// changed while the check was in flight.
func (m *ManagerService) Register(wallet, buyInProof string) (Result, error) {
	m.mu.Lock()

	if r, ok := m.registrationBlocked(wallet); ok {
		m.mu.Unlock()

		return r, nil
	}
	m.mu.Unlock()

	if !m.Verifier.VerifyBuyIn(buyInProof, wallet) {
		return failure(CodeProofRejected, "Proof verification failed"), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.registrationBlocked(wallet); ok {
		return r, nil
	}

	t := m.current

	t.Players = append(t.Players, Player{
		Wallet:     wallet,
		EntryTime:  m.Clock.Now().UnixMilli(),
		BuyInProof: buyInProof,
	})
	t.PrizePool = t.BuyInAmount * float64(len(t.Players))

	err := m.Store.Save(t)
	if err != nil {
		t.Players = t.Players[:len(t.Players)-1]
		t.PrizePool = t.BuyInAmount * float64(len(t.Players))

		return Result{}, err
	}

	m.emit(Event{
		Type:         EventPlayerRegistered,
		TournamentID: t.ID,
		Wallet:       MaskWallet(wallet),
		PlayerCount:  len(t.Players),
		ExitedCount:  exitedCount(t.Players),
	})

	return success(fmt.Sprintf("Successfully registered for tournament %s", t.ID)), nil
}

// registrationBlocked must be called with the lock held.
func (m *ManagerService) registrationBlocked(wallet string) (Result, bool) {
	t := m.current

	if t == nil || t.Status != StatusActive {
		return failure(CodeNotActive, "No active tournament"), true
	}

	if t.Full() {
		return failure(CodeFull, "Tournament is full"), true
	}

	if t.FindPlayer(wallet) != nil {
		return failure(CodeAlreadyRegistered, "Already registered"), true
	}

	return Result{}, false
}

// RecordExit marks a registered wallet as exited. Exits are one-shot; the
// first valid exit wins and later attempts are rejected.
func (m *ManagerService) RecordExit(wallet, exitProof string) (Result, error) {
	m.mu.Lock()

	r, tokenID, ok := m.exitBlocked(wallet)
	if ok {
		m.mu.Unlock()

		return r, nil
	}
	m.mu.Unlock()

	if !m.Verifier.VerifyExit(exitProof, wallet, tokenID) {
		return failure(CodeProofRejected, "Proof verification failed"), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, _, ok := m.exitBlocked(wallet); ok {
		return r, nil
	}

	t := m.current
	player := t.FindPlayer(wallet)

	exitTime := m.Clock.Now().UnixMilli()
	player.ExitTime = &exitTime
	player.ExitProof = exitProof

	err := m.Store.Save(t)
	if err != nil {
		player.ExitTime = nil
		player.ExitProof = ""

		return Result{}, err
	}

	m.emit(Event{
		Type:         EventPlayerExited,
		TournamentID: t.ID,
		Wallet:       MaskWallet(wallet),
		PlayerCount:  len(t.Players),
		ExitedCount:  exitedCount(t.Players),
	})

	return success(fmt.Sprintf("Exit recorded at %s", time.UnixMilli(exitTime).UTC().Format(time.RFC3339))), nil
}

// exitBlocked must be called with the lock held.
func (m *ManagerService) exitBlocked(wallet string) (Result, string, bool) {
	t := m.current

	if t == nil || t.Status != StatusActive {
		return failure(CodeNotActive, "No active tournament"), "", true
	}

	player := t.FindPlayer(wallet)
	if player == nil {
		return failure(CodeNotRegistered, "Player not registered"), "", true
	}

	if player.Exited() {
		return failure(CodeAlreadyExited, "Already exited"), "", true
	}

	tokenID := ""
	if t.TokenID != nil {
		tokenID = *t.TokenID
	}

	return Result{}, tokenID, false
}

// ScheduleTermination arms the one-shot termination timer. Calling it twice
// for the same tournament is a programming error, not a runtime condition.
func (m *ManagerService) ScheduleTermination(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timerArmed {
		return ErrTerminationScheduled
	}

	if m.current == nil {
		return ErrRoundSuperseded
	}

	// The timer fires for the round it was armed for, never a successor.
	tournamentID := m.current.ID

	m.timerArmed = true
	m.timer = m.Clock.AfterFunc(d, func() {
		m.settle(tournamentID, false)
	})

	return nil
}

// Authorized compares an admin token against the configured secret in
// constant time.
func (m *ManagerService) Authorized(adminToken string) bool {
	given := sha256.Sum256([]byte(adminToken))
	expected := sha256.Sum256([]byte(m.AdminToken))

	return hmac.Equal(given[:], expected[:])
}

// ForceEnd settles the current tournament ahead of schedule. An
// unauthorized call has no side effects.
func (m *ManagerService) ForceEnd(adminToken string) Result {
	if !m.Authorized(adminToken) {
		return failure(CodeUnauthorized, "Unauthorized")
	}

	m.mu.Lock()
	tournamentID := ""
	if m.current != nil {
		tournamentID = m.current.ID
	}
	m.mu.Unlock()

	if tournamentID == "" || !m.settle(tournamentID, true) {
		return failure(CodeNotActive, "No active tournament")
	}

	return success("Tournament force ended")
}

// settle runs the terminal transition for the named round. The status
// check-and-set under the lock is the mutual-exclusion gate between the
// timer callback and a forced end: whichever observes Active first wins,
// the other returns false and does nothing. The ID pin stops a stale
// trigger from settling a successor round.
func (m *ManagerService) settle(tournamentID string, forced bool) bool {
	m.mu.Lock()

	t := m.current
	if t == nil || t.ID != tournamentID || t.Status != StatusActive {
		m.mu.Unlock()

		return false
	}

	t.Status = StatusSettling

	if forced {
		now := m.Clock.Now().UnixMilli()
		t.EndTime = &now
	}

	err := m.Store.Save(t)
	if err != nil {
		// The final save below persists the complete settled record.
		m.Logger.Error("failed to persist settling transition", "error", err)
	}

	var poolID, positionID string
	if t.PoolID != nil && t.PositionID != nil {
		poolID = *t.PoolID
		positionID = *t.PositionID
	}

	m.mu.Unlock()

	m.Logger.Info("settlement started", "tournament_id", tournamentID, "forced", forced)

	withdrawn := false

	if poolID != "" {
		_, err := m.Venue.WithdrawAllLiquidity(context.Background(), poolID, positionID)
		if err != nil {
			m.Logger.Error("liquidity withdrawal failed, settling anyway",
				"tournament_id", tournamentID,
				"pool_id", poolID,
				"error", err,
			)
		} else {
			withdrawn = true
		}
	}

	// Pull the cutoff slightly back from now so exits racing the withdrawal
	// are not unfairly excluded.
	cutoff := m.Clock.Now().UnixMilli() - m.SettlementMargin.Milliseconds()

	m.mu.Lock()

	if m.current == nil || m.current.ID != tournamentID {
		m.mu.Unlock()

		m.Logger.Warn("round replaced during settlement, discarding result", "tournament_id", tournamentID)

		return false
	}

	t.LiquidityWithdrawn = withdrawn
	t.Winners = ComputeWinners(t.Players, t.PrizePool, cutoff)
	t.Status = StatusEnded

	err = m.Store.Save(t)

	endTime := t.EndTime
	winnerCount := len(t.Winners)
	playerCount := len(t.Players)
	exited := exitedCount(t.Players)
	m.mu.Unlock()

	if err != nil {
		m.Logger.Error("failed to persist settled tournament", "error", err)
	}

	m.Logger.Info("tournament settled",
		"tournament_id", tournamentID,
		"winners", winnerCount,
		"players", playerCount,
		"liquidity_withdrawn", withdrawn,
	)

	m.emitEnded(Event{
		Type:         EventTournamentEnded,
		TournamentID: tournamentID,
		PlayerCount:  playerCount,
		ExitedCount:  exited,
		EndTime:      endTime,
		ForcedEnd:    forced,
	})

	return true
}

// Snapshot returns a deep copy of the current tournament, or nil before the
// first Init.
func (m *ManagerService) Snapshot() *Tournament {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current.Clone()
}

// CheckRegistration reports a wallet's standing in the named tournament.
func (m *ManagerService) CheckRegistration(tournamentID, wallet string) RegistrationCheck {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.current
	if t == nil || t.ID != tournamentID {
		return RegistrationCheck{}
	}

	player := t.FindPlayer(wallet)

	return RegistrationCheck{
		Success:    true,
		Registered: player != nil,
		HasExited:  player != nil && player.Exited(),
	}
}

func (m *ManagerService) fail(tournamentID, reason string, cause error) {
	m.Logger.Error("tournament failed", "tournament_id", tournamentID, "reason", reason, "error", cause)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.ID != tournamentID {
		return
	}

	m.current.Status = StatusFailed

	err := m.Store.Save(m.current)
	if err != nil {
		m.Logger.Error("failed to persist failed tournament", "error", err)
	}
}

func (m *ManagerService) emit(ev Event) {
	if m.Events == nil {
		return
	}

	// Drop rather than stall a roster mutation on a slow consumer.
	select {
	case m.Events <- ev:
	default:
	}
}

// emitEnded waits for buffer space instead of dropping. The settlement frame
// fires once per round; losing it would leave subscribed clients hanging on
// a round that already ended.
func (m *ManagerService) emitEnded(ev Event) {
	if m.Events == nil {
		return
	}

	select {
	case m.Events <- ev:
	case <-m.Clock.After(5 * time.Second):
		m.Logger.Error("event sink stalled, dropping settlement event", "tournament_id", ev.TournamentID)
	}
}

func exitedCount(players []Player) int {
	count := 0

	for _, p := range players {
		if p.Exited() {
			count++
		}
	}

	return count
}

package api_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perprug/royale/internal/pkg/api"
	"github.com/perprug/royale/internal/pkg/common"
	"github.com/perprug/royale/internal/pkg/proof"
	"github.com/perprug/royale/internal/pkg/tournament"
	"github.com/perprug/royale/internal/pkg/venue"
)

const testSecret = "proof-secret"

func newAPIService(t *testing.T, clock clockwork.Clock) *api.APIService {
	t.Helper()

	i := do.New()
	do.ProvideNamedValue(i, "data-dir", t.TempDir())

	databaseService, err := common.NewDatabaseService(i)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = databaseService.Shutdown()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	manager := &tournament.ManagerService{
		Store:    tournament.NewBoltStore(databaseService.DB),
		Venue:    &venue.SimulatedVenue{Logger: logger},
		Verifier: &proof.HMACVerifier{Secret: []byte(testSecret)},
		Logger:   logger,
		Clock:    clock,

		BuyInAmount:      0.01,
		MaxPlayers:       100,
		Duration:         30 * time.Minute,
		SettlementMargin: time.Second,
		PoolDeposit:      0.01,
		AdminToken:       "admin-secret",
	}

	return &api.APIService{Manager: manager}
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func TestPostRegister(t *testing.T) {
	t.Parallel()

	e := echo.New()
	s := newAPIService(t, clockwork.NewRealClock())

	_, err := s.Manager.Run(t.Context())
	require.NoError(t, err)

	buyInProof := proof.Sign([]byte(testSecret), proof.BuyInMessage("wallet-1"))

	c, rec := jsonContext(e, http.MethodPost, "/api/battle-royale/register",
		`{"wallet":"wallet-1","proof":"`+buyInProof+`"}`)

	err = s.PostRegister(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var result tournament.Result

	err = json.Unmarshal(rec.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, tournament.CodePersisted, result.Code)
}

func TestPostRegisterRejectsMissingFields(t *testing.T) {
	t.Parallel()

	e := echo.New()
	s := newAPIService(t, clockwork.NewRealClock())

	c, _ := jsonContext(e, http.MethodPost, "/api/battle-royale/register", `{"proof":"something"}`)

	err := s.PostRegister(c)

	var httpErr *echo.HTTPError

	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestGetStatus(t *testing.T) {
	t.Parallel()

	e := echo.New()
	s := newAPIService(t, clockwork.NewRealClock())

	snap, err := s.Manager.Run(t.Context())
	require.NoError(t, err)

	buyInProof := proof.Sign([]byte(testSecret), proof.BuyInMessage("wallet-1"))

	result, err := s.Manager.Register("wallet-1", buyInProof)
	require.NoError(t, err)
	require.True(t, result.OK)

	c, rec := jsonContext(e, http.MethodGet, "/api/battle-royale/status", "")

	err = s.GetStatus(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool               `json:"success"`
		Data    api.StatusResponse `json:"data"`
	}

	err = json.Unmarshal(rec.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.True(t, envelope.Success)
	assert.True(t, envelope.Data.IsActive)
	assert.Equal(t, snap.ID, envelope.Data.TournamentID)
	assert.Equal(t, 1, envelope.Data.PlayerCount)
	assert.InDelta(t, 0.01, envelope.Data.PrizePool, 1e-9)
}

func TestGetLeaderboardDuringRound(t *testing.T) {
	t.Parallel()

	e := echo.New()
	fc := clockwork.NewFakeClock()
	s := newAPIService(t, fc)

	_, err := s.Manager.Run(t.Context())
	require.NoError(t, err)

	wallet := "Gnkp9MZSFAs6af6i6zYZJFHMb5RaezXZiKUBRKXTmqbM"

	buyInProof := proof.Sign([]byte(testSecret), proof.BuyInMessage(wallet))
	_, err = s.Manager.Register(wallet, buyInProof)
	require.NoError(t, err)

	tokenID := *s.Manager.Snapshot().TokenID

	exitProof := proof.Sign([]byte(testSecret), proof.ExitMessage(wallet, tokenID))
	result, err := s.Manager.RecordExit(wallet, exitProof)
	require.NoError(t, err)
	require.True(t, result.OK)

	// Recency renders off the same clock the manager runs on.
	fc.Advance(30 * time.Second)

	c, rec := jsonContext(e, http.MethodGet, "/api/battle-royale/leaderboard", "")

	err = s.GetLeaderboard(c)
	require.NoError(t, err)

	var envelope struct {
		Success bool                    `json:"success"`
		Data    api.LeaderboardResponse `json:"data"`
	}

	err = json.Unmarshal(rec.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.True(t, envelope.Data.IsActive)
	require.Len(t, envelope.Data.Leaderboard, 1)

	entry := envelope.Data.Leaderboard[0]
	assert.Equal(t, 1, entry.Rank)
	assert.Equal(t, "Gnkp...mqbM", entry.Wallet)
	assert.NotNil(t, entry.ExitTime)
	assert.Equal(t, "30s ago", entry.ExitTimeAgo)
}

func TestPostForceEnd(t *testing.T) {
	t.Parallel()

	e := echo.New()
	s := newAPIService(t, clockwork.NewRealClock())

	_, err := s.Manager.Run(t.Context())
	require.NoError(t, err)

	c, rec := jsonContext(e, http.MethodPost, "/api/battle-royale/force-end", `{"adminKey":"wrong"}`)

	err = s.PostForceEnd(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, tournament.StatusActive, s.Manager.Snapshot().Status)

	c, rec = jsonContext(e, http.MethodPost, "/api/battle-royale/force-end", `{"adminKey":"admin-secret"}`)

	err = s.PostForceEnd(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tournament.StatusEnded, s.Manager.Snapshot().Status)
}

func TestFormatLatency(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "430ms", api.FormatLatency(430))
	assert.Equal(t, "12s", api.FormatLatency(12_000))
	assert.Equal(t, "59s", api.FormatLatency(59_999))
	assert.Equal(t, "1m 0s", api.FormatLatency(60_000))
	assert.Equal(t, "2m 10s", api.FormatLatency(130_000))
}

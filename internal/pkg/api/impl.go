package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/perprug/royale/internal/pkg/common"
	"github.com/perprug/royale/internal/pkg/tournament"
	"github.com/samber/do/v2"
)

type APIService struct {
	Manager *tournament.ManagerService
}

func NewAPIService(i do.Injector) (*APIService, error) {
	manager := do.MustInvoke[*tournament.ManagerService](i)

	result := &APIService{
		Manager: manager,
	}

	echoService, err := do.Invoke[*common.EchoService](i)
	if err != nil {
		return nil, fmt.Errorf("failed to create echo service: %w", err)
	}

	echoService.Register(func(e *echo.Echo) {
		e.GET("/health", result.Health)

		apiGroup := e.Group("/api")

		battleRoyaleGroup := apiGroup.Group("/battle-royale")

		battleRoyaleGroup.GET("/status", result.GetStatus)
		battleRoyaleGroup.GET("/leaderboard", result.GetLeaderboard)
		battleRoyaleGroup.GET("/check/:tournamentId/:wallet", result.GetRegistrationCheck)
		battleRoyaleGroup.POST("/register", result.PostRegister)
		battleRoyaleGroup.POST("/exit", result.PostExit)
		battleRoyaleGroup.POST("/start", result.PostStart)
		battleRoyaleGroup.POST("/force-end", result.PostForceEnd)
	})

	return result, nil
}

func (s *APIService) Health(c echo.Context) error {
	//nolint:wrapcheck
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *APIService) GetStatus(c echo.Context) error {
	t := s.Manager.Snapshot()
	if t == nil {
		//nolint:wrapcheck
		return c.JSON(http.StatusOK, Envelope{Success: true, Data: StatusResponse{Winners: []PublicWinner{}}})
	}

	winners := make([]PublicWinner, 0, len(t.Winners))
	for _, w := range t.Winners {
		winners = append(winners, PublicWinner{
			Wallet:      tournament.MaskWallet(w.Wallet),
			Tier:        w.Tier,
			Reward:      w.Reward,
			ExitLatency: w.ExitLatency,
		})
	}

	status := StatusResponse{
		IsActive:     t.Status == tournament.StatusActive,
		TournamentID: t.ID,
		StartTime:    t.StartTime,
		EndTime:      t.EndTime,
		PlayerCount:  len(t.Players),
		MaxPlayers:   t.MaxPlayers,
		PrizePool:    t.PrizePool,
		Winners:      winners,
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: status})
}

func (s *APIService) GetLeaderboard(c echo.Context) error {
	t := s.Manager.Snapshot()
	if t == nil {
		//nolint:wrapcheck
		return c.JSON(http.StatusOK, Envelope{Success: true, Data: LeaderboardResponse{Leaderboard: []LeaderboardEntry{}}})
	}

	response := LeaderboardResponse{
		TournamentID: t.ID,
		IsActive:     t.Status == tournament.StatusActive,
		Leaderboard:  []LeaderboardEntry{},
	}

	if t.Status == tournament.StatusActive {
		response.Leaderboard = activeLeaderboard(t, s.Manager.Clock.Now().UnixMilli())
	} else {
		for idx, w := range t.Winners {
			response.Leaderboard = append(response.Leaderboard, LeaderboardEntry{
				Rank:           idx + 1,
				Wallet:         tournament.MaskWallet(w.Wallet),
				Tier:           w.Tier,
				Reward:         w.Reward,
				ExitTimeToPull: FormatLatency(w.ExitLatency),
			})
		}
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: response})
}

func (s *APIService) GetRegistrationCheck(c echo.Context) error {
	check := s.Manager.CheckRegistration(c.Param("tournamentId"), c.Param("wallet"))

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, check)
}

func (s *APIService) PostRegister(c echo.Context) error {
	var req RegisterRequest

	err := c.Bind(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Wallet == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "wallet address required")
	}

	if req.Proof == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "buy-in proof required")
	}

	result, err := s.Manager.Register(req.Wallet, req.Proof)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist registration")
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, result)
}

func (s *APIService) PostExit(c echo.Context) error {
	var req ExitRequest

	err := c.Bind(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Wallet == "" || req.Proof == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "wallet address and exit proof required")
	}

	result, err := s.Manager.RecordExit(req.Wallet, req.Proof)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist exit")
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, result)
}

func (s *APIService) PostStart(c echo.Context) error {
	var req AdminRequest

	err := c.Bind(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if !s.Manager.Authorized(req.AdminKey) {
		return echo.NewHTTPError(http.StatusForbidden, "Unauthorized")
	}

	go func() {
		// Run logs and marks the round failed on provisioning errors.
		_, _ = s.Manager.Run(context.Background())
	}()

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: "Battle Royale tournament started"})
}

func (s *APIService) PostForceEnd(c echo.Context) error {
	var req AdminRequest

	err := c.Bind(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result := s.Manager.ForceEnd(req.AdminKey)
	if result.Code == tournament.CodeUnauthorized {
		//nolint:wrapcheck
		return c.JSON(http.StatusForbidden, result)
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, result)
}

// activeLeaderboard lists exited players, most recent exit first.
func activeLeaderboard(t *tournament.Tournament, now int64) []LeaderboardEntry {
	exited := []tournament.Player{}

	for _, p := range t.Players {
		if p.Exited() {
			exited = append(exited, p)
		}
	}

	sort.SliceStable(exited, func(a, b int) bool {
		return *exited[a].ExitTime > *exited[b].ExitTime
	})

	entries := make([]LeaderboardEntry, 0, len(exited))
	for idx, p := range exited {
		secondsAgo := (now - *p.ExitTime) / 1000

		entries = append(entries, LeaderboardEntry{
			Rank:        idx + 1,
			Wallet:      tournament.MaskWallet(p.Wallet),
			ExitTime:    p.ExitTime,
			ExitTimeAgo: fmt.Sprintf("%ds ago", secondsAgo),
		})
	}

	return entries
}

// FormatLatency renders a latency-to-cutoff for display.
func FormatLatency(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}

	if ms < 60_000 {
		return fmt.Sprintf("%ds", ms/1000)
	}

	return fmt.Sprintf("%dm %ds", ms/60_000, (ms%60_000)/1000)
}

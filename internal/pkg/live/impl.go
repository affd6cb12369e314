package live

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/perprug/royale/internal/pkg/common"
	"github.com/perprug/royale/internal/pkg/tournament"
	"github.com/samber/do/v2"
)

const recentExitsLimit = 10

// HubService fans lifecycle events out to WebSocket clients. Clients get a
// status snapshot on connect; joining a tournament channel subscribes them
// to that round's events, ending with the single tournamentEnded broadcast.
type HubService struct {
	Manager *tournament.ManagerService
	Events  <-chan tournament.Event
	Logger  *slog.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

type client struct {
	conn *websocket.Conn

	mu           sync.Mutex
	tournamentID string
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	//nolint:wrapcheck
	return c.conn.WriteJSON(v)
}

func (c *client) joined() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.tournamentID
}

func (c *client) join(tournamentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tournamentID = tournamentID
}

func NewHubService(i do.Injector) (*HubService, error) {
	manager := do.MustInvoke[*tournament.ManagerService](i)
	eventSource := do.MustInvokeNamed[<-chan tournament.Event](i, "event-source")
	logger := do.MustInvokeNamed[*slog.Logger](i, "logger")

	result := &HubService{
		Manager: manager,
		Events:  eventSource,
		Logger:  logger.With("component", "live"),

		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},

		clients: map[*client]struct{}{},
		done:    make(chan struct{}),
	}

	echoService, err := do.Invoke[*common.EchoService](i)
	if err != nil {
		return nil, fmt.Errorf("failed to create echo service: %w", err)
	}

	echoService.Register(func(e *echo.Echo) {
		e.GET("/ws", result.Serve)
	})

	return result, nil
}

// Start begins broadcasting manager events to connected clients.
func (s *HubService) Start() {
	s.wg.Add(1)
	go s.broadcastLoop()
}

// Stop shuts the broadcast loop down and disconnects every client.
func (s *HubService) Stop(ctx context.Context) error {
	close(s.done)

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		return fmt.Errorf("failed to stop hub: %w", ctx.Err())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		_ = c.conn.Close()
	}

	s.clients = map[*client]struct{}{}

	return nil
}

func (s *HubService) Serve(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	cl := &client{conn: conn}

	err = cl.send(s.statusFrame())
	if err != nil {
		_ = conn.Close()

		//nolint:nilerr // Handshake succeeded; nothing more to report upstream.
		return nil
	}

	s.mu.Lock()
	s.clients[cl] = struct{}{}
	s.mu.Unlock()

	s.readLoop(cl)

	s.mu.Lock()
	delete(s.clients, cl)
	s.mu.Unlock()

	_ = conn.Close()

	return nil
}

func (s *HubService) readLoop(cl *client) {
	for {
		var cmd ClientCommand

		err := cl.conn.ReadJSON(&cmd)
		if err != nil {
			return
		}

		if cmd.Type != "joinTournament" {
			continue
		}

		t := s.Manager.Snapshot()
		if t == nil || t.ID != cmd.TournamentID {
			_ = cl.send(ErrorFrame{Type: "error", Message: "Tournament not found or not active"})

			continue
		}

		cl.join(t.ID)

		status := "ended"
		if t.Status == tournament.StatusActive {
			status = "active"
		}

		_ = cl.send(DataFrame{
			Type:        "tournamentData",
			ID:          t.ID,
			Status:      status,
			PlayerCount: len(t.Players),
			ExitedCount: exitedCount(t),
			StartTime:   t.StartTime,
			EndTime:     t.EndTime,
		})

		_ = cl.send(RecentExitsFrame{
			Type:  "recentExits",
			Exits: recentExits(t, s.Manager.Clock.Now().UnixMilli()),
		})
	}
}

func (s *HubService) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.Events:
			if !ok {
				return
			}

			s.broadcast(ev)
		}
	}
}

// broadcast delivers an event to every client subscribed to its tournament.
// tournamentStarted goes to everyone so lobbies learn about new rounds.
func (s *HubService) broadcast(ev tournament.Event) {
	s.mu.Lock()

	targets := make([]*client, 0, len(s.clients))
	for cl := range s.clients {
		if ev.Type == tournament.EventTournamentStarted || cl.joined() == ev.TournamentID {
			targets = append(targets, cl)
		}
	}
	s.mu.Unlock()

	for _, cl := range targets {
		err := cl.send(ev)
		if err != nil {
			s.Logger.Debug("failed to deliver event, dropping client", "error", err)

			s.mu.Lock()
			delete(s.clients, cl)
			s.mu.Unlock()

			_ = cl.conn.Close()
		}
	}
}

func (s *HubService) statusFrame() StatusFrame {
	t := s.Manager.Snapshot()
	if t == nil {
		return StatusFrame{Type: "tournamentStatus"}
	}

	return StatusFrame{
		Type:         "tournamentStatus",
		IsActive:     t.Status == tournament.StatusActive,
		TournamentID: t.ID,
		StartTime:    t.StartTime,
		EndTime:      t.EndTime,
		PlayerCount:  len(t.Players),
		ExitedCount:  exitedCount(t),
	}
}

func exitedCount(t *tournament.Tournament) int {
	count := 0

	for _, p := range t.Players {
		if p.Exited() {
			count++
		}
	}

	return count
}

func recentExits(t *tournament.Tournament, now int64) []RecentExit {
	exited := []tournament.Player{}

	for _, p := range t.Players {
		if p.Exited() {
			exited = append(exited, p)
		}
	}

	sort.SliceStable(exited, func(a, b int) bool {
		return *exited[a].ExitTime > *exited[b].ExitTime
	})

	if len(exited) > recentExitsLimit {
		exited = exited[:recentExitsLimit]
	}

	result := make([]RecentExit, 0, len(exited))
	for _, p := range exited {
		result = append(result, RecentExit{
			Wallet:      tournament.MaskWallet(p.Wallet),
			ExitTimeAgo: fmt.Sprintf("%ds ago", (now-*p.ExitTime)/1000),
		})
	}

	return result
}

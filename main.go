package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/samber/do/v2"

	"github.com/perprug/royale/internal/pkg/api"
	"github.com/perprug/royale/internal/pkg/common"
	"github.com/perprug/royale/internal/pkg/live"
	"github.com/perprug/royale/internal/pkg/proof"
	"github.com/perprug/royale/internal/pkg/scheduler"
	"github.com/perprug/royale/internal/pkg/tournament"
	"github.com/perprug/royale/internal/pkg/venue"

	"github.com/urfave/cli/v3"
)

type RoyaleService struct {
	EchoService *common.EchoService `do:""`

	ManagerService *tournament.ManagerService `do:""`
	APIService     *api.APIService            `do:""`
	HubService     *live.HubService           `do:""`
	KickoffService *scheduler.KickoffService  `do:""`
}

func runServer(_ context.Context, cmd *cli.Command) error {
	i := do.New()

	do.ProvideNamedValue(i, "port", cmd.Int("port"))
	do.ProvideNamedValue(i, "data-dir", cmd.String("data-dir"))

	do.ProvideNamedValue(i, "admin-token", cmd.String("admin-token"))
	do.ProvideNamedValue(i, "proof-secret", cmd.String("proof-secret"))
	do.ProvideNamedValue(i, "buy-in", cmd.Float("buy-in"))
	do.ProvideNamedValue(i, "pool-deposit", cmd.Float("pool-deposit"))
	do.ProvideNamedValue(i, "max-players", cmd.Int("max-players"))
	do.ProvideNamedValue(i, "duration", cmd.Duration("duration"))
	do.ProvideNamedValue(i, "settlement-margin", cmd.Duration("settlement-margin"))
	do.ProvideNamedValue(i, "kickoff-cron", cmd.String("kickoff-cron"))

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	do.ProvideNamedValue(i, "logger", logger)

	do.ProvideNamedValue[clockwork.Clock](i, "clock", clockwork.NewRealClock())

	eventChan := make(chan tournament.Event, 1000)
	var eventSource <-chan tournament.Event = eventChan
	var eventSink chan<- tournament.Event = eventChan

	do.ProvideNamedValue(i, "event-source", eventSource)
	do.ProvideNamedValue(i, "event-sink", eventSink)

	do.Provide(i, common.NewEchoService)
	do.Provide(i, common.NewDatabaseService)

	do.Provide(i, venue.NewVenueService)
	do.Provide(i, proof.NewVerifierService)
	do.Provide(i, tournament.NewManagerService)
	do.Provide(i, api.NewAPIService)
	do.Provide(i, live.NewHubService)
	do.Provide(i, scheduler.NewKickoffService)

	do.Provide(i, do.InvokeStruct[RoyaleService])

	royaleService, err := do.Invoke[RoyaleService](i)
	if err != nil {
		return fmt.Errorf("failed to create royale service: %w", err)
	}

	err = royaleService.ManagerService.Start()
	if err != nil {
		return fmt.Errorf("failed to recover tournament manager: %w", err)
	}

	royaleService.HubService.Start()

	err = royaleService.KickoffService.Start()
	if err != nil {
		return fmt.Errorf("failed to start kickoff scheduler: %w", err)
	}

	//nolint:wrapcheck
	return royaleService.EchoService.Start()
}

func main() {
	// Optional; flags fall back to process env vars.
	_ = godotenv.Load()

	//nolint:exhaustruct
	cmd := &cli.Command{
		Name: "royale",
		Commands: []*cli.Command{
			{
				Name: "server",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Value:   3000, //nolint:mnd
						Sources: cli.EnvVars("ROYALE_PORT"),
					},
					&cli.StringFlag{
						Name:    "data-dir",
						Value:   "./royale/data",
						Sources: cli.EnvVars("ROYALE_DATA_DIR"),
					},
					&cli.StringFlag{
						Name:    "admin-token",
						Value:   "admin-secret",
						Sources: cli.EnvVars("ROYALE_ADMIN_TOKEN"),
					},
					&cli.StringFlag{
						Name:    "proof-secret",
						Value:   "secret",
						Sources: cli.EnvVars("ROYALE_PROOF_SECRET"),
					},
					&cli.FloatFlag{
						Name:    "buy-in",
						Value:   0.01, //nolint:mnd
						Sources: cli.EnvVars("ROYALE_BUY_IN"),
					},
					&cli.FloatFlag{
						Name:    "pool-deposit",
						Value:   0.01, //nolint:mnd
						Sources: cli.EnvVars("ROYALE_POOL_DEPOSIT"),
					},
					&cli.IntFlag{
						Name:    "max-players",
						Value:   100, //nolint:mnd
						Sources: cli.EnvVars("ROYALE_MAX_PLAYERS"),
					},
					&cli.DurationFlag{
						Name:    "duration",
						Value:   30 * time.Minute, //nolint:mnd
						Sources: cli.EnvVars("ROYALE_DURATION"),
					},
					&cli.DurationFlag{
						Name:    "settlement-margin",
						Value:   time.Second,
						Sources: cli.EnvVars("ROYALE_SETTLEMENT_MARGIN"),
					},
					&cli.StringFlag{
						Name:    "kickoff-cron",
						Value:   "",
						Sources: cli.EnvVars("ROYALE_KICKOFF_CRON"),
					},
				},
				Action: runServer,
			},
		},
		DefaultCommand: "server",
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

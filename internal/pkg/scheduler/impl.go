package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
	"github.com/perprug/royale/internal/pkg/tournament"
	"github.com/samber/do/v2"
)

// KickoffService starts a fresh tournament on a cron schedule, e.g.
// "0 12,20 * * *" for two rounds a day. An empty expression disables
// scheduled kickoffs; rounds then start only via the admin endpoint.
type KickoffService struct {
	Manager *tournament.ManagerService
	Logger  *slog.Logger

	CronExpr string

	scheduler gocron.Scheduler
}

func NewKickoffService(i do.Injector) (*KickoffService, error) {
	manager := do.MustInvoke[*tournament.ManagerService](i)
	logger := do.MustInvokeNamed[*slog.Logger](i, "logger")
	cronExpr := do.MustInvokeNamed[string](i, "kickoff-cron")

	return &KickoffService{
		Manager:  manager,
		Logger:   logger.With("component", "scheduler"),
		CronExpr: cronExpr,
	}, nil
}

func (s *KickoffService) Start() error {
	if s.CronExpr == "" {
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(s.CronExpr, false),
		gocron.NewTask(func() {
			s.Logger.Info("starting scheduled tournament")

			_, err := s.Manager.Run(context.Background())
			if err != nil {
				s.Logger.Error("scheduled tournament failed", "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule kickoff job: %w", err)
	}

	s.scheduler = scheduler
	scheduler.Start()

	s.Logger.Info("kickoff schedule armed", "cron", s.CronExpr)

	return nil
}

func (s *KickoffService) Shutdown() error {
	if s.scheduler == nil {
		return nil
	}

	err := s.scheduler.Shutdown()
	if err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}

	return nil
}

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cricworks/cricstats/internal/config"
	"github.com/cricworks/cricstats/internal/platform/logging"
	"github.com/cricworks/cricstats/internal/usecase"
)

const jobTimeout = 10 * time.Minute

// Scheduler runs the periodic sync and weather-refresh jobs in-process.
// Deployments that drive syncs over the admin HTTP routes leave it disabled.
type Scheduler struct {
	cron   *cron.Cron
	logger *logging.Logger
}

func NewScheduler(
	cfg config.Config,
	orchestrator *usecase.SyncOrchestratorService,
	weatherRisk *usecase.WeatherRiskService,
	logger *logging.Logger,
) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if orchestrator == nil {
		return nil, fmt.Errorf("%w: sync orchestrator is required", usecase.ErrInvalidInput)
	}
	if weatherRisk == nil {
		return nil, fmt.Errorf("%w: weather risk service is required", usecase.ErrInvalidInput)
	}

	cronLog := cronLogger{logger: logger}
	runner := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLog),
		cron.Recover(cronLog),
	))

	s := &Scheduler{cron: runner, logger: logger}

	if _, err := runner.AddFunc(cfg.SyncCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		result, err := orchestrator.SyncAll(ctx, usecase.SyncAllInput{
			Kinds:      []string{"fixtures", "series"},
			MaxWorkers: cfg.SyncMaxWorkers,
		})
		if err != nil {
			logger.ErrorContext(ctx, "scheduled sync failed", "error", err)
			return
		}
		logger.InfoContext(ctx, "scheduled sync finished",
			"tasks", result.TaskCount,
			"succeeded", result.SuccessCount,
			"failed", result.FailedCount,
		)
	}); err != nil {
		return nil, fmt.Errorf("schedule sync job: %w", err)
	}

	if _, err := runner.AddFunc(cfg.WeatherCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		result, err := weatherRisk.RefreshUpcoming(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "scheduled weather refresh failed", "error", err)
			return
		}
		logger.InfoContext(ctx, "scheduled weather refresh finished",
			"matches_evaluated", result.MatchesEvaluated,
			"risks_updated", result.RisksUpdated,
			"matches_skipped", result.MatchesSkipped,
		)
	}); err != nil {
		return nil, fmt.Errorf("schedule weather job: %w", err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("job scheduler starting")
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.logger.Info("job scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type cronLogger struct {
	logger *logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.logger.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"error", err}, keysAndValues...)
	c.logger.Error(msg, args...)
}

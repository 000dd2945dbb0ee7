package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/cricworks/cricstats/internal/platform/logging"
)

type syncTaskKind string

const (
	syncTaskFixtures syncTaskKind = "fixtures"
	syncTaskSeries   syncTaskKind = "series"
	syncTaskWeather  syncTaskKind = "weather"

	syncTaskStatusSuccess = "success"
	syncTaskStatusFailed  = "failed"

	maxSyncWorkers = 3
)

type SyncAllInput struct {
	// Kinds selects which syncs to run; empty means all of them.
	Kinds      []string
	MaxWorkers int
}

type SyncTaskRow struct {
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Records    int    `json:"records"`
	DurationMs int64  `json:"durationMs"`
	Message    string `json:"message,omitempty"`
}

type SyncAllResult struct {
	TaskCount    int           `json:"taskCount"`
	SuccessCount int           `json:"successCount"`
	FailedCount  int           `json:"failedCount"`
	WorkerCount  int           `json:"workerCount"`
	Tasks        []SyncTaskRow `json:"tasks"`
}

// SyncOrchestratorService fans the independent sync kinds (fixtures, series,
// weather) out over a small worker pool. Each kind keeps its own strictly
// sequential provider fallback internally; only the kinds run concurrently.
type SyncOrchestratorService struct {
	fixtures *FixtureSyncService
	series   *SeriesSyncService
	weather  *WeatherRiskService
	logger   *logging.Logger
}

func NewSyncOrchestratorService(
	fixtures *FixtureSyncService,
	series *SeriesSyncService,
	weather *WeatherRiskService,
	logger *logging.Logger,
) *SyncOrchestratorService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncOrchestratorService{
		fixtures: fixtures,
		series:   series,
		weather:  weather,
		logger:   logger,
	}
}

func (s *SyncOrchestratorService) SyncAll(ctx context.Context, input SyncAllInput) (SyncAllResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncOrchestratorService.SyncAll")
	defer span.End()

	kinds, err := normalizeSyncKinds(input.Kinds)
	if err != nil {
		return SyncAllResult{}, err
	}

	workerCount := input.MaxWorkers
	if workerCount < 1 || workerCount > maxSyncWorkers {
		workerCount = maxSyncWorkers
	}
	if workerCount > len(kinds) {
		workerCount = len(kinds)
	}

	result := SyncAllResult{
		TaskCount:   len(kinds),
		WorkerCount: workerCount,
		Tasks:       make([]SyncTaskRow, 0, len(kinds)),
	}
	if len(kinds) == 0 {
		return result, nil
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return SyncAllResult{}, fmt.Errorf("create sync worker pool: %w", err)
	}
	defer pool.Release()

	rows := make(chan SyncTaskRow, len(kinds))
	var successCount atomic.Int32
	var failedCount atomic.Int32

	var workers sync.WaitGroup
	for _, kind := range kinds {
		kind := kind
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			records, runErr := s.runSyncTask(ctx, kind)
			row := SyncTaskRow{
				Kind:       string(kind),
				Records:    records,
				DurationMs: time.Since(start).Milliseconds(),
			}
			if runErr != nil {
				row.Status = syncTaskStatusFailed
				row.Message = runErr.Error()
				failedCount.Add(1)
			} else {
				row.Status = syncTaskStatusSuccess
				successCount.Add(1)
			}
			rows <- row
		}); err != nil {
			workers.Done()
			return SyncAllResult{}, fmt.Errorf("submit sync task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(rows)

	for row := range rows {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].Kind < result.Tasks[j].Kind
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	return result, nil
}

func (s *SyncOrchestratorService) runSyncTask(ctx context.Context, kind syncTaskKind) (int, error) {
	switch kind {
	case syncTaskFixtures:
		if s.fixtures == nil {
			return 0, fmt.Errorf("%w: fixture sync is not configured", ErrDependencyUnavailable)
		}
		res, err := s.fixtures.SyncUpcoming(ctx)
		if err != nil {
			return 0, err
		}
		return res.MatchesInserted + res.MatchesUpdated, nil
	case syncTaskSeries:
		if s.series == nil {
			return 0, fmt.Errorf("%w: series sync is not configured", ErrDependencyUnavailable)
		}
		res, err := s.series.SyncUpcoming(ctx)
		if err != nil {
			return 0, err
		}
		return res.SeriesUpserted + res.SeriesMatchesUpserted, nil
	case syncTaskWeather:
		if s.weather == nil {
			return 0, fmt.Errorf("%w: weather risk refresh is not configured", ErrDependencyUnavailable)
		}
		res, err := s.weather.RefreshUpcoming(ctx)
		if err != nil {
			return 0, err
		}
		return res.RisksUpdated, nil
	default:
		return 0, fmt.Errorf("%w: unknown sync kind %q", ErrInvalidInput, kind)
	}
}

func normalizeSyncKinds(raw []string) ([]syncTaskKind, error) {
	all := []syncTaskKind{syncTaskFixtures, syncTaskSeries, syncTaskWeather}
	if len(raw) == 0 {
		return all, nil
	}

	known := make(map[syncTaskKind]struct{}, len(all))
	for _, kind := range all {
		known[kind] = struct{}{}
	}

	out := make([]syncTaskKind, 0, len(raw))
	seen := make(map[syncTaskKind]struct{}, len(raw))
	for _, item := range raw {
		kind := syncTaskKind(strings.ToLower(strings.TrimSpace(item)))
		if kind == "" {
			continue
		}
		if _, ok := known[kind]; !ok {
			return nil, fmt.Errorf("%w: unknown sync kind %q", ErrInvalidInput, item)
		}
		if _, dup := seen[kind]; dup {
			continue
		}
		seen[kind] = struct{}{}
		out = append(out, kind)
	}

	return out, nil
}

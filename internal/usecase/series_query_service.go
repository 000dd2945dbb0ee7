package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cricworks/cricstats/internal/domain/series"
	"github.com/cricworks/cricstats/internal/platform/logging"
)

const (
	defaultSeriesPageSize = 20
	maxSeriesPageSize     = 100

	// Matches previewed per series in the upcoming listing.
	upcomingSeriesMatchLimit = 10
)

// UpcomingSeriesItem is one listed series with a preview of its next
// matches. EffectiveDate is the start date when known, else the end date,
// else the last sync time; the listing is ordered by it.
type UpcomingSeriesItem struct {
	Series        series.Series
	EffectiveDate time.Time
	Matches       []series.SeriesMatch
}

type UpcomingSeriesResult struct {
	Items      []UpcomingSeriesItem
	TotalCount int
}

type SeriesDetailsResult struct {
	Series     series.Series
	Matches    []series.SeriesMatch
	TotalCount int
	Page       int
	PageSize   int
}

// SeriesQueryService serves series reads, with the same empty-store sync
// trigger as match reads.
type SeriesQueryService struct {
	repo   series.Repository
	sync   *SeriesSyncService
	logger *logging.Logger
	now    func() time.Time
}

func NewSeriesQueryService(repo series.Repository, sync *SeriesSyncService, logger *logging.Logger) *SeriesQueryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SeriesQueryService{repo: repo, sync: sync, logger: logger, now: time.Now}
}

func (s *SeriesQueryService) Upcoming(ctx context.Context, from, to *time.Time) (UpcomingSeriesResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeriesQueryService.Upcoming")
	defer span.End()

	if s.repo == nil {
		return UpcomingSeriesResult{}, fmt.Errorf("%w: series repository is not configured", ErrDependencyUnavailable)
	}
	if from != nil && to != nil && from.After(*to) {
		return UpcomingSeriesResult{}, fmt.Errorf("%w: from must not be after to", ErrInvalidInput)
	}

	if err := s.syncIfEmpty(ctx); err != nil {
		return UpcomingSeriesResult{}, err
	}

	rows, err := s.repo.ListUpcoming(ctx, from, to)
	if err != nil {
		return UpcomingSeriesResult{}, fmt.Errorf("list upcoming series: %w", err)
	}

	now := s.now().UTC()
	items := make([]UpcomingSeriesItem, 0, len(rows))
	for _, row := range rows {
		matches, err := s.repo.ListUpcomingMatches(ctx, row.ID, now, upcomingSeriesMatchLimit)
		if err != nil {
			return UpcomingSeriesResult{}, fmt.Errorf("list upcoming matches series_id=%s: %w", row.ID, err)
		}
		items = append(items, UpcomingSeriesItem{
			Series:        row,
			EffectiveDate: seriesEffectiveDate(row),
			Matches:       matches,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].EffectiveDate.Equal(items[j].EffectiveDate) {
			return items[i].EffectiveDate.Before(items[j].EffectiveDate)
		}
		return items[i].Series.Name < items[j].Series.Name
	})

	return UpcomingSeriesResult{Items: items, TotalCount: len(items)}, nil
}

func seriesEffectiveDate(row series.Series) time.Time {
	switch {
	case row.StartDate != nil:
		return *row.StartDate
	case row.EndDate != nil:
		return *row.EndDate
	default:
		return row.LastSyncedAt
	}
}

func (s *SeriesQueryService) Details(ctx context.Context, seriesID string, page, pageSize int) (SeriesDetailsResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeriesQueryService.Details")
	defer span.End()

	if s.repo == nil {
		return SeriesDetailsResult{}, fmt.Errorf("%w: series repository is not configured", ErrDependencyUnavailable)
	}
	if strings.TrimSpace(seriesID) == "" {
		return SeriesDetailsResult{}, fmt.Errorf("%w: series id is required", ErrInvalidInput)
	}
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultSeriesPageSize
	}
	if page < 1 {
		return SeriesDetailsResult{}, fmt.Errorf("%w: page must be at least 1", ErrInvalidInput)
	}
	if pageSize < 1 || pageSize > maxSeriesPageSize {
		return SeriesDetailsResult{}, fmt.Errorf("%w: page size must be between 1 and %d", ErrInvalidInput, maxSeriesPageSize)
	}

	row, err := s.repo.GetByID(ctx, seriesID)
	if err != nil {
		return SeriesDetailsResult{}, err
	}

	offset := (page - 1) * pageSize
	matches, total, err := s.repo.ListMatches(ctx, seriesID, offset, pageSize)
	if err != nil {
		return SeriesDetailsResult{}, fmt.Errorf("list series matches series_id=%s: %w", seriesID, err)
	}

	return SeriesDetailsResult{
		Series:     row,
		Matches:    matches,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func (s *SeriesQueryService) syncIfEmpty(ctx context.Context) error {
	count, err := s.repo.CountAll(ctx)
	if err != nil {
		return fmt.Errorf("count stored series: %w", err)
	}
	if count > 0 || s.sync == nil {
		return nil
	}

	s.logger.InfoContext(ctx, "series store is empty, triggering series sync")
	if _, err := s.sync.SyncUpcoming(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.WarnContext(ctx, "on-demand series sync failed, serving empty result", "error", err)
	}
	return nil
}

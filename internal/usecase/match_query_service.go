package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cricworks/cricstats/internal/domain/match"
	"github.com/cricworks/cricstats/internal/platform/logging"
)

type UpcomingMatchesQuery struct {
	Country string
	Format  string
	From    *time.Time
	To      *time.Time
}

type UpcomingMatchesResult struct {
	Matches    []match.UpcomingView
	TotalCount int
}

// MatchQueryService serves upcoming-match reads. An empty store triggers one
// fixture sync first, so a fresh deployment returns data on its first query
// instead of an empty page.
type MatchQueryService struct {
	repo   match.Repository
	sync   *FixtureSyncService
	logger *logging.Logger
}

func NewMatchQueryService(repo match.Repository, sync *FixtureSyncService, logger *logging.Logger) *MatchQueryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchQueryService{repo: repo, sync: sync, logger: logger}
}

func (s *MatchQueryService) Upcoming(ctx context.Context, q UpcomingMatchesQuery) (UpcomingMatchesResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchQueryService.Upcoming")
	defer span.End()

	if s.repo == nil {
		return UpcomingMatchesResult{}, fmt.Errorf("%w: match repository is not configured", ErrDependencyUnavailable)
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return UpcomingMatchesResult{}, fmt.Errorf("%w: from must not be after to", ErrInvalidInput)
	}

	filter := match.Filter{
		Country: strings.TrimSpace(q.Country),
		From:    q.From,
		To:      q.To,
	}
	if raw := strings.TrimSpace(q.Format); raw != "" {
		format, err := match.ParseFormat(raw)
		if err != nil {
			return UpcomingMatchesResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Format = &format
	}

	if err := s.syncIfEmpty(ctx); err != nil {
		return UpcomingMatchesResult{}, err
	}

	matches, err := s.repo.ListUpcoming(ctx, filter)
	if err != nil {
		return UpcomingMatchesResult{}, fmt.Errorf("list upcoming matches: %w", err)
	}

	return UpcomingMatchesResult{Matches: matches, TotalCount: len(matches)}, nil
}

// syncIfEmpty runs one fixture sync when no matches are stored yet. A sync
// failure degrades to an empty result rather than failing the read.
func (s *MatchQueryService) syncIfEmpty(ctx context.Context) error {
	count, err := s.repo.CountAll(ctx)
	if err != nil {
		return fmt.Errorf("count stored matches: %w", err)
	}
	if count > 0 || s.sync == nil {
		return nil
	}

	s.logger.InfoContext(ctx, "match store is empty, triggering fixture sync")
	if _, err := s.sync.SyncUpcoming(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.WarnContext(ctx, "on-demand fixture sync failed, serving empty result", "error", err)
	}
	return nil
}

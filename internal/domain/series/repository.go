package series

import (
	"context"
	"time"
)

// Repository describes series read access needed by query services.
type Repository interface {
	ListUpcoming(ctx context.Context, from, to *time.Time) ([]Series, error)
	GetByID(ctx context.Context, seriesID string) (Series, error)
	// ListMatches returns one page of a series' matches ordered by start
	// time, plus the total row count for pagination.
	ListMatches(ctx context.Context, seriesID string, offset, limit int) ([]SeriesMatch, int, error)
	// ListUpcomingMatches returns up to limit matches of the series starting
	// on or after from, ordered by start time.
	ListUpcomingMatches(ctx context.Context, seriesID string, from time.Time, limit int) ([]SeriesMatch, error)
	CountAll(ctx context.Context) (int, error)
}

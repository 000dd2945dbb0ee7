package memory

import (
	"context"
	"time"

	"github.com/cricworks/cricstats/internal/domain/series"
)

// SeriesReads exposes the store's series data under the series read
// repository contract. Match reads live directly on Store; series reads need
// this adapter because both contracts name their methods the same way.
type SeriesReads struct {
	store *Store
}

func NewSeriesReads(store *Store) *SeriesReads {
	return &SeriesReads{store: store}
}

func (r *SeriesReads) ListUpcoming(ctx context.Context, from, to *time.Time) ([]series.Series, error) {
	return r.store.ListUpcomingSeries(ctx, from, to)
}

func (r *SeriesReads) GetByID(ctx context.Context, seriesID string) (series.Series, error) {
	return r.store.GetSeriesByID(ctx, seriesID)
}

func (r *SeriesReads) ListMatches(ctx context.Context, seriesID string, offset, limit int) ([]series.SeriesMatch, int, error) {
	return r.store.ListSeriesMatches(ctx, seriesID, offset, limit)
}

func (r *SeriesReads) ListUpcomingMatches(ctx context.Context, seriesID string, from time.Time, limit int) ([]series.SeriesMatch, error) {
	return r.store.ListUpcomingSeriesMatches(ctx, seriesID, from, limit)
}

func (r *SeriesReads) CountAll(ctx context.Context) (int, error) {
	return r.store.CountAllSeries(ctx)
}

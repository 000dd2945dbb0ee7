package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cricworks/cricstats/internal/domain/series"
	"github.com/cricworks/cricstats/internal/platform/logging"
)

type seriesRepoStub struct {
	upcoming      []series.Series
	byID          map[string]series.Series
	matches       []series.SeriesMatch
	count         int
	lastOffset    int
	lastLimit     int
	upcomingCalls int
}

func (r *seriesRepoStub) ListUpcoming(_ context.Context, _, _ *time.Time) ([]series.Series, error) {
	return r.upcoming, nil
}

func (r *seriesRepoStub) GetByID(_ context.Context, seriesID string) (series.Series, error) {
	row, ok := r.byID[seriesID]
	if !ok {
		return series.Series{}, fmt.Errorf("%w: series %s", ErrNotFound, seriesID)
	}
	return row, nil
}

func (r *seriesRepoStub) ListMatches(_ context.Context, _ string, offset, limit int) ([]series.SeriesMatch, int, error) {
	r.lastOffset = offset
	r.lastLimit = limit
	end := offset + limit
	if end > len(r.matches) {
		end = len(r.matches)
	}
	if offset > len(r.matches) {
		offset = len(r.matches)
	}
	return r.matches[offset:end], len(r.matches), nil
}

func (r *seriesRepoStub) ListUpcomingMatches(_ context.Context, seriesID string, from time.Time, limit int) ([]series.SeriesMatch, error) {
	r.upcomingCalls++
	var out []series.SeriesMatch
	for _, row := range r.matches {
		if row.SeriesID != seriesID || row.StartTime == nil || row.StartTime.Before(from) {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *seriesRepoStub) CountAll(context.Context) (int, error) {
	return r.count, nil
}

func TestSeriesQueryService_UpcomingRejectsInvertedRange(t *testing.T) {
	t.Parallel()

	svc := NewSeriesQueryService(&seriesRepoStub{count: 1}, nil, logging.NewNop())
	from := time.Now().UTC()
	to := from.Add(-time.Hour)

	_, err := svc.Upcoming(context.Background(), &from, &to)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestSeriesQueryService_UpcomingOrdersByEffectiveDate(t *testing.T) {
	t.Parallel()

	synced := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	soon := synced.AddDate(0, 0, 3)
	later := synced.AddDate(0, 0, 20)
	nextMatch := time.Now().UTC().Add(48 * time.Hour)

	// "undated" has no start or end date, so it sorts by its sync time.
	repo := &seriesRepoStub{
		count: 3,
		upcoming: []series.Series{
			{ID: "s-later", Name: "Later Cup", StartDate: &later, LastSyncedAt: synced},
			{ID: "s-undated", Name: "Undated Cup", LastSyncedAt: synced},
			{ID: "s-soon", Name: "Soon Cup", StartDate: &soon, LastSyncedAt: synced},
		},
		matches: []series.SeriesMatch{
			{ID: "sm-1", SeriesID: "s-soon", ExternalID: "m-1", StartTime: &nextMatch},
		},
	}
	svc := NewSeriesQueryService(repo, nil, logging.NewNop())

	result, err := svc.Upcoming(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if result.TotalCount != 3 {
		t.Fatalf("total = %d, want 3", result.TotalCount)
	}
	var order []string
	for _, item := range result.Items {
		order = append(order, item.Series.ID)
	}
	if order[0] != "s-undated" || order[1] != "s-soon" || order[2] != "s-later" {
		t.Fatalf("order = %v, want [s-undated s-soon s-later]", order)
	}
	for _, item := range result.Items {
		if item.Series.ID == "s-soon" {
			if len(item.Matches) != 1 || item.Matches[0].ID != "sm-1" {
				t.Fatalf("s-soon matches = %+v, want [sm-1]", item.Matches)
			}
		}
	}
}

func TestSeriesQueryService_DetailsUnknownSeries(t *testing.T) {
	t.Parallel()

	svc := NewSeriesQueryService(&seriesRepoStub{count: 1, byID: map[string]series.Series{}}, nil, logging.NewNop())

	_, err := svc.Details(context.Background(), "missing", 1, 10)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestSeriesQueryService_DetailsValidatesPaging(t *testing.T) {
	t.Parallel()

	repo := &seriesRepoStub{count: 1, byID: map[string]series.Series{"s-1": {ID: "s-1", Name: "World Cup"}}}
	svc := NewSeriesQueryService(repo, nil, logging.NewNop())

	if _, err := svc.Details(context.Background(), "s-1", -1, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative page: err = %v, want invalid input", err)
	}
	if _, err := svc.Details(context.Background(), "s-1", 1, maxSeriesPageSize+1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("oversized page: err = %v, want invalid input", err)
	}
}

func TestSeriesQueryService_DetailsPaginates(t *testing.T) {
	t.Parallel()

	repo := &seriesRepoStub{
		count: 1,
		byID:  map[string]series.Series{"s-1": {ID: "s-1", Name: "World Cup"}},
		matches: []series.SeriesMatch{
			{ID: "sm-1", SeriesID: "s-1"},
			{ID: "sm-2", SeriesID: "s-1"},
			{ID: "sm-3", SeriesID: "s-1"},
		},
	}
	svc := NewSeriesQueryService(repo, nil, logging.NewNop())

	result, err := svc.Details(context.Background(), "s-1", 2, 2)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if result.TotalCount != 3 {
		t.Fatalf("total = %d, want 3", result.TotalCount)
	}
	if len(result.Matches) != 1 || result.Matches[0].ID != "sm-3" {
		t.Fatalf("page 2 matches = %+v, want [sm-3]", result.Matches)
	}
	if repo.lastOffset != 2 || repo.lastLimit != 2 {
		t.Fatalf("offset/limit = %d/%d, want 2/2", repo.lastOffset, repo.lastLimit)
	}
}

func TestSeriesQueryService_DetailsAppliesDefaults(t *testing.T) {
	t.Parallel()

	repo := &seriesRepoStub{count: 1, byID: map[string]series.Series{"s-1": {ID: "s-1", Name: "World Cup"}}}
	svc := NewSeriesQueryService(repo, nil, logging.NewNop())

	result, err := svc.Details(context.Background(), "s-1", 0, 0)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if result.Page != 1 || result.PageSize != defaultSeriesPageSize {
		t.Fatalf("page/pageSize = %d/%d, want 1/%d", result.Page, result.PageSize, defaultSeriesPageSize)
	}
}

func TestSeriesQueryService_EmptyStoreTriggersSync(t *testing.T) {
	t.Parallel()

	listed, details := externalSeriesFixture("s-1", 1)
	provider := &seriesProviderStub{
		name:    "CricketData",
		series:  []ExternalSeries{listed},
		details: map[string]*ExternalSeriesDetails{"s-1": details},
	}
	registry := NewProviderRegistry()
	registerCricketProvider(t, registry, provider, false)
	sync := newSeriesSyncService(t, registry, newSeriesStoreStub(), SeriesSyncConfig{})

	repo := &seriesRepoStub{count: 0}
	svc := NewSeriesQueryService(repo, sync, logging.NewNop())

	if _, err := svc.Upcoming(context.Background(), nil, nil); err != nil {
		t.Fatalf("query: %v", err)
	}
	if provider.detailsCalls != 1 {
		t.Fatalf("details calls = %d, want 1", provider.detailsCalls)
	}
}

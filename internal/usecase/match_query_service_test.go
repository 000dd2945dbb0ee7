package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cricworks/cricstats/internal/domain/match"
	"github.com/cricworks/cricstats/internal/platform/logging"
)

type matchRepoStub struct {
	views      []match.UpcomingView
	count      int
	countErr   error
	lastFilter match.Filter
}

func (r *matchRepoStub) ListUpcoming(_ context.Context, filter match.Filter) ([]match.UpcomingView, error) {
	r.lastFilter = filter
	return r.views, nil
}

func (r *matchRepoStub) CountAll(context.Context) (int, error) {
	return r.count, r.countErr
}

func TestMatchQueryService_RejectsInvertedRange(t *testing.T) {
	t.Parallel()

	svc := NewMatchQueryService(&matchRepoStub{count: 1}, nil, logging.NewNop())
	from := time.Now().UTC()
	to := from.Add(-time.Hour)

	_, err := svc.Upcoming(context.Background(), UpcomingMatchesQuery{From: &from, To: &to})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestMatchQueryService_RejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	svc := NewMatchQueryService(&matchRepoStub{count: 1}, nil, logging.NewNop())

	_, err := svc.Upcoming(context.Background(), UpcomingMatchesQuery{Format: "T15"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestMatchQueryService_NormalizesFilter(t *testing.T) {
	t.Parallel()

	repo := &matchRepoStub{count: 3, views: []match.UpcomingView{{}, {}}}
	svc := NewMatchQueryService(repo, nil, logging.NewNop())

	result, err := svc.Upcoming(context.Background(), UpcomingMatchesQuery{Country: "  India ", Format: " t20 "})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.TotalCount != 2 {
		t.Fatalf("total = %d, want 2", result.TotalCount)
	}
	if repo.lastFilter.Country != "India" {
		t.Fatalf("country filter = %q, want India", repo.lastFilter.Country)
	}
	if repo.lastFilter.Format == nil || *repo.lastFilter.Format != match.FormatT20 {
		t.Fatalf("format filter = %v, want T20", repo.lastFilter.Format)
	}
}

func TestMatchQueryService_EmptyStoreTriggersSync(t *testing.T) {
	t.Parallel()

	provider := &fixtureProviderStub{name: "CricketData", matches: []ExternalMatch{externalMatchFixture("m-1")}}
	registry := NewProviderRegistry()
	registerCricketProvider(t, registry, provider, false)
	sync := newFixtureSyncService(t, registry, newFixtureStoreStub(), FixtureSyncConfig{})

	repo := &matchRepoStub{count: 0}
	svc := NewMatchQueryService(repo, sync, logging.NewNop())

	if _, err := svc.Upcoming(context.Background(), UpcomingMatchesQuery{}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", provider.calls)
	}
}

func TestMatchQueryService_NonEmptyStoreSkipsSync(t *testing.T) {
	t.Parallel()

	provider := &fixtureProviderStub{name: "CricketData", matches: []ExternalMatch{externalMatchFixture("m-1")}}
	registry := NewProviderRegistry()
	registerCricketProvider(t, registry, provider, false)
	sync := newFixtureSyncService(t, registry, newFixtureStoreStub(), FixtureSyncConfig{})

	repo := &matchRepoStub{count: 5}
	svc := NewMatchQueryService(repo, sync, logging.NewNop())

	if _, err := svc.Upcoming(context.Background(), UpcomingMatchesQuery{}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("provider calls = %d, want 0", provider.calls)
	}
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cricworks/cricstats/internal/domain/match"
	"github.com/cricworks/cricstats/internal/domain/series"
	"github.com/cricworks/cricstats/internal/domain/team"
	"github.com/cricworks/cricstats/internal/domain/venue"
	"github.com/cricworks/cricstats/internal/domain/weather"
	"github.com/cricworks/cricstats/internal/usecase"
)

func seedMatch(t *testing.T, store *Store, matchID, venueCountry, homeCountry, awayCountry string, start time.Time) {
	t.Helper()

	batch := usecase.FixtureSyncBatch{
		Teams: []team.Team{
			{ID: "home-" + matchID, Name: "Home " + matchID, Country: homeCountry, SourceProvider: "CricketData", ExternalID: "home-" + matchID},
			{ID: "away-" + matchID, Name: "Away " + matchID, Country: awayCountry, SourceProvider: "CricketData", ExternalID: "away-" + matchID},
		},
		Venues: []venue.Venue{{
			ID: "venue-" + matchID, Name: "Ground " + matchID, Country: venueCountry,
			Latitude: decimal.NewFromInt(1), Longitude: decimal.NewFromInt(2),
			GeoSource: venue.GeoSourceProvider, SourceProvider: "CricketData", ExternalID: "venue-" + matchID,
		}},
		Matches: []match.Match{{
			ID: matchID, VenueID: "venue-" + matchID, HomeTeamID: "home-" + matchID, AwayTeamID: "away-" + matchID,
			Format: match.FormatODI, StartTime: start, Status: match.StatusScheduled,
			SourceProvider: "CricketData", ExternalID: matchID,
		}},
	}
	if err := store.ApplyFixtureSync(context.Background(), batch); err != nil {
		t.Fatalf("seed match %s: %v", matchID, err)
	}
}

func TestStore_CountryFilterMatchesTeamOnly(t *testing.T) {
	t.Parallel()

	store := NewStore()
	start := time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC)
	// Venue in England, only the away team is from India.
	seedMatch(t, store, "m-1", "England", "England", "India", start)
	seedMatch(t, store, "m-2", "England", "England", "Australia", start.Add(time.Hour))

	views, err := store.ListUpcoming(context.Background(), match.Filter{Country: "india"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 || views[0].ID != "m-1" {
		t.Fatalf("views = %+v, want only m-1", views)
	}
}

func TestStore_CountryFilterMatchesVenue(t *testing.T) {
	t.Parallel()

	store := NewStore()
	start := time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC)
	seedMatch(t, store, "m-1", "India", "England", "Australia", start)

	views, err := store.ListUpcoming(context.Background(), match.Filter{Country: "INDIA"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("views = %d, want 1", len(views))
	}
}

func TestStore_ListUpcomingAppliesWindowAndFormatAndSorts(t *testing.T) {
	t.Parallel()

	store := NewStore()
	base := time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC)
	seedMatch(t, store, "later", "India", "India", "Australia", base.Add(48*time.Hour))
	seedMatch(t, store, "sooner", "India", "India", "Australia", base)
	seedMatch(t, store, "outside", "India", "India", "Australia", base.Add(240*time.Hour))

	from := base.Add(-time.Hour)
	to := base.Add(72 * time.Hour)
	format := match.FormatODI
	views, err := store.ListUpcoming(context.Background(), match.Filter{From: &from, To: &to, Format: &format})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("views = %d, want 2", len(views))
	}
	if views[0].ID != "sooner" || views[1].ID != "later" {
		t.Fatalf("order = [%s %s], want [sooner later]", views[0].ID, views[1].ID)
	}
}

func TestStore_ListUpcomingIncludesRisk(t *testing.T) {
	t.Parallel()

	store := NewStore()
	start := time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC)
	seedMatch(t, store, "m-1", "India", "India", "Australia", start)

	err := store.ApplyRiskRefresh(context.Background(), usecase.RiskRefreshBatch{
		Risks: []weather.MatchRisk{{MatchID: "m-1", Score: decimal.RequireFromString("47.00"), Level: weather.RiskLevelMedium}},
	})
	if err != nil {
		t.Fatalf("apply risk: %v", err)
	}

	views, err := store.ListUpcoming(context.Background(), match.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if views[0].Risk == nil || views[0].Risk.Level != weather.RiskLevelMedium {
		t.Fatalf("risk = %+v, want Medium", views[0].Risk)
	}
}

func TestStore_ApplySeriesSyncRemovesStaleActiveSeries(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()
	future := now.AddDate(0, 1, 0)
	past := now.AddDate(0, -1, 0)

	windowEnd := now.AddDate(0, 0, 120)
	farFuture := now.AddDate(0, 0, 300)
	seed := usecase.SeriesSyncBatch{
		Series: []series.Series{
			{ID: "active", Name: "Active Cup", EndDate: &future, SourceProvider: "CricketData", ExternalID: "active"},
			{ID: "done", Name: "Done Tour", EndDate: &past, SourceProvider: "CricketData", ExternalID: "done"},
			{ID: "other", Name: "Other Provider Cup", EndDate: &future, SourceProvider: "Cricbuzz", ExternalID: "other"},
			{ID: "far", Name: "Far Future Tour", StartDate: &farFuture, SourceProvider: "CricketData", ExternalID: "far"},
		},
		SeriesMatches: []series.SeriesMatch{
			{ID: "sm-1", SeriesID: "active", SourceProvider: "CricketData", ExternalID: "sm-1"},
		},
	}
	if err := store.ApplySeriesSync(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sweep := usecase.SeriesSyncBatch{
		Series: []series.Series{
			{ID: "fresh", Name: "Fresh Trophy", EndDate: &future, SourceProvider: "CricketData", ExternalID: "fresh"},
		},
		RemoveStale: &usecase.StaleSeriesFilter{
			Provider:         "CricketData",
			ActiveOnOrAfter:  now,
			StartsOnOrBefore: windowEnd,
			KeepExternalIDs:  []string{"fresh"},
		},
	}
	if err := store.ApplySeriesSync(ctx, sweep); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if _, err := store.GetSeriesByID(ctx, "active"); !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("active stale series should be gone, err = %v", err)
	}
	if _, total, err := store.ListSeriesMatches(ctx, "active", 0, 10); err != nil {
		t.Fatalf("list matches: %v", err)
	} else if total != 0 {
		t.Fatalf("stale series matches remain: %d", total)
	}
	if _, err := store.GetSeriesByID(ctx, "done"); err != nil {
		t.Fatalf("fully-past series must survive the sweep: %v", err)
	}
	if _, err := store.GetSeriesByID(ctx, "other"); err != nil {
		t.Fatalf("other provider's series must survive the sweep: %v", err)
	}
	if _, err := store.GetSeriesByID(ctx, "far"); err != nil {
		t.Fatalf("series starting beyond the sync window must survive the sweep: %v", err)
	}
	if _, err := store.GetSeriesByID(ctx, "fresh"); err != nil {
		t.Fatalf("freshly synced series missing: %v", err)
	}
}

func TestStore_ListSeriesMatchesPaginates(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	var rows []series.SeriesMatch
	for i := 0; i < 5; i++ {
		st := base.AddDate(0, 0, i)
		rows = append(rows, series.SeriesMatch{
			ID: string(rune('a' + i)), SeriesID: "s-1", StartTime: &st,
			SourceProvider: "CricketData", ExternalID: string(rune('a' + i)),
		})
	}
	batch := usecase.SeriesSyncBatch{
		Series:        []series.Series{{ID: "s-1", Name: "Cup", SourceProvider: "CricketData", ExternalID: "s-1"}},
		SeriesMatches: rows,
	}
	if err := store.ApplySeriesSync(ctx, batch); err != nil {
		t.Fatalf("seed: %v", err)
	}

	page, total, err := store.ListSeriesMatches(ctx, "s-1", 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 || len(page) != 2 {
		t.Fatalf("total=%d len=%d, want 5/2", total, len(page))
	}
	if page[0].ID != "c" || page[1].ID != "d" {
		t.Fatalf("page = [%s %s], want [c d]", page[0].ID, page[1].ID)
	}

	beyond, total, err := store.ListSeriesMatches(ctx, "s-1", 10, 2)
	if err != nil {
		t.Fatalf("list beyond: %v", err)
	}
	if total != 5 || len(beyond) != 0 {
		t.Fatalf("beyond page total=%d len=%d, want 5/0", total, len(beyond))
	}
}

func TestStore_UpcomingMatchesWithVenuesSkipsFinished(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	start := time.Now().UTC().Add(24 * time.Hour)
	seedMatch(t, store, "m-live", "India", "India", "Australia", start)

	completed := store.matches["m-live"]
	completed.ID = "m-done"
	completed.ExternalID = "m-done"
	completed.Status = match.StatusCompleted
	if err := store.ApplyFixtureSync(ctx, usecase.FixtureSyncBatch{Matches: []match.Match{completed}}); err != nil {
		t.Fatalf("seed completed: %v", err)
	}

	out, err := store.UpcomingMatchesWithVenues(ctx, time.Now().UTC(), time.Now().UTC().AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].Match.ID != "m-live" {
		t.Fatalf("out = %+v, want only m-live", out)
	}
}

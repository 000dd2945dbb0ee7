package usecase

import (
	"context"
	"time"

	"github.com/cricworks/cricstats/internal/domain/match"
	"github.com/cricworks/cricstats/internal/domain/series"
	"github.com/cricworks/cricstats/internal/domain/team"
	"github.com/cricworks/cricstats/internal/domain/venue"
	"github.com/cricworks/cricstats/internal/domain/weather"
)

// FixtureSyncBatch is everything one fixture sync wants persisted. The store
// applies it in a single flush: either all rows land or none do.
type FixtureSyncBatch struct {
	Teams   []team.Team
	Venues  []venue.Venue
	Matches []match.Match
}

// FixtureSyncStore is the persistence surface of the fixture sync engine.
// Lookup maps are keyed by external id, scoped to one provider.
type FixtureSyncStore interface {
	TeamsByExternalIDs(ctx context.Context, provider string, externalIDs []string) (map[string]team.Team, error)
	VenuesByExternalIDs(ctx context.Context, provider string, externalIDs []string) (map[string]venue.Venue, error)
	MatchesByExternalIDs(ctx context.Context, provider string, externalIDs []string) (map[string]match.Match, error)
	ApplyFixtureSync(ctx context.Context, batch FixtureSyncBatch) error
}

// StaleSeriesFilter describes which series rows a sync considers stale:
// rows from the same provider still active on or after ActiveOnOrAfter,
// starting inside the sync window (on or before StartsOnOrBefore), whose
// external id is absent from the winning response. Series beyond the window
// end are out of the listing's reach and never stale candidates. Matching
// series are deleted together with their series matches.
type StaleSeriesFilter struct {
	Provider         string
	ActiveOnOrAfter  time.Time
	StartsOnOrBefore time.Time
	KeepExternalIDs  []string
}

type SeriesSyncBatch struct {
	Series        []series.Series
	SeriesMatches []series.SeriesMatch
	RemoveStale   *StaleSeriesFilter
}

// SeriesSyncStore is the persistence surface of the series sync engine.
type SeriesSyncStore interface {
	SeriesByExternalIDs(ctx context.Context, provider string, externalIDs []string) (map[string]series.Series, error)
	// SeriesMatchesForSeries returns all stored series matches for the given
	// series ids; the engine indexes them by upsert key itself.
	SeriesMatchesForSeries(ctx context.Context, seriesIDs []string) ([]series.SeriesMatch, error)
	ApplySeriesSync(ctx context.Context, batch SeriesSyncBatch) error
}

// MatchWithVenue joins a match to its venue, coordinates included.
type MatchWithVenue struct {
	Match match.Match
	Venue venue.Venue
}

type RiskRefreshBatch struct {
	Snapshots []weather.Snapshot
	Risks     []weather.MatchRisk
}

// WeatherRiskStore is the persistence surface of the weather risk engine.
type WeatherRiskStore interface {
	UpcomingMatchesWithVenues(ctx context.Context, from, to time.Time) ([]MatchWithVenue, error)
	MatchWithVenueByID(ctx context.Context, matchID string) (MatchWithVenue, error)
	SnapshotsByVenueWindow(ctx context.Context, venueID string, from, to time.Time) ([]weather.Snapshot, error)
	SnapshotsByExternalIDs(ctx context.Context, venueID, provider string, externalIDs []string) (map[string]weather.Snapshot, error)
	ApplyRiskRefresh(ctx context.Context, batch RiskRefreshBatch) error
}

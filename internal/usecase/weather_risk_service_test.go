package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cricworks/cricstats/internal/domain/match"
	"github.com/cricworks/cricstats/internal/domain/venue"
	"github.com/cricworks/cricstats/internal/domain/weather"
	"github.com/cricworks/cricstats/internal/platform/id"
	"github.com/cricworks/cricstats/internal/platform/logging"
)

type weatherProviderStub struct {
	name   string
	points []weather.ForecastPoint
	err    error
	calls  int
}

func (p *weatherProviderStub) Name() string { return p.name }

func (p *weatherProviderStub) FetchForecast(context.Context, decimal.Decimal, decimal.Decimal, time.Time, time.Time) ([]weather.ForecastPoint, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.points, nil
}

type weatherStoreStub struct {
	matches   []MatchWithVenue
	snapshots map[string]weather.Snapshot
	risks     map[string]weather.MatchRisk
	applies   int
	applyErr  error
}

func newWeatherStoreStub() *weatherStoreStub {
	return &weatherStoreStub{
		snapshots: make(map[string]weather.Snapshot),
		risks:     make(map[string]weather.MatchRisk),
	}
}

func snapshotKey(venueID, provider, externalID string) string {
	return venueID + "|" + provider + "|" + externalID
}

func (s *weatherStoreStub) UpcomingMatchesWithVenues(_ context.Context, from, to time.Time) ([]MatchWithVenue, error) {
	var out []MatchWithVenue
	for _, mv := range s.matches {
		if mv.Match.StartTime.Before(from) || mv.Match.StartTime.After(to) {
			continue
		}
		out = append(out, mv)
	}
	return out, nil
}

func (s *weatherStoreStub) MatchWithVenueByID(_ context.Context, matchID string) (MatchWithVenue, error) {
	for _, mv := range s.matches {
		if mv.Match.ID == matchID {
			return mv, nil
		}
	}
	return MatchWithVenue{}, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
}

func (s *weatherStoreStub) SnapshotsByVenueWindow(_ context.Context, venueID string, from, to time.Time) ([]weather.Snapshot, error) {
	var out []weather.Snapshot
	for _, snap := range s.snapshots {
		if snap.VenueID != venueID {
			continue
		}
		if snap.Timestamp.Before(from) || snap.Timestamp.After(to) {
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *weatherStoreStub) SnapshotsByExternalIDs(_ context.Context, venueID, provider string, externalIDs []string) (map[string]weather.Snapshot, error) {
	out := make(map[string]weather.Snapshot)
	for _, externalID := range externalIDs {
		if snap, ok := s.snapshots[snapshotKey(venueID, provider, externalID)]; ok {
			out[externalID] = snap
		}
	}
	return out, nil
}

func (s *weatherStoreStub) ApplyRiskRefresh(_ context.Context, batch RiskRefreshBatch) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applies++
	for _, snap := range batch.Snapshots {
		s.snapshots[snapshotKey(snap.VenueID, snap.SourceProvider, snap.ExternalID)] = snap
	}
	for _, risk := range batch.Risks {
		s.risks[risk.MatchID] = risk
	}
	return nil
}

func upcomingMatchWithVenue(matchID string, start time.Time) MatchWithVenue {
	return MatchWithVenue{
		Match: match.Match{
			ID:             matchID,
			VenueID:        "venue-1",
			HomeTeamID:     "team-1",
			AwayTeamID:     "team-2",
			Format:         match.FormatODI,
			StartTime:      start,
			Status:         match.StatusScheduled,
			SourceProvider: "CricketData",
			ExternalID:     "ext-" + matchID,
		},
		Venue: venue.Venue{
			ID:             "venue-1",
			Name:           "Eden Gardens",
			City:           "Kolkata",
			Country:        "India",
			Latitude:       decimal.NewFromFloat(22.56),
			Longitude:      decimal.NewFromFloat(88.34),
			GeoSource:      venue.GeoSourceProvider,
			SourceProvider: "CricketData",
			ExternalID:     "venue-ext-1",
		},
	}
}

func forecastPoint(externalID string, ts time.Time, prob int64) weather.ForecastPoint {
	return weather.ForecastPoint{
		ExternalID:        externalID,
		Timestamp:         ts,
		Temperature:       decimal.NewFromInt(24),
		Humidity:          decimal.NewFromInt(70),
		WindSpeed:         decimal.NewFromInt(12),
		PrecipProbability: decimal.NewFromInt(prob),
		PrecipAmount:      decimal.NewFromInt(2),
	}
}

func weatherRiskConfig() WeatherRiskConfig {
	return WeatherRiskConfig{
		PrecipAmountMaxMm: decimal.NewFromInt(20),
		WindSpeedMaxKph:   decimal.NewFromInt(60),
	}
}

func TestWeatherRiskService_RefreshEmptyStoreTriggersFixtureSync(t *testing.T) {
	t.Parallel()

	fixtureProvider := &fixtureProviderStub{name: "CricketData", matches: []ExternalMatch{externalMatchFixture("m-1")}}
	registry := NewProviderRegistry()
	registerCricketProvider(t, registry, fixtureProvider, false)
	sync := newFixtureSyncService(t, registry, newFixtureStoreStub(), FixtureSyncConfig{})

	provider := &weatherProviderStub{name: "OpenMeteo"}
	svc, err := NewWeatherRiskService([]WeatherProvider{provider}, newWeatherStoreStub(), id.NewRandomGenerator(), weatherRiskConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.BindFixtureSync(sync)

	if _, err := svc.RefreshUpcoming(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fixtureProvider.calls != 1 {
		t.Fatalf("fixture provider calls = %d, want 1", fixtureProvider.calls)
	}
}

func TestNewWeatherRiskService_NoProviderIsFatal(t *testing.T) {
	t.Parallel()

	_, err := NewWeatherRiskService(nil, newWeatherStoreStub(), id.NewRandomGenerator(), weatherRiskConfig(), logging.NewNop())
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("err = %v, want dependency unavailable", err)
	}
}

func TestNewWeatherRiskService_ResolvesNamedProvider(t *testing.T) {
	t.Parallel()

	first := &weatherProviderStub{name: "OpenMeteo"}
	second := &weatherProviderStub{name: "StormGlass"}
	cfg := weatherRiskConfig()
	cfg.ProviderName = "stormglass"

	svc, err := NewWeatherRiskService([]WeatherProvider{first, second}, newWeatherStoreStub(), id.NewRandomGenerator(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if got := svc.provider.Name(); got != "StormGlass" {
		t.Fatalf("resolved provider = %q, want StormGlass", got)
	}
}

func TestNewWeatherRiskService_UnknownNameFallsBackToFirst(t *testing.T) {
	t.Parallel()

	first := &weatherProviderStub{name: "OpenMeteo"}
	cfg := weatherRiskConfig()
	cfg.ProviderName = "NoSuchProvider"

	svc, err := NewWeatherRiskService([]WeatherProvider{first}, newWeatherStoreStub(), id.NewRandomGenerator(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if got := svc.provider.Name(); got != "OpenMeteo" {
		t.Fatalf("resolved provider = %q, want OpenMeteo", got)
	}
}

func TestWeatherRiskService_RefreshPersistsSnapshotsAndRisk(t *testing.T) {
	t.Parallel()

	start := time.Now().UTC().Add(48 * time.Hour)
	store := newWeatherStoreStub()
	store.matches = []MatchWithVenue{upcomingMatchWithVenue("match-1", start)}
	provider := &weatherProviderStub{
		name: "OpenMeteo",
		points: []weather.ForecastPoint{
			forecastPoint("fp-1", start.Add(-time.Hour), 80),
			forecastPoint("fp-2", start.Add(time.Hour), 60),
		},
	}

	svc, err := NewWeatherRiskService([]WeatherProvider{provider}, store, id.NewRandomGenerator(), weatherRiskConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.RefreshUpcoming(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if result.MatchesEvaluated != 1 || result.RisksUpdated != 1 || result.MatchesSkipped != 0 {
		t.Fatalf("evaluated=%d updated=%d skipped=%d", result.MatchesEvaluated, result.RisksUpdated, result.MatchesSkipped)
	}
	if result.SnapshotsUpserted != 2 {
		t.Fatalf("snapshots upserted = %d, want 2", result.SnapshotsUpserted)
	}
	if store.applies != 1 {
		t.Fatalf("store applies = %d, want a single flush", store.applies)
	}

	risk, ok := store.risks["match-1"]
	if !ok {
		t.Fatal("expected a persisted risk")
	}
	// avg prob 70 -> 35.00, amount 2/20 -> 3.00, humidity 70 -> 7.00,
	// wind 12/60 -> 2.00; composite 47.00 Medium.
	if risk.Score.StringFixed(2) != "47.00" {
		t.Fatalf("score = %s, want 47.00", risk.Score)
	}
	if risk.Level != weather.RiskLevelMedium {
		t.Fatalf("level = %s, want Medium", risk.Level)
	}
}

func TestWeatherRiskService_FallsBackToCachedSnapshots(t *testing.T) {
	t.Parallel()

	start := time.Now().UTC().Add(48 * time.Hour)
	store := newWeatherStoreStub()
	store.matches = []MatchWithVenue{upcomingMatchWithVenue("match-1", start)}
	cached := forecastPoint("fp-old", start.Add(time.Hour), 100)
	store.snapshots[snapshotKey("venue-1", "OpenMeteo", "fp-old")] = weather.Snapshot{
		ID:                "snap-1",
		VenueID:           "venue-1",
		Timestamp:         cached.Timestamp,
		Temperature:       cached.Temperature,
		Humidity:          cached.Humidity,
		WindSpeed:         cached.WindSpeed,
		PrecipProbability: cached.PrecipProbability,
		PrecipAmount:      cached.PrecipAmount,
		SourceProvider:    "OpenMeteo",
		ExternalID:        "fp-old",
	}
	provider := &weatherProviderStub{name: "OpenMeteo", err: errors.New("api quota exhausted")}

	svc, err := NewWeatherRiskService([]WeatherProvider{provider}, store, id.NewRandomGenerator(), weatherRiskConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	report, err := svc.ComputeForMatch(context.Background(), "match-1")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !report.Computed {
		t.Fatal("expected risk computed from cached snapshots")
	}
	if report.Source != riskSourceSnapshot {
		t.Fatalf("source = %q, want %q", report.Source, riskSourceSnapshot)
	}
	if _, ok := store.risks["match-1"]; !ok {
		t.Fatal("expected persisted risk")
	}
}

func TestWeatherRiskService_RefreshLeavesFixtureOnlyMatchesOut(t *testing.T) {
	t.Parallel()

	start := time.Now().UTC().Add(48 * time.Hour)
	real := upcomingMatchWithVenue("match-1", start)
	synthetic := upcomingMatchWithVenue("match-2", start)
	synthetic.Match.SourceProvider = "TestFixtures"

	store := newWeatherStoreStub()
	store.matches = []MatchWithVenue{real, synthetic}
	provider := &weatherProviderStub{
		name:   "OpenMeteo",
		points: []weather.ForecastPoint{forecastPoint("fp-1", start.Add(time.Hour), 50)},
	}
	cfg := weatherRiskConfig()
	cfg.FixtureOnlyProviders = []string{"TestFixtures"}

	svc, err := NewWeatherRiskService([]WeatherProvider{provider}, store, id.NewRandomGenerator(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.RefreshUpcoming(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if result.MatchesEvaluated != 1 || result.RisksUpdated != 1 {
		t.Fatalf("evaluated=%d updated=%d, want 1/1", result.MatchesEvaluated, result.RisksUpdated)
	}
	if _, ok := store.risks["match-2"]; ok {
		t.Fatal("fixture-sourced match must not get a risk row")
	}
	if _, ok := store.risks["match-1"]; !ok {
		t.Fatal("real match missing its risk row")
	}
}

func TestWeatherRiskService_RefreshAdmitsFixtureMatchesWhenAllowed(t *testing.T) {
	t.Parallel()

	start := time.Now().UTC().Add(48 * time.Hour)
	synthetic := upcomingMatchWithVenue("match-2", start)
	synthetic.Match.SourceProvider = "TestFixtures"

	store := newWeatherStoreStub()
	store.matches = []MatchWithVenue{synthetic}
	provider := &weatherProviderStub{
		name:   "OpenMeteo",
		points: []weather.ForecastPoint{forecastPoint("fp-1", start.Add(time.Hour), 50)},
	}
	cfg := weatherRiskConfig()
	cfg.FixtureOnlyProviders = []string{"TestFixtures"}
	cfg.AllowFixtureProviders = true

	svc, err := NewWeatherRiskService([]WeatherProvider{provider}, store, id.NewRandomGenerator(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.RefreshUpcoming(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if result.RisksUpdated != 1 {
		t.Fatalf("risks updated = %d, want 1", result.RisksUpdated)
	}
	if _, ok := store.risks["match-2"]; !ok {
		t.Fatal("allowed fixture match missing its risk row")
	}
}

func TestWeatherRiskService_SkipsMatchWithoutAnyData(t *testing.T) {
	t.Parallel()

	start := time.Now().UTC().Add(48 * time.Hour)
	store := newWeatherStoreStub()
	store.matches = []MatchWithVenue{upcomingMatchWithVenue("match-1", start)}
	provider := &weatherProviderStub{name: "OpenMeteo"}

	svc, err := NewWeatherRiskService([]WeatherProvider{provider}, store, id.NewRandomGenerator(), weatherRiskConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.RefreshUpcoming(context.Background())
	if err != nil {
		t.Fatalf("no data must not be an error: %v", err)
	}
	if result.MatchesSkipped != 1 || result.RisksUpdated != 0 {
		t.Fatalf("skipped=%d updated=%d, want 1/0", result.MatchesSkipped, result.RisksUpdated)
	}
	if len(store.risks) != 0 {
		t.Fatal("skipped match must not get a risk row")
	}
}

func TestWeatherRiskService_ComputeWithoutAnyDataYieldsZeroRisk(t *testing.T) {
	t.Parallel()

	start := time.Now().UTC().Add(48 * time.Hour)
	store := newWeatherStoreStub()
	store.matches = []MatchWithVenue{upcomingMatchWithVenue("match-1", start)}
	provider := &weatherProviderStub{name: "OpenMeteo"}

	svc, err := NewWeatherRiskService([]WeatherProvider{provider}, store, id.NewRandomGenerator(), weatherRiskConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	report, err := svc.ComputeForMatch(context.Background(), "match-1")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !report.Computed {
		t.Fatal("no data must still produce a computed report")
	}
	if report.Source != riskSourceNoData {
		t.Fatalf("source = %q, want %q", report.Source, riskSourceNoData)
	}
	if report.Computation.Score.StringFixed(2) != "0.00" {
		t.Fatalf("score = %s, want 0.00", report.Computation.Score)
	}
	if report.Computation.Level != weather.RiskLevelLow {
		t.Fatalf("level = %s, want Low", report.Computation.Level)
	}

	risk, ok := store.risks["match-1"]
	if !ok {
		t.Fatal("expected persisted zero risk")
	}
	if risk.Score.StringFixed(2) != "0.00" || risk.Level != weather.RiskLevelLow {
		t.Fatalf("persisted risk = %s/%s, want 0.00/Low", risk.Score, risk.Level)
	}
}

func TestWeatherRiskService_ComputeForUnknownMatch(t *testing.T) {
	t.Parallel()

	provider := &weatherProviderStub{name: "OpenMeteo"}
	svc, err := NewWeatherRiskService([]WeatherProvider{provider}, newWeatherStoreStub(), id.NewRandomGenerator(), weatherRiskConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.ComputeForMatch(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestWeatherRiskService_SnapshotUpsertKeepsIdentity(t *testing.T) {
	t.Parallel()

	start := time.Now().UTC().Add(48 * time.Hour)
	store := newWeatherStoreStub()
	store.matches = []MatchWithVenue{upcomingMatchWithVenue("match-1", start)}
	provider := &weatherProviderStub{
		name:   "OpenMeteo",
		points: []weather.ForecastPoint{forecastPoint("fp-1", start.Add(time.Hour), 50)},
	}

	svc, err := NewWeatherRiskService([]WeatherProvider{provider}, store, id.NewRandomGenerator(), weatherRiskConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.RefreshUpcoming(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	firstID := store.snapshots[snapshotKey("venue-1", "OpenMeteo", "fp-1")].ID

	if _, err := svc.RefreshUpcoming(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if got := store.snapshots[snapshotKey("venue-1", "OpenMeteo", "fp-1")].ID; got != firstID {
		t.Fatalf("snapshot id changed across refreshes: %s vs %s", got, firstID)
	}
	if len(store.snapshots) != 1 {
		t.Fatalf("stored snapshots = %d, want 1", len(store.snapshots))
	}
}

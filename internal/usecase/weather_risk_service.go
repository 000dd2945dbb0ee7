package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cricworks/cricstats/internal/domain/weather"
	"github.com/cricworks/cricstats/internal/platform/id"
	"github.com/cricworks/cricstats/internal/platform/logging"
)

const (
	minRefreshWindowDays     = 1
	maxRefreshWindowDays     = 30
	defaultRefreshWindowDays = 14

	// Forecast window around a match: pre-match setup through the in-play
	// hours.
	forecastLeadTime  = 2 * time.Hour
	forecastTrailTime = 6 * time.Hour

	riskSourceLive     = "live"
	riskSourceSnapshot = "snapshot-cache"
	riskSourceNoData   = "no-data"
)

type WeatherRiskConfig struct {
	// ProviderName selects the weather provider; empty means the first
	// registered one.
	ProviderName      string
	RefreshWindowDays int
	PrecipAmountMaxMm decimal.Decimal
	WindSpeedMaxKph   decimal.Decimal

	// FixtureOnlyProviders lists cricket providers whose matches are
	// synthetic; their rows are left out of the refresh unless
	// AllowFixtureProviders is set.
	FixtureOnlyProviders  []string
	AllowFixtureProviders bool
}

type WeatherRefreshResult struct {
	ProviderUsed      string
	MatchesEvaluated  int
	RisksUpdated      int
	MatchesSkipped    int
	SnapshotsUpserted int
	RefreshedAt       time.Time
}

// WeatherRiskReport is the on-demand single-match result. When neither the
// live provider nor cached snapshots had any data the report still carries a
// zero-sample computation (score 0.00, level Low) with Source "no-data".
type WeatherRiskReport struct {
	MatchID     string
	Computed    bool
	Source      string
	Computation weather.RiskComputation
	ComputedAt  time.Time
}

// WeatherRiskService fetches forecast windows for upcoming matches, caches
// them as snapshots, and persists a composite risk per match. When the live
// provider has nothing, previously cached snapshots keep risk available.
type WeatherRiskService struct {
	provider    WeatherProvider
	store       WeatherRiskStore
	ids         id.Generator
	cfg         WeatherRiskConfig
	fixtureOnly map[string]struct{}
	fixtureSync *FixtureSyncService
	logger      *logging.Logger
	now         func() time.Time
}

// NewWeatherRiskService resolves the weather provider at construction time:
// the configured name if registered, else the first registered provider. No
// registered provider is a deployment defect, not a runtime condition.
func NewWeatherRiskService(
	providers []WeatherProvider,
	store WeatherRiskStore,
	ids id.Generator,
	cfg WeatherRiskConfig,
	logger *logging.Logger,
) (*WeatherRiskService, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no weather provider registered", ErrDependencyUnavailable)
	}
	if cfg.RefreshWindowDays == 0 {
		cfg.RefreshWindowDays = defaultRefreshWindowDays
	}

	resolved := providers[0]
	if name := strings.TrimSpace(cfg.ProviderName); name != "" {
		for _, p := range providers {
			if strings.EqualFold(p.Name(), name) {
				resolved = p
				break
			}
		}
	}

	fixtureOnly := make(map[string]struct{}, len(cfg.FixtureOnlyProviders))
	if !cfg.AllowFixtureProviders {
		for _, name := range cfg.FixtureOnlyProviders {
			fixtureOnly[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
		}
	}

	return &WeatherRiskService{
		provider:    resolved,
		store:       store,
		ids:         ids,
		cfg:         cfg,
		fixtureOnly: fixtureOnly,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// BindFixtureSync lets an empty-store refresh trigger one fixture sync
// before requerying. Wired at startup, optional.
func (s *WeatherRiskService) BindFixtureSync(sync *FixtureSyncService) {
	s.fixtureSync = sync
}

// RefreshUpcoming recomputes weather risk for every match in the refresh
// window and flushes all snapshots and risks once at the end.
func (s *WeatherRiskService) RefreshUpcoming(ctx context.Context) (WeatherRefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WeatherRiskService.RefreshUpcoming")
	defer span.End()

	result := WeatherRefreshResult{
		ProviderUsed: s.provider.Name(),
		RefreshedAt:  s.now().UTC(),
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if s.store == nil || s.ids == nil {
		return result, fmt.Errorf("%w: weather risk service is not fully configured", ErrDependencyUnavailable)
	}

	windowDays := clampInt(s.cfg.RefreshWindowDays, minRefreshWindowDays, maxRefreshWindowDays)
	from := result.RefreshedAt
	to := result.RefreshedAt.AddDate(0, 0, windowDays)

	upcoming, err := s.store.UpcomingMatchesWithVenues(ctx, from, to)
	if err != nil {
		return result, fmt.Errorf("load upcoming matches for weather refresh: %w", err)
	}
	if len(upcoming) == 0 && s.fixtureSync != nil {
		s.logger.InfoContext(ctx, "no upcoming matches for weather refresh, triggering fixture sync")
		if _, err := s.fixtureSync.SyncUpcoming(ctx); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.WarnContext(ctx, "on-demand fixture sync failed before weather refresh", "error", err)
		}
		if upcoming, err = s.store.UpcomingMatchesWithVenues(ctx, from, to); err != nil {
			return result, fmt.Errorf("load upcoming matches for weather refresh: %w", err)
		}
	}

	var batch RiskRefreshBatch
	for _, mv := range upcoming {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, fixture := s.fixtureOnly[strings.ToLower(mv.Match.SourceProvider)]; fixture {
			s.logger.DebugContext(ctx, "leaving fixture-only match out of weather refresh",
				"match_id", mv.Match.ID, "provider", mv.Match.SourceProvider)
			continue
		}
		result.MatchesEvaluated++

		snapshots, computation, source, err := s.computeOne(ctx, mv, result.RefreshedAt)
		if err != nil {
			return result, err
		}
		if computation == nil {
			result.MatchesSkipped++
			continue
		}

		batch.Snapshots = append(batch.Snapshots, snapshots...)
		batch.Risks = append(batch.Risks, weather.MatchRisk{
			MatchID:    mv.Match.ID,
			Score:      computation.Score,
			Level:      computation.Level,
			ComputedAt: result.RefreshedAt,
		})
		result.RisksUpdated++
		result.SnapshotsUpserted += len(snapshots)
		s.logger.DebugContext(ctx, "computed match weather risk",
			"match_id", mv.Match.ID,
			"score", computation.Score.String(),
			"level", string(computation.Level),
			"source", source,
		)
	}

	if err := s.store.ApplyRiskRefresh(ctx, batch); err != nil {
		return result, fmt.Errorf("persist weather risk batch: %w", err)
	}

	s.logger.InfoContext(ctx, "weather risk refresh completed",
		"provider", result.ProviderUsed,
		"matches_evaluated", result.MatchesEvaluated,
		"risks_updated", result.RisksUpdated,
		"matches_skipped", result.MatchesSkipped,
	)
	return result, nil
}

// ComputeForMatch computes and persists risk for one match on demand.
func (s *WeatherRiskService) ComputeForMatch(ctx context.Context, matchID string) (WeatherRiskReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WeatherRiskService.ComputeForMatch")
	defer span.End()

	report := WeatherRiskReport{MatchID: matchID}
	if strings.TrimSpace(matchID) == "" {
		return report, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if s.store == nil || s.ids == nil {
		return report, fmt.Errorf("%w: weather risk service is not fully configured", ErrDependencyUnavailable)
	}

	mv, err := s.store.MatchWithVenueByID(ctx, matchID)
	if err != nil {
		return report, err
	}

	computedAt := s.now().UTC()
	snapshots, computation, source, err := s.computeOne(ctx, mv, computedAt)
	if err != nil {
		return report, err
	}
	if computation == nil {
		// No forecast anywhere still yields a definite answer for the
		// caller: the zero-sample composite, score 0.00 and level Low.
		zero := weather.ComputeRisk(nil, s.cfg.PrecipAmountMaxMm, s.cfg.WindSpeedMaxKph)
		computation = &zero
		source = riskSourceNoData
	}

	batch := RiskRefreshBatch{
		Snapshots: snapshots,
		Risks: []weather.MatchRisk{{
			MatchID:    mv.Match.ID,
			Score:      computation.Score,
			Level:      computation.Level,
			ComputedAt: computedAt,
		}},
	}
	if err := s.store.ApplyRiskRefresh(ctx, batch); err != nil {
		return report, fmt.Errorf("persist weather risk match_id=%s: %w", matchID, err)
	}

	report.Computed = true
	report.Source = source
	report.Computation = *computation
	report.ComputedAt = computedAt
	return report, nil
}

// computeOne resolves forecast samples for one match, preferring a live
// provider fetch and falling back to cached snapshots. A nil computation
// means no data anywhere: the match is skipped, not failed.
func (s *WeatherRiskService) computeOne(
	ctx context.Context,
	mv MatchWithVenue,
	syncedAt time.Time,
) ([]weather.Snapshot, *weather.RiskComputation, string, error) {
	from := mv.Match.StartTime.Add(-forecastLeadTime)
	to := mv.Match.StartTime.Add(forecastTrailTime)

	points, err := s.provider.FetchForecast(ctx, mv.Venue.Latitude, mv.Venue.Longitude, from, to)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, "", ctx.Err()
		}
		s.logger.WarnContext(ctx, "weather provider fetch failed, falling back to cached snapshots",
			"provider", s.provider.Name(), "venue_id", mv.Venue.ID, "error", err)
		points = nil
	}

	if len(points) > 0 {
		snapshots, err := s.snapshotRows(ctx, mv.Venue.ID, points, syncedAt)
		if err != nil {
			return nil, nil, "", err
		}
		computation := weather.ComputeRisk(points, s.cfg.PrecipAmountMaxMm, s.cfg.WindSpeedMaxKph)
		return snapshots, &computation, riskSourceLive, nil
	}

	cached, err := s.store.SnapshotsByVenueWindow(ctx, mv.Venue.ID, from, to)
	if err != nil {
		return nil, nil, "", fmt.Errorf("load cached snapshots venue_id=%s: %w", mv.Venue.ID, err)
	}
	if len(cached) == 0 {
		s.logger.DebugContext(ctx, "no forecast data for match, skipping risk update",
			"match_id", mv.Match.ID, "venue_id", mv.Venue.ID)
		return nil, nil, "", nil
	}

	cachedPoints := make([]weather.ForecastPoint, 0, len(cached))
	for _, snap := range cached {
		cachedPoints = append(cachedPoints, snap.ForecastPoint())
	}
	computation := weather.ComputeRisk(cachedPoints, s.cfg.PrecipAmountMaxMm, s.cfg.WindSpeedMaxKph)
	return nil, &computation, riskSourceSnapshot, nil
}

// snapshotRows maps live forecast points onto snapshot upserts, reusing
// stored ids for already-seen external ids.
func (s *WeatherRiskService) snapshotRows(
	ctx context.Context,
	venueID string,
	points []weather.ForecastPoint,
	syncedAt time.Time,
) ([]weather.Snapshot, error) {
	providerName := s.provider.Name()

	externalIDs := make([]string, 0, len(points))
	for _, p := range points {
		if p.ExternalID != "" {
			externalIDs = append(externalIDs, p.ExternalID)
		}
	}
	existing, err := s.store.SnapshotsByExternalIDs(ctx, venueID, providerName, externalIDs)
	if err != nil {
		return nil, fmt.Errorf("load existing snapshots venue_id=%s: %w", venueID, err)
	}

	rows := make([]weather.Snapshot, 0, len(points))
	for _, p := range points {
		if p.ExternalID == "" {
			continue
		}
		row := weather.Snapshot{
			VenueID:           venueID,
			Timestamp:         p.Timestamp.UTC(),
			Temperature:       p.Temperature,
			Humidity:          p.Humidity,
			WindSpeed:         p.WindSpeed,
			PrecipProbability: p.PrecipProbability,
			PrecipAmount:      p.PrecipAmount,
			SourceProvider:    providerName,
			ExternalID:        p.ExternalID,
			LastSyncedAt:      syncedAt,
		}
		if current, ok := existing[p.ExternalID]; ok {
			row.ID = current.ID
		} else {
			newID, err := s.ids.NewID()
			if err != nil {
				return nil, fmt.Errorf("generate snapshot id: %w", err)
			}
			row.ID = newID
		}
		rows = append(rows, row)
	}

	return rows, nil
}

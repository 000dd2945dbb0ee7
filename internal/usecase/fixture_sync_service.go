package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cricworks/cricstats/internal/domain/match"
	"github.com/cricworks/cricstats/internal/domain/team"
	"github.com/cricworks/cricstats/internal/domain/venue"
	"github.com/cricworks/cricstats/internal/platform/id"
	"github.com/cricworks/cricstats/internal/platform/logging"
)

const (
	minSyncWindowDays     = 1
	maxSyncWindowDays     = 30
	defaultSyncWindowDays = 14

	// Matches already underway are still interesting, so the window opens
	// slightly in the past.
	syncWindowLookback = 2 * time.Hour
)

type FixtureSyncConfig struct {
	// ProviderPriority lists provider names to try first, in order.
	// Registered providers missing from the list are tried afterwards in
	// registration order.
	ProviderPriority []string
	SyncWindowDays   int
	// AllowFixtureProviders admits fixture-only providers into the fallback
	// chain. Only ever true in testing deployments.
	AllowFixtureProviders bool
}

// FixtureSyncResult reports what one sync run did. ProviderUsed is empty
// when no provider produced data, which is not an error.
type FixtureSyncResult struct {
	ProviderUsed     string
	ProvidersTried   []string
	ProvidersSkipped []string
	MatchesInserted  int
	MatchesUpdated   int
	TeamsTouched     int
	VenuesTouched    int
	SyncedAt         time.Time
}

// FixtureSyncService walks the provider fallback chain for upcoming matches
// and reconciles the first non-empty response into the store.
type FixtureSyncService struct {
	registry *ProviderRegistry
	store    FixtureSyncStore
	ids      id.Generator
	cfg      FixtureSyncConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewFixtureSyncService(
	registry *ProviderRegistry,
	store FixtureSyncStore,
	ids id.Generator,
	cfg FixtureSyncConfig,
	logger *logging.Logger,
) *FixtureSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SyncWindowDays == 0 {
		cfg.SyncWindowDays = defaultSyncWindowDays
	}

	return &FixtureSyncService{
		registry: registry,
		store:    store,
		ids:      ids,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// SyncUpcoming tries providers in priority order until one returns at least
// one match, then upserts that provider's teams, venues and matches in a
// single flush. Provider failures are logged and treated as empty; only a
// persistence failure propagates.
func (s *FixtureSyncService) SyncUpcoming(ctx context.Context) (FixtureSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureSyncService.SyncUpcoming")
	defer span.End()

	result := FixtureSyncResult{SyncedAt: s.now().UTC()}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if s.registry == nil || s.store == nil || s.ids == nil {
		return result, fmt.Errorf("%w: fixture sync service is not fully configured", ErrDependencyUnavailable)
	}

	windowDays := clampInt(s.cfg.SyncWindowDays, minSyncWindowDays, maxSyncWindowDays)
	from := result.SyncedAt.Add(-syncWindowLookback)
	to := result.SyncedAt.AddDate(0, 0, windowDays)

	for _, cand := range s.registry.Priority(s.cfg.ProviderPriority) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		name := cand.Name
		if !cand.Registered {
			s.logger.WarnContext(ctx, "configured provider is not registered, skipping", "provider", name)
			result.ProvidersTried = append(result.ProvidersTried, name)
			continue
		}
		reg := cand.Registration
		if reg.FixtureOnly && !s.cfg.AllowFixtureProviders {
			s.logger.DebugContext(ctx, "skipping fixture-only provider outside testing mode", "provider", name)
			result.ProvidersSkipped = append(result.ProvidersSkipped, name)
			continue
		}
		result.ProvidersTried = append(result.ProvidersTried, name)

		matches, err := reg.Provider.FetchUpcomingMatches(ctx, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.WarnContext(ctx, "provider failed to list upcoming matches, trying next",
				"provider", name, "error", err)
			continue
		}
		if len(matches) == 0 {
			s.logger.DebugContext(ctx, "provider returned no upcoming matches", "provider", name)
			continue
		}

		if err := s.reconcileMatches(ctx, name, matches, &result); err != nil {
			return result, err
		}

		result.ProviderUsed = name
		s.logger.InfoContext(ctx, "fixture sync completed",
			"provider", name,
			"matches_inserted", result.MatchesInserted,
			"matches_updated", result.MatchesUpdated,
			"teams_touched", result.TeamsTouched,
			"venues_touched", result.VenuesTouched,
		)
		return result, nil
	}

	s.logger.InfoContext(ctx, "fixture sync found no provider with data",
		"providers_tried", result.ProvidersTried,
		"providers_skipped", result.ProvidersSkipped,
	)
	return result, nil
}

func (s *FixtureSyncService) reconcileMatches(
	ctx context.Context,
	provider string,
	external []ExternalMatch,
	result *FixtureSyncResult,
) error {
	teamIDs, teams, err := s.reconcileTeams(ctx, provider, external)
	if err != nil {
		return err
	}
	venueIDs, venues, err := s.reconcileVenues(ctx, provider, external)
	if err != nil {
		return err
	}
	result.TeamsTouched = len(teams)
	result.VenuesTouched = len(venues)

	matchExternalIDs := make([]string, 0, len(external))
	for _, em := range external {
		matchExternalIDs = append(matchExternalIDs, em.ExternalID)
	}
	existing, err := s.store.MatchesByExternalIDs(ctx, provider, matchExternalIDs)
	if err != nil {
		return fmt.Errorf("load existing matches provider=%s: %w", provider, err)
	}

	batch := FixtureSyncBatch{Teams: teams, Venues: venues}
	seen := make(map[string]int, len(external))
	for _, em := range external {
		format, err := match.ParseFormat(em.Format)
		if err != nil {
			s.logger.WarnContext(ctx, "dropping match with unknown format",
				"provider", provider, "external_id", em.ExternalID, "format", em.Format)
			continue
		}

		row := match.Match{
			VenueID:        venueIDs[em.Venue.ExternalID],
			HomeTeamID:     teamIDs[em.HomeTeam.ExternalID],
			AwayTeamID:     teamIDs[em.AwayTeam.ExternalID],
			Format:         format,
			StartTime:      em.StartTime.UTC(),
			Status:         match.NormalizeStatus(em.Status),
			SourceProvider: provider,
			ExternalID:     em.ExternalID,
			LastSyncedAt:   result.SyncedAt,
		}

		if idx, dup := seen[em.ExternalID]; dup {
			// Same external id twice in one response: last row wins, counted
			// once.
			row.ID = batch.Matches[idx].ID
			batch.Matches[idx] = row
			continue
		}

		if current, ok := existing[em.ExternalID]; ok {
			row.ID = current.ID
			result.MatchesUpdated++
		} else {
			newID, err := s.ids.NewID()
			if err != nil {
				return fmt.Errorf("generate match id: %w", err)
			}
			row.ID = newID
			result.MatchesInserted++
		}

		seen[em.ExternalID] = len(batch.Matches)
		batch.Matches = append(batch.Matches, row)
	}

	if err := s.store.ApplyFixtureSync(ctx, batch); err != nil {
		return fmt.Errorf("persist fixture sync batch provider=%s: %w", provider, err)
	}
	return nil
}

// reconcileTeams upserts every distinct team in the response and returns the
// external-id to stored-id mapping the match rows need.
func (s *FixtureSyncService) reconcileTeams(
	ctx context.Context,
	provider string,
	external []ExternalMatch,
) (map[string]string, []team.Team, error) {
	distinct := make(map[string]ExternalTeam)
	order := make([]string, 0)
	for _, em := range external {
		for _, et := range []ExternalTeam{em.HomeTeam, em.AwayTeam} {
			if et.ExternalID == "" {
				continue
			}
			if _, ok := distinct[et.ExternalID]; !ok {
				order = append(order, et.ExternalID)
			}
			distinct[et.ExternalID] = et
		}
	}

	existing, err := s.store.TeamsByExternalIDs(ctx, provider, order)
	if err != nil {
		return nil, nil, fmt.Errorf("load existing teams provider=%s: %w", provider, err)
	}

	syncedAt := s.now().UTC()
	ids := make(map[string]string, len(order))
	rows := make([]team.Team, 0, len(order))
	for _, externalID := range order {
		et := distinct[externalID]
		row := team.Team{
			Name:           et.Name,
			Country:        et.Country,
			ShortName:      et.ShortName,
			SourceProvider: provider,
			ExternalID:     externalID,
			LastSyncedAt:   syncedAt,
		}
		if current, ok := existing[externalID]; ok {
			row.ID = current.ID
		} else {
			newID, err := s.ids.NewID()
			if err != nil {
				return nil, nil, fmt.Errorf("generate team id: %w", err)
			}
			row.ID = newID
		}
		ids[externalID] = row.ID
		rows = append(rows, row)
	}

	return ids, rows, nil
}

func (s *FixtureSyncService) reconcileVenues(
	ctx context.Context,
	provider string,
	external []ExternalMatch,
) (map[string]string, []venue.Venue, error) {
	distinct := make(map[string]ExternalVenue)
	order := make([]string, 0)
	for _, em := range external {
		ev := em.Venue
		if ev.ExternalID == "" {
			continue
		}
		if _, ok := distinct[ev.ExternalID]; !ok {
			order = append(order, ev.ExternalID)
		}
		distinct[ev.ExternalID] = ev
	}

	existing, err := s.store.VenuesByExternalIDs(ctx, provider, order)
	if err != nil {
		return nil, nil, fmt.Errorf("load existing venues provider=%s: %w", provider, err)
	}

	syncedAt := s.now().UTC()
	ids := make(map[string]string, len(order))
	rows := make([]venue.Venue, 0, len(order))
	for _, externalID := range order {
		ev := distinct[externalID]
		row := venue.Venue{
			Name:           ev.Name,
			City:           ev.City,
			Country:        ev.Country,
			SourceProvider: provider,
			ExternalID:     externalID,
			LastSyncedAt:   syncedAt,
		}

		switch {
		case ev.Latitude != nil && ev.Longitude != nil:
			row.Latitude = *ev.Latitude
			row.Longitude = *ev.Longitude
			row.GeoSource = ev.GeoSource
			if row.GeoSource == "" {
				row.GeoSource = venue.GeoSourceProvider
			}
		default:
			location := ev.City
			if location == "" {
				location = ev.Name
			}
			row.Latitude, row.Longitude = PseudoCoordinates(location)
			row.GeoSource = venue.GeoSourcePseudoEstimated
		}

		if current, ok := existing[externalID]; ok {
			row.ID = current.ID
		} else {
			newID, err := s.ids.NewID()
			if err != nil {
				return nil, nil, fmt.Errorf("generate venue id: %w", err)
			}
			row.ID = newID
		}
		ids[externalID] = row.ID
		rows = append(rows, row)
	}

	return ids, rows, nil
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cricworks/cricstats/internal/domain/series"
	"github.com/cricworks/cricstats/internal/platform/id"
	"github.com/cricworks/cricstats/internal/platform/logging"
)

const (
	minSeriesSyncWindowDays     = 7
	maxSeriesSyncWindowDays     = 180
	defaultSeriesSyncWindowDays = 120

	defaultSeriesInfoMaxRetries = 2
	defaultSeriesInfoRetryDelay = 300 * time.Millisecond

	// Series already in progress stay in the window.
	seriesWindowLookback = 24 * time.Hour
)

type SeriesSyncConfig struct {
	ProviderPriority      []string
	SeriesSyncWindowDays  int
	SeriesInfoMaxRetries  int
	SeriesInfoRetryDelay  time.Duration
	AllowFixtureProviders bool
}

type SeriesSyncResult struct {
	ProviderUsed          string
	ProvidersTried        []string
	ProvidersSkipped      []string
	SeriesUpserted        int
	SeriesMatchesUpserted int
	SeriesDetailsFailed   int
	StaleSeriesRemoved    bool
	SyncedAt              time.Time
}

// SeriesSyncService applies the same fallback strategy as fixture sync to
// two-level series data: a listing call picks the winning provider, then a
// per-series details call fetches each series' matches with retries. A
// series whose details never arrive is still upserted from listing data
// alone; it just contributes no matches this run.
type SeriesSyncService struct {
	registry *ProviderRegistry
	store    SeriesSyncStore
	ids      id.Generator
	cfg      SeriesSyncConfig
	logger   *logging.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewSeriesSyncService(
	registry *ProviderRegistry,
	store SeriesSyncStore,
	ids id.Generator,
	cfg SeriesSyncConfig,
	logger *logging.Logger,
) *SeriesSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SeriesSyncWindowDays == 0 {
		cfg.SeriesSyncWindowDays = defaultSeriesSyncWindowDays
	}
	if cfg.SeriesInfoMaxRetries < 0 {
		cfg.SeriesInfoMaxRetries = defaultSeriesInfoMaxRetries
	}
	if cfg.SeriesInfoRetryDelay <= 0 {
		cfg.SeriesInfoRetryDelay = defaultSeriesInfoRetryDelay
	}

	return &SeriesSyncService{
		registry: registry,
		store:    store,
		ids:      ids,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// SyncUpcoming walks the provider fallback chain for upcoming series and
// reconciles the first non-empty listing into the store, including a stale
// sweep: still-active series of the winning provider that the response no
// longer mentions are removed along with their matches.
func (s *SeriesSyncService) SyncUpcoming(ctx context.Context) (SeriesSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeriesSyncService.SyncUpcoming")
	defer span.End()

	result := SeriesSyncResult{SyncedAt: s.now().UTC()}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if s.registry == nil || s.store == nil || s.ids == nil {
		return result, fmt.Errorf("%w: series sync service is not fully configured", ErrDependencyUnavailable)
	}

	windowDays := clampInt(s.cfg.SeriesSyncWindowDays, minSeriesSyncWindowDays, maxSeriesSyncWindowDays)
	from := result.SyncedAt.Add(-seriesWindowLookback)
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

		listed, err := reg.Provider.FetchUpcomingSeries(ctx, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.WarnContext(ctx, "provider failed to list upcoming series, trying next",
				"provider", name, "error", err)
			continue
		}
		if len(listed) == 0 {
			s.logger.DebugContext(ctx, "provider returned no upcoming series", "provider", name)
			continue
		}

		if err := s.reconcileSeries(ctx, reg.Provider, listed, to, &result); err != nil {
			return result, err
		}

		result.ProviderUsed = name
		s.logger.InfoContext(ctx, "series sync completed",
			"provider", name,
			"series_upserted", result.SeriesUpserted,
			"series_matches_upserted", result.SeriesMatchesUpserted,
			"series_details_failed", result.SeriesDetailsFailed,
		)
		return result, nil
	}

	s.logger.InfoContext(ctx, "series sync found no provider with data",
		"providers_tried", result.ProvidersTried,
		"providers_skipped", result.ProvidersSkipped,
	)
	return result, nil
}

func (s *SeriesSyncService) reconcileSeries(
	ctx context.Context,
	provider CricketProvider,
	listed []ExternalSeries,
	windowEnd time.Time,
	result *SeriesSyncResult,
) error {
	providerName := provider.Name()

	distinct := make(map[string]ExternalSeries)
	order := make([]string, 0, len(listed))
	for _, es := range listed {
		if es.ExternalID == "" {
			continue
		}
		if _, ok := distinct[es.ExternalID]; !ok {
			order = append(order, es.ExternalID)
		}
		distinct[es.ExternalID] = es
	}

	existing, err := s.store.SeriesByExternalIDs(ctx, providerName, order)
	if err != nil {
		return fmt.Errorf("load existing series provider=%s: %w", providerName, err)
	}

	existingSeriesIDs := make([]string, 0, len(existing))
	for _, row := range existing {
		existingSeriesIDs = append(existingSeriesIDs, row.ID)
	}
	storedMatches, err := s.store.SeriesMatchesForSeries(ctx, existingSeriesIDs)
	if err != nil {
		return fmt.Errorf("load existing series matches provider=%s: %w", providerName, err)
	}
	matchIDByKey := make(map[string]string, len(storedMatches))
	for _, sm := range storedMatches {
		matchIDByKey[sm.SeriesID+"|"+sm.SourceProvider+"|"+sm.ExternalID] = sm.ID
	}

	batch := SeriesSyncBatch{
		RemoveStale: &StaleSeriesFilter{
			Provider:         providerName,
			ActiveOnOrAfter:  result.SyncedAt,
			StartsOnOrBefore: windowEnd,
			KeepExternalIDs:  order,
		},
	}

	for _, externalID := range order {
		if err := ctx.Err(); err != nil {
			return err
		}

		es := distinct[externalID]
		details, detailsErr := s.fetchSeriesInfo(ctx, provider, externalID)
		if detailsErr != nil {
			result.SeriesDetailsFailed++
			s.logger.WarnContext(ctx, "series details unavailable, upserting listing data only",
				"provider", providerName, "series_external_id", externalID, "error", detailsErr)
		}

		row := series.Series{
			Name:           es.Name,
			StartDate:      es.StartDate,
			EndDate:        es.EndDate,
			SourceProvider: providerName,
			ExternalID:     externalID,
			LastSyncedAt:   result.SyncedAt,
		}
		if details != nil {
			if details.Name != "" {
				row.Name = details.Name
			}
			if details.StartDate != nil {
				row.StartDate = details.StartDate
			}
			if details.EndDate != nil {
				row.EndDate = details.EndDate
			}
		}

		if current, ok := existing[externalID]; ok {
			row.ID = current.ID
		} else {
			newID, err := s.ids.NewID()
			if err != nil {
				return fmt.Errorf("generate series id: %w", err)
			}
			row.ID = newID
		}
		batch.Series = append(batch.Series, row)
		result.SeriesUpserted++

		if details == nil {
			continue
		}
		for _, em := range details.Matches {
			if em.ExternalID == "" {
				continue
			}
			matchRow := series.SeriesMatch{
				SeriesID:       row.ID,
				Name:           em.Name,
				VenueName:      em.VenueName,
				VenueCountry:   em.VenueCountry,
				Format:         em.Format,
				StartTime:      em.StartTime,
				Status:         em.Status,
				StatusText:     em.StatusText,
				SourceProvider: providerName,
				ExternalID:     em.ExternalID,
				LastSyncedAt:   result.SyncedAt,
			}
			if storedID, ok := matchIDByKey[row.ID+"|"+providerName+"|"+em.ExternalID]; ok {
				matchRow.ID = storedID
			} else {
				newID, err := s.ids.NewID()
				if err != nil {
					return fmt.Errorf("generate series match id: %w", err)
				}
				matchRow.ID = newID
			}
			batch.SeriesMatches = append(batch.SeriesMatches, matchRow)
			result.SeriesMatchesUpserted++
		}
	}

	if err := s.store.ApplySeriesSync(ctx, batch); err != nil {
		return fmt.Errorf("persist series sync batch provider=%s: %w", providerName, err)
	}
	result.StaleSeriesRemoved = true
	return nil
}

// fetchSeriesInfo retries the per-series details call. With MaxRetries = N
// the provider gets N+1 attempts in total. A nil result without error means
// the provider simply has no details endpoint.
func (s *SeriesSyncService) fetchSeriesInfo(
	ctx context.Context,
	provider CricketProvider,
	externalID string,
) (*ExternalSeriesDetails, error) {
	attempts := s.cfg.SeriesInfoMaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		details, err := provider.FetchSeriesInfo(ctx, externalID)
		if err == nil {
			return details, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < attempts {
			s.logger.DebugContext(ctx, "retrying series details fetch",
				"provider", provider.Name(),
				"series_external_id", externalID,
				"attempt", attempt,
				"error", err,
			)
			if err := s.sleep(ctx, s.cfg.SeriesInfoRetryDelay); err != nil {
				return nil, err
			}
		}
	}

	return nil, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

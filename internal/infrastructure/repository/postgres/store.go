package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cricworks/cricstats/internal/domain/match"
	"github.com/cricworks/cricstats/internal/domain/series"
	"github.com/cricworks/cricstats/internal/domain/team"
	"github.com/cricworks/cricstats/internal/domain/venue"
	"github.com/cricworks/cricstats/internal/domain/weather"
	qb "github.com/cricworks/cricstats/internal/platform/querybuilder"
	"github.com/cricworks/cricstats/internal/usecase"
)

const (
	upsertTeamSuffix = `ON CONFLICT (source_provider, external_id) DO UPDATE SET
		name = EXCLUDED.name,
		country = EXCLUDED.country,
		short_name = EXCLUDED.short_name,
		last_synced_at = EXCLUDED.last_synced_at`

	upsertVenueSuffix = `ON CONFLICT (source_provider, external_id) DO UPDATE SET
		name = EXCLUDED.name,
		city = EXCLUDED.city,
		country = EXCLUDED.country,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		geo_source = EXCLUDED.geo_source,
		last_synced_at = EXCLUDED.last_synced_at`

	upsertMatchSuffix = `ON CONFLICT (source_provider, external_id) DO UPDATE SET
		venue_id = EXCLUDED.venue_id,
		home_team_id = EXCLUDED.home_team_id,
		away_team_id = EXCLUDED.away_team_id,
		format = EXCLUDED.format,
		start_time_utc = EXCLUDED.start_time_utc,
		status = EXCLUDED.status,
		last_synced_at = EXCLUDED.last_synced_at`

	upsertSeriesSuffix = `ON CONFLICT (source_provider, external_id) DO UPDATE SET
		name = EXCLUDED.name,
		start_date_utc = EXCLUDED.start_date_utc,
		end_date_utc = EXCLUDED.end_date_utc,
		last_synced_at = EXCLUDED.last_synced_at`

	upsertSeriesMatchSuffix = `ON CONFLICT (series_id, source_provider, external_id) DO UPDATE SET
		name = EXCLUDED.name,
		venue_name = EXCLUDED.venue_name,
		venue_country = EXCLUDED.venue_country,
		format = EXCLUDED.format,
		start_time_utc = EXCLUDED.start_time_utc,
		status = EXCLUDED.status,
		status_text = EXCLUDED.status_text,
		last_synced_at = EXCLUDED.last_synced_at`

	upsertSnapshotSuffix = `ON CONFLICT (venue_id, source_provider, external_id) DO UPDATE SET
		timestamp_utc = EXCLUDED.timestamp_utc,
		temperature = EXCLUDED.temperature,
		humidity = EXCLUDED.humidity,
		wind_speed = EXCLUDED.wind_speed,
		precip_probability = EXCLUDED.precip_probability,
		precip_amount = EXCLUDED.precip_amount,
		last_synced_at = EXCLUDED.last_synced_at`

	upsertMatchRiskSuffix = `ON CONFLICT (match_id) DO UPDATE SET
		composite_risk_score = EXCLUDED.composite_risk_score,
		risk_level = EXCLUDED.risk_level,
		computed_at_utc = EXCLUDED.computed_at_utc`
)

// Store implements the sync and risk persistence surfaces on PostgreSQL.
// Each Apply call runs inside a single transaction so a batch lands whole
// or not at all.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) TeamsByExternalIDs(ctx context.Context, provider string, externalIDs []string) (map[string]team.Team, error) {
	out := make(map[string]team.Team, len(externalIDs))
	if len(externalIDs) == 0 {
		return out, nil
	}

	query, args, err := qb.Select("*").From("teams").
		Where(
			qb.Eq("source_provider", provider),
			qb.In("external_id", stringsToAny(externalIDs)),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by external ids query: %w", err)
	}

	var rows []teamTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams by external ids: %w", err)
	}

	for _, row := range rows {
		out[row.ExternalID] = row.toDomain()
	}
	return out, nil
}

func (s *Store) VenuesByExternalIDs(ctx context.Context, provider string, externalIDs []string) (map[string]venue.Venue, error) {
	out := make(map[string]venue.Venue, len(externalIDs))
	if len(externalIDs) == 0 {
		return out, nil
	}

	query, args, err := qb.Select("*").From("venues").
		Where(
			qb.Eq("source_provider", provider),
			qb.In("external_id", stringsToAny(externalIDs)),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select venues by external ids query: %w", err)
	}

	var rows []venueTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select venues by external ids: %w", err)
	}

	for _, row := range rows {
		out[row.ExternalID] = row.toDomain()
	}
	return out, nil
}

func (s *Store) MatchesByExternalIDs(ctx context.Context, provider string, externalIDs []string) (map[string]match.Match, error) {
	out := make(map[string]match.Match, len(externalIDs))
	if len(externalIDs) == 0 {
		return out, nil
	}

	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Eq("source_provider", provider),
			qb.In("external_id", stringsToAny(externalIDs)),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches by external ids query: %w", err)
	}

	var rows []matchTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches by external ids: %w", err)
	}

	for _, row := range rows {
		out[row.ExternalID] = row.toDomain()
	}
	return out, nil
}

func (s *Store) ApplyFixtureSync(ctx context.Context, batch usecase.FixtureSyncBatch) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, row := range batch.Teams {
			if err := execInsert(ctx, tx, "teams", teamToTable(row), upsertTeamSuffix); err != nil {
				return fmt.Errorf("upsert team %s: %w", row.ExternalID, err)
			}
		}
		for _, row := range batch.Venues {
			if err := execInsert(ctx, tx, "venues", venueToTable(row), upsertVenueSuffix); err != nil {
				return fmt.Errorf("upsert venue %s: %w", row.ExternalID, err)
			}
		}
		for _, row := range batch.Matches {
			if err := execInsert(ctx, tx, "matches", matchToTable(row), upsertMatchSuffix); err != nil {
				return fmt.Errorf("upsert match %s: %w", row.ExternalID, err)
			}
		}
		return nil
	})
}

func (s *Store) SeriesByExternalIDs(ctx context.Context, provider string, externalIDs []string) (map[string]series.Series, error) {
	out := make(map[string]series.Series, len(externalIDs))
	if len(externalIDs) == 0 {
		return out, nil
	}

	query, args, err := qb.Select("*").From("series").
		Where(
			qb.Eq("source_provider", provider),
			qb.In("external_id", stringsToAny(externalIDs)),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select series by external ids query: %w", err)
	}

	var rows []seriesTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select series by external ids: %w", err)
	}

	for _, row := range rows {
		out[row.ExternalID] = row.toDomain()
	}
	return out, nil
}

func (s *Store) SeriesMatchesForSeries(ctx context.Context, seriesIDs []string) ([]series.SeriesMatch, error) {
	if len(seriesIDs) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select("*").From("series_matches").
		Where(qb.In("series_id", stringsToAny(seriesIDs))).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select series matches query: %w", err)
	}

	var rows []seriesMatchTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select series matches: %w", err)
	}

	out := make([]series.SeriesMatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) ApplySeriesSync(ctx context.Context, batch usecase.SeriesSyncBatch) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, row := range batch.Series {
			if err := execInsert(ctx, tx, "series", seriesToTable(row), upsertSeriesSuffix); err != nil {
				return fmt.Errorf("upsert series %s: %w", row.ExternalID, err)
			}
		}
		for _, row := range batch.SeriesMatches {
			if err := execInsert(ctx, tx, "series_matches", seriesMatchToTable(row), upsertSeriesMatchSuffix); err != nil {
				return fmt.Errorf("upsert series match %s: %w", row.ExternalID, err)
			}
		}
		if batch.RemoveStale != nil {
			if err := deleteStaleSeries(ctx, tx, *batch.RemoveStale); err != nil {
				return err
			}
		}
		return nil
	})
}

// deleteStaleSeries removes same-provider series missing from the latest
// response that are still active (no end date, or end date on or after the
// sync time) and start inside the sync window. Series matches go with them
// via the FK cascade. Fully past series and series beyond the window end
// are left alone.
func deleteStaleSeries(ctx context.Context, tx *sqlx.Tx, filter usecase.StaleSeriesFilter) error {
	query, args, err := qb.DeleteFrom("series").
		Where(
			qb.Eq("source_provider", filter.Provider),
			qb.NotIn("external_id", stringsToAny(filter.KeepExternalIDs)),
			qb.Expr("(end_date_utc IS NULL OR end_date_utc >= ?)", filter.ActiveOnOrAfter),
			qb.Expr("(start_date_utc IS NULL OR start_date_utc <= ?)", filter.StartsOnOrBefore),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete stale series query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete stale series: %w", err)
	}
	return nil
}

func (s *Store) UpcomingMatchesWithVenues(ctx context.Context, from, to time.Time) ([]usecase.MatchWithVenue, error) {
	query, args, err := qb.Select(matchWithVenueColumns...).
		From("matches m JOIN venues v ON v.id = m.venue_id").
		Where(
			qb.Gte("m.start_time_utc", from),
			qb.Lte("m.start_time_utc", to),
			qb.NotIn("m.status", []any{match.StatusCompleted, match.StatusCancelled}),
		).
		OrderBy("m.start_time_utc", "m.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select upcoming matches with venues query: %w", err)
	}

	var rows []matchWithVenueRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select upcoming matches with venues: %w", err)
	}

	out := make([]usecase.MatchWithVenue, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toView())
	}
	return out, nil
}

func (s *Store) MatchWithVenueByID(ctx context.Context, matchID string) (usecase.MatchWithVenue, error) {
	query, args, err := qb.Select(matchWithVenueColumns...).
		From("matches m JOIN venues v ON v.id = m.venue_id").
		Where(qb.Eq("m.id", matchID)).
		ToSQL()
	if err != nil {
		return usecase.MatchWithVenue{}, fmt.Errorf("build select match with venue query: %w", err)
	}

	var row matchWithVenueRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return usecase.MatchWithVenue{}, fmt.Errorf("%w: match %s", usecase.ErrNotFound, matchID)
		}
		return usecase.MatchWithVenue{}, fmt.Errorf("select match with venue: %w", err)
	}

	return row.toView(), nil
}

func (s *Store) SnapshotsByVenueWindow(ctx context.Context, venueID string, from, to time.Time) ([]weather.Snapshot, error) {
	query, args, err := qb.Select("*").From("weather_snapshots").
		Where(
			qb.Eq("venue_id", venueID),
			qb.Gte("timestamp_utc", from),
			qb.Lte("timestamp_utc", to),
		).
		OrderBy("timestamp_utc").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select snapshots by venue window query: %w", err)
	}

	var rows []snapshotTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select snapshots by venue window: %w", err)
	}

	out := make([]weather.Snapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) SnapshotsByExternalIDs(ctx context.Context, venueID, provider string, externalIDs []string) (map[string]weather.Snapshot, error) {
	out := make(map[string]weather.Snapshot, len(externalIDs))
	if len(externalIDs) == 0 {
		return out, nil
	}

	query, args, err := qb.Select("*").From("weather_snapshots").
		Where(
			qb.Eq("venue_id", venueID),
			qb.Eq("source_provider", provider),
			qb.In("external_id", stringsToAny(externalIDs)),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select snapshots by external ids query: %w", err)
	}

	var rows []snapshotTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select snapshots by external ids: %w", err)
	}

	for _, row := range rows {
		out[row.ExternalID] = row.toDomain()
	}
	return out, nil
}

func (s *Store) ApplyRiskRefresh(ctx context.Context, batch usecase.RiskRefreshBatch) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, row := range batch.Snapshots {
			if err := execInsert(ctx, tx, "weather_snapshots", snapshotToTable(row), upsertSnapshotSuffix); err != nil {
				return fmt.Errorf("upsert weather snapshot %s: %w", row.ExternalID, err)
			}
		}
		for _, row := range batch.Risks {
			if err := execInsert(ctx, tx, "match_weather_risks", matchRiskToTable(row), upsertMatchRiskSuffix); err != nil {
				return fmt.Errorf("upsert match weather risk %s: %w", row.MatchID, err)
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func execInsert(ctx context.Context, tx *sqlx.Tx, table string, model any, suffix string) error {
	query, args, err := qb.InsertModel(table, model, suffix)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/cricworks/cricstats/internal/domain/match"
	"github.com/cricworks/cricstats/internal/domain/series"
	"github.com/cricworks/cricstats/internal/domain/venue"
	"github.com/cricworks/cricstats/internal/domain/weather"
	qb "github.com/cricworks/cricstats/internal/platform/querybuilder"
	"github.com/cricworks/cricstats/internal/usecase"
)

var matchWithVenueColumns = []string{
	"m.id AS match_id",
	"m.venue_id AS match_venue_id",
	"m.home_team_id AS match_home_team_id",
	"m.away_team_id AS match_away_team_id",
	"m.format AS match_format",
	"m.start_time_utc AS match_start_time_utc",
	"m.status AS match_status",
	"m.source_provider AS match_source_provider",
	"m.external_id AS match_external_id",
	"m.last_synced_at AS match_last_synced_at",
	"v.id AS venue_row_id",
	"v.name AS venue_name",
	"v.city AS venue_city",
	"v.country AS venue_country",
	"v.latitude AS venue_latitude",
	"v.longitude AS venue_longitude",
	"v.geo_source AS venue_geo_source",
	"v.source_provider AS venue_source_provider",
	"v.external_id AS venue_external_id",
	"v.last_synced_at AS venue_last_synced_at",
}

type matchWithVenueRow struct {
	MatchID             string          `db:"match_id"`
	MatchVenueID        string          `db:"match_venue_id"`
	MatchHomeTeamID     string          `db:"match_home_team_id"`
	MatchAwayTeamID     string          `db:"match_away_team_id"`
	MatchFormat         string          `db:"match_format"`
	MatchStartTime      time.Time       `db:"match_start_time_utc"`
	MatchStatus         string          `db:"match_status"`
	MatchSourceProvider string          `db:"match_source_provider"`
	MatchExternalID     string          `db:"match_external_id"`
	MatchLastSyncedAt   time.Time       `db:"match_last_synced_at"`
	VenueRowID          string          `db:"venue_row_id"`
	VenueName           string          `db:"venue_name"`
	VenueCity           string          `db:"venue_city"`
	VenueCountry        string          `db:"venue_country"`
	VenueLatitude       decimal.Decimal `db:"venue_latitude"`
	VenueLongitude      decimal.Decimal `db:"venue_longitude"`
	VenueGeoSource      string          `db:"venue_geo_source"`
	VenueSourceProvider string          `db:"venue_source_provider"`
	VenueExternalID     string          `db:"venue_external_id"`
	VenueLastSyncedAt   time.Time       `db:"venue_last_synced_at"`
}

func (r matchWithVenueRow) toView() usecase.MatchWithVenue {
	return usecase.MatchWithVenue{
		Match: match.Match{
			ID:             r.MatchID,
			VenueID:        r.MatchVenueID,
			HomeTeamID:     r.MatchHomeTeamID,
			AwayTeamID:     r.MatchAwayTeamID,
			Format:         match.Format(r.MatchFormat),
			StartTime:      r.MatchStartTime,
			Status:         r.MatchStatus,
			SourceProvider: r.MatchSourceProvider,
			ExternalID:     r.MatchExternalID,
			LastSyncedAt:   r.MatchLastSyncedAt,
		},
		Venue: venue.Venue{
			ID:             r.VenueRowID,
			Name:           r.VenueName,
			City:           r.VenueCity,
			Country:        r.VenueCountry,
			Latitude:       r.VenueLatitude,
			Longitude:      r.VenueLongitude,
			GeoSource:      venue.GeoSource(r.VenueGeoSource),
			SourceProvider: r.VenueSourceProvider,
			ExternalID:     r.VenueExternalID,
			LastSyncedAt:   r.VenueLastSyncedAt,
		},
	}
}

var upcomingViewColumns = []string{
	"m.id AS match_id",
	"m.venue_id AS match_venue_id",
	"m.home_team_id AS match_home_team_id",
	"m.away_team_id AS match_away_team_id",
	"m.format AS match_format",
	"m.start_time_utc AS match_start_time_utc",
	"m.status AS match_status",
	"m.source_provider AS match_source_provider",
	"m.external_id AS match_external_id",
	"m.last_synced_at AS match_last_synced_at",
	"v.name AS venue_name",
	"v.city AS venue_city",
	"v.country AS venue_country",
	"th.name AS home_team_name",
	"th.country AS home_team_country",
	"ta.name AS away_team_name",
	"ta.country AS away_team_country",
	"r.composite_risk_score AS risk_score",
	"r.risk_level AS risk_level",
	"r.computed_at_utc AS risk_computed_at",
}

const upcomingViewTables = `matches m
	JOIN venues v ON v.id = m.venue_id
	JOIN teams th ON th.id = m.home_team_id
	JOIN teams ta ON ta.id = m.away_team_id
	LEFT JOIN match_weather_risks r ON r.match_id = m.id`

type upcomingViewRow struct {
	MatchID             string              `db:"match_id"`
	MatchVenueID        string              `db:"match_venue_id"`
	MatchHomeTeamID     string              `db:"match_home_team_id"`
	MatchAwayTeamID     string              `db:"match_away_team_id"`
	MatchFormat         string              `db:"match_format"`
	MatchStartTime      time.Time           `db:"match_start_time_utc"`
	MatchStatus         string              `db:"match_status"`
	MatchSourceProvider string              `db:"match_source_provider"`
	MatchExternalID     string              `db:"match_external_id"`
	MatchLastSyncedAt   time.Time           `db:"match_last_synced_at"`
	VenueName           string              `db:"venue_name"`
	VenueCity           string              `db:"venue_city"`
	VenueCountry        string              `db:"venue_country"`
	HomeTeamName        string              `db:"home_team_name"`
	HomeTeamCountry     string              `db:"home_team_country"`
	AwayTeamName        string              `db:"away_team_name"`
	AwayTeamCountry     string              `db:"away_team_country"`
	RiskScore           decimal.NullDecimal `db:"risk_score"`
	RiskLevel           sql.NullString      `db:"risk_level"`
	RiskComputedAt      sql.NullTime        `db:"risk_computed_at"`
}

func (r upcomingViewRow) toView() match.UpcomingView {
	view := match.UpcomingView{
		Match: match.Match{
			ID:             r.MatchID,
			VenueID:        r.MatchVenueID,
			HomeTeamID:     r.MatchHomeTeamID,
			AwayTeamID:     r.MatchAwayTeamID,
			Format:         match.Format(r.MatchFormat),
			StartTime:      r.MatchStartTime,
			Status:         r.MatchStatus,
			SourceProvider: r.MatchSourceProvider,
			ExternalID:     r.MatchExternalID,
			LastSyncedAt:   r.MatchLastSyncedAt,
		},
		VenueName:       r.VenueName,
		VenueCity:       r.VenueCity,
		VenueCountry:    r.VenueCountry,
		HomeTeamName:    r.HomeTeamName,
		HomeTeamCountry: r.HomeTeamCountry,
		AwayTeamName:    r.AwayTeamName,
		AwayTeamCountry: r.AwayTeamCountry,
	}
	if r.RiskScore.Valid && r.RiskLevel.Valid {
		view.Risk = &weather.MatchRisk{
			MatchID:    r.MatchID,
			Score:      r.RiskScore.Decimal,
			Level:      weather.RiskLevel(r.RiskLevel.String),
			ComputedAt: r.RiskComputedAt.Time,
		}
	}
	return view
}

// MatchReads implements the match read repository over the same database.
type MatchReads struct {
	db *sqlx.DB
}

func NewMatchReads(db *sqlx.DB) *MatchReads {
	return &MatchReads{db: db}
}

func (r *MatchReads) ListUpcoming(ctx context.Context, filter match.Filter) ([]match.UpcomingView, error) {
	builder := qb.Select(upcomingViewColumns...).
		From(upcomingViewTables).
		OrderBy("m.start_time_utc", "m.id")

	if filter.Country != "" {
		builder = builder.Where(qb.Expr(
			"(LOWER(v.country) = ? OR LOWER(th.country) = ? OR LOWER(ta.country) = ?)",
			lower(filter.Country), lower(filter.Country), lower(filter.Country),
		))
	}
	if filter.Format != nil {
		builder = builder.Where(qb.Eq("m.format", string(*filter.Format)))
	}
	if filter.From != nil {
		builder = builder.Where(qb.Gte("m.start_time_utc", *filter.From))
	}
	if filter.To != nil {
		builder = builder.Where(qb.Lte("m.start_time_utc", *filter.To))
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select upcoming matches query: %w", err)
	}

	var rows []upcomingViewRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select upcoming matches: %w", err)
	}

	out := make([]match.UpcomingView, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toView())
	}
	return out, nil
}

func (r *MatchReads) CountAll(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "matches")
}

// SeriesReads implements the series read repository.
type SeriesReads struct {
	db *sqlx.DB
}

func NewSeriesReads(db *sqlx.DB) *SeriesReads {
	return &SeriesReads{db: db}
}

func (r *SeriesReads) ListUpcoming(ctx context.Context, from, to *time.Time) ([]series.Series, error) {
	builder := qb.Select("*").From("series").
		OrderBy("start_date_utc ASC NULLS LAST", "name")

	if from != nil {
		builder = builder.Where(qb.Expr("(end_date_utc IS NULL OR end_date_utc >= ?)", *from))
	}
	if to != nil {
		builder = builder.Where(qb.Expr("(start_date_utc IS NULL OR start_date_utc <= ?)", *to))
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select upcoming series query: %w", err)
	}

	var rows []seriesTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select upcoming series: %w", err)
	}

	out := make([]series.Series, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SeriesReads) GetByID(ctx context.Context, seriesID string) (series.Series, error) {
	query, args, err := qb.Select("*").From("series").
		Where(qb.Eq("id", seriesID)).
		ToSQL()
	if err != nil {
		return series.Series{}, fmt.Errorf("build select series by id query: %w", err)
	}

	var row seriesTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return series.Series{}, fmt.Errorf("%w: series %s", usecase.ErrNotFound, seriesID)
		}
		return series.Series{}, fmt.Errorf("select series by id: %w", err)
	}

	return row.toDomain(), nil
}

func (r *SeriesReads) ListMatches(ctx context.Context, seriesID string, offset, limit int) ([]series.SeriesMatch, int, error) {
	countQuery, countArgs, err := qb.Select("COUNT(*)").From("series_matches").
		Where(qb.Eq("series_id", seriesID)).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count series matches query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count series matches: %w", err)
	}

	query, args, err := qb.Select("*").From("series_matches").
		Where(qb.Eq("series_id", seriesID)).
		OrderBy("start_time_utc ASC NULLS LAST", "external_id").
		Limit(limit).
		Offset(offset).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build select series matches page query: %w", err)
	}

	var rows []seriesMatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("select series matches page: %w", err)
	}

	out := make([]series.SeriesMatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, total, nil
}

func (r *SeriesReads) ListUpcomingMatches(ctx context.Context, seriesID string, from time.Time, limit int) ([]series.SeriesMatch, error) {
	query, args, err := qb.Select("*").From("series_matches").
		Where(
			qb.Eq("series_id", seriesID),
			qb.Gte("start_time_utc", from),
		).
		OrderBy("start_time_utc", "external_id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select upcoming series matches query: %w", err)
	}

	var rows []seriesMatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select upcoming series matches: %w", err)
	}

	out := make([]series.SeriesMatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SeriesReads) CountAll(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "series")
}

func countRows(ctx context.Context, db *sqlx.DB, table string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From(table).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count %s query: %w", table, err)
	}

	var total int
	if err := db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return total, nil
}

package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cricworks/cricstats/internal/domain/match"
	"github.com/cricworks/cricstats/internal/domain/series"
	"github.com/cricworks/cricstats/internal/domain/team"
	"github.com/cricworks/cricstats/internal/domain/venue"
	"github.com/cricworks/cricstats/internal/domain/weather"
)

type teamTableModel struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	Country        string    `db:"country"`
	ShortName      string    `db:"short_name"`
	SourceProvider string    `db:"source_provider"`
	ExternalID     string    `db:"external_id"`
	LastSyncedAt   time.Time `db:"last_synced_at"`
}

func teamToTable(row team.Team) teamTableModel {
	return teamTableModel{
		ID:             row.ID,
		Name:           row.Name,
		Country:        row.Country,
		ShortName:      row.ShortName,
		SourceProvider: row.SourceProvider,
		ExternalID:     row.ExternalID,
		LastSyncedAt:   row.LastSyncedAt,
	}
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:             m.ID,
		Name:           m.Name,
		Country:        m.Country,
		ShortName:      m.ShortName,
		SourceProvider: m.SourceProvider,
		ExternalID:     m.ExternalID,
		LastSyncedAt:   m.LastSyncedAt,
	}
}

type venueTableModel struct {
	ID             string          `db:"id"`
	Name           string          `db:"name"`
	City           string          `db:"city"`
	Country        string          `db:"country"`
	Latitude       decimal.Decimal `db:"latitude"`
	Longitude      decimal.Decimal `db:"longitude"`
	GeoSource      string          `db:"geo_source"`
	SourceProvider string          `db:"source_provider"`
	ExternalID     string          `db:"external_id"`
	LastSyncedAt   time.Time       `db:"last_synced_at"`
}

func venueToTable(row venue.Venue) venueTableModel {
	return venueTableModel{
		ID:             row.ID,
		Name:           row.Name,
		City:           row.City,
		Country:        row.Country,
		Latitude:       row.Latitude,
		Longitude:      row.Longitude,
		GeoSource:      string(row.GeoSource),
		SourceProvider: row.SourceProvider,
		ExternalID:     row.ExternalID,
		LastSyncedAt:   row.LastSyncedAt,
	}
}

func (m venueTableModel) toDomain() venue.Venue {
	return venue.Venue{
		ID:             m.ID,
		Name:           m.Name,
		City:           m.City,
		Country:        m.Country,
		Latitude:       m.Latitude,
		Longitude:      m.Longitude,
		GeoSource:      venue.GeoSource(m.GeoSource),
		SourceProvider: m.SourceProvider,
		ExternalID:     m.ExternalID,
		LastSyncedAt:   m.LastSyncedAt,
	}
}

type matchTableModel struct {
	ID             string    `db:"id"`
	VenueID        string    `db:"venue_id"`
	HomeTeamID     string    `db:"home_team_id"`
	AwayTeamID     string    `db:"away_team_id"`
	Format         string    `db:"format"`
	StartTime      time.Time `db:"start_time_utc"`
	Status         string    `db:"status"`
	SourceProvider string    `db:"source_provider"`
	ExternalID     string    `db:"external_id"`
	LastSyncedAt   time.Time `db:"last_synced_at"`
}

func matchToTable(row match.Match) matchTableModel {
	return matchTableModel{
		ID:             row.ID,
		VenueID:        row.VenueID,
		HomeTeamID:     row.HomeTeamID,
		AwayTeamID:     row.AwayTeamID,
		Format:         string(row.Format),
		StartTime:      row.StartTime,
		Status:         row.Status,
		SourceProvider: row.SourceProvider,
		ExternalID:     row.ExternalID,
		LastSyncedAt:   row.LastSyncedAt,
	}
}

func (m matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:             m.ID,
		VenueID:        m.VenueID,
		HomeTeamID:     m.HomeTeamID,
		AwayTeamID:     m.AwayTeamID,
		Format:         match.Format(m.Format),
		StartTime:      m.StartTime,
		Status:         m.Status,
		SourceProvider: m.SourceProvider,
		ExternalID:     m.ExternalID,
		LastSyncedAt:   m.LastSyncedAt,
	}
}

type seriesTableModel struct {
	ID             string     `db:"id"`
	Name           string     `db:"name"`
	StartDate      *time.Time `db:"start_date_utc"`
	EndDate        *time.Time `db:"end_date_utc"`
	SourceProvider string     `db:"source_provider"`
	ExternalID     string     `db:"external_id"`
	LastSyncedAt   time.Time  `db:"last_synced_at"`
}

func seriesToTable(row series.Series) seriesTableModel {
	return seriesTableModel{
		ID:             row.ID,
		Name:           row.Name,
		StartDate:      row.StartDate,
		EndDate:        row.EndDate,
		SourceProvider: row.SourceProvider,
		ExternalID:     row.ExternalID,
		LastSyncedAt:   row.LastSyncedAt,
	}
}

func (m seriesTableModel) toDomain() series.Series {
	return series.Series{
		ID:             m.ID,
		Name:           m.Name,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		SourceProvider: m.SourceProvider,
		ExternalID:     m.ExternalID,
		LastSyncedAt:   m.LastSyncedAt,
	}
}

type seriesMatchTableModel struct {
	ID             string     `db:"id"`
	SeriesID       string     `db:"series_id"`
	Name           string     `db:"name"`
	VenueName      string     `db:"venue_name"`
	VenueCountry   string     `db:"venue_country"`
	Format         string     `db:"format"`
	StartTime      *time.Time `db:"start_time_utc"`
	Status         string     `db:"status"`
	StatusText     string     `db:"status_text"`
	SourceProvider string     `db:"source_provider"`
	ExternalID     string     `db:"external_id"`
	LastSyncedAt   time.Time  `db:"last_synced_at"`
}

func seriesMatchToTable(row series.SeriesMatch) seriesMatchTableModel {
	return seriesMatchTableModel{
		ID:             row.ID,
		SeriesID:       row.SeriesID,
		Name:           row.Name,
		VenueName:      row.VenueName,
		VenueCountry:   row.VenueCountry,
		Format:         row.Format,
		StartTime:      row.StartTime,
		Status:         row.Status,
		StatusText:     row.StatusText,
		SourceProvider: row.SourceProvider,
		ExternalID:     row.ExternalID,
		LastSyncedAt:   row.LastSyncedAt,
	}
}

func (m seriesMatchTableModel) toDomain() series.SeriesMatch {
	return series.SeriesMatch{
		ID:             m.ID,
		SeriesID:       m.SeriesID,
		Name:           m.Name,
		VenueName:      m.VenueName,
		VenueCountry:   m.VenueCountry,
		Format:         m.Format,
		StartTime:      m.StartTime,
		Status:         m.Status,
		StatusText:     m.StatusText,
		SourceProvider: m.SourceProvider,
		ExternalID:     m.ExternalID,
		LastSyncedAt:   m.LastSyncedAt,
	}
}

type snapshotTableModel struct {
	ID                string          `db:"id"`
	VenueID           string          `db:"venue_id"`
	Timestamp         time.Time       `db:"timestamp_utc"`
	Temperature       decimal.Decimal `db:"temperature"`
	Humidity          decimal.Decimal `db:"humidity"`
	WindSpeed         decimal.Decimal `db:"wind_speed"`
	PrecipProbability decimal.Decimal `db:"precip_probability"`
	PrecipAmount      decimal.Decimal `db:"precip_amount"`
	SourceProvider    string          `db:"source_provider"`
	ExternalID        string          `db:"external_id"`
	LastSyncedAt      time.Time       `db:"last_synced_at"`
}

func snapshotToTable(row weather.Snapshot) snapshotTableModel {
	return snapshotTableModel{
		ID:                row.ID,
		VenueID:           row.VenueID,
		Timestamp:         row.Timestamp,
		Temperature:       row.Temperature,
		Humidity:          row.Humidity,
		WindSpeed:         row.WindSpeed,
		PrecipProbability: row.PrecipProbability,
		PrecipAmount:      row.PrecipAmount,
		SourceProvider:    row.SourceProvider,
		ExternalID:        row.ExternalID,
		LastSyncedAt:      row.LastSyncedAt,
	}
}

func (m snapshotTableModel) toDomain() weather.Snapshot {
	return weather.Snapshot{
		ID:                m.ID,
		VenueID:           m.VenueID,
		Timestamp:         m.Timestamp,
		Temperature:       m.Temperature,
		Humidity:          m.Humidity,
		WindSpeed:         m.WindSpeed,
		PrecipProbability: m.PrecipProbability,
		PrecipAmount:      m.PrecipAmount,
		SourceProvider:    m.SourceProvider,
		ExternalID:        m.ExternalID,
		LastSyncedAt:      m.LastSyncedAt,
	}
}

type matchRiskTableModel struct {
	MatchID    string          `db:"match_id"`
	Score      decimal.Decimal `db:"composite_risk_score"`
	Level      string          `db:"risk_level"`
	ComputedAt time.Time       `db:"computed_at_utc"`
}

func matchRiskToTable(row weather.MatchRisk) matchRiskTableModel {
	return matchRiskTableModel{
		MatchID:    row.MatchID,
		Score:      row.Score,
		Level:      string(row.Level),
		ComputedAt: row.ComputedAt,
	}
}

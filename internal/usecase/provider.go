package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cricworks/cricstats/internal/domain/venue"
	"github.com/cricworks/cricstats/internal/domain/weather"
)

// CricketProvider is one external cricket data source. Every implementation
// states its capabilities explicitly: a provider without series support
// returns an empty slice from FetchUpcomingSeries and nil from
// FetchSeriesInfo rather than an error.
type CricketProvider interface {
	Name() string
	FetchUpcomingMatches(ctx context.Context, from, to time.Time) ([]ExternalMatch, error)
	FetchUpcomingSeries(ctx context.Context, from, to time.Time) ([]ExternalSeries, error)
	FetchSeriesInfo(ctx context.Context, seriesExternalID string) (*ExternalSeriesDetails, error)
}

// WeatherProvider returns hourly forecast samples for a location window.
type WeatherProvider interface {
	Name() string
	FetchForecast(ctx context.Context, lat, lon decimal.Decimal, from, to time.Time) ([]weather.ForecastPoint, error)
}

type ExternalTeam struct {
	ExternalID string
	Name       string
	Country    string
	ShortName  string
}

// ExternalVenue carries provider venue data. Latitude/Longitude may be nil;
// the sync engine then derives deterministic placeholder coordinates so
// stored venues always have a location. GeoSource may be left empty when the
// provider supplied real coordinates.
type ExternalVenue struct {
	ExternalID string
	Name       string
	City       string
	Country    string
	Latitude   *decimal.Decimal
	Longitude  *decimal.Decimal
	GeoSource  venue.GeoSource
}

type ExternalMatch struct {
	ExternalID string
	Format     string
	StartTime  time.Time
	Status     string
	Venue      ExternalVenue
	HomeTeam   ExternalTeam
	AwayTeam   ExternalTeam
}

// ExternalSeries is a listing-call row. Dates are optional until the
// per-series details call fills them in.
type ExternalSeries struct {
	ExternalID string
	Name       string
	StartDate  *time.Time
	EndDate    *time.Time
}

type ExternalSeriesDetails struct {
	ExternalID string
	Name       string
	StartDate  *time.Time
	EndDate    *time.Time
	Matches    []ExternalSeriesMatch
}

type ExternalSeriesMatch struct {
	ExternalID   string
	Name         string
	VenueName    string
	VenueCountry string
	Format       string
	StartTime    *time.Time
	Status       string
	StatusText   string
}

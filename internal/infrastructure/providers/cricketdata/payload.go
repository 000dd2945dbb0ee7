package cricketdata

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cricworks/cricstats/internal/domain/venue"
	"github.com/cricworks/cricstats/internal/usecase"
)

type matchesEnvelope struct {
	Data []matchPayload `json:"data"`
}

type matchPayload struct {
	ID          string       `json:"id"`
	MatchType   string       `json:"matchType"`
	Status      string       `json:"status"`
	DateTimeGMT string       `json:"dateTimeGMT"`
	Venue       venuePayload `json:"venue"`
	HomeTeam    teamPayload  `json:"homeTeam"`
	AwayTeam    teamPayload  `json:"awayTeam"`
}

type venuePayload struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type teamPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Country   string `json:"country"`
	ShortName string `json:"shortName"`
}

type seriesListEnvelope struct {
	Data []seriesPayload `json:"data"`
}

type seriesPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type seriesInfoEnvelope struct {
	Data *seriesInfoPayload `json:"data"`
}

type seriesInfoPayload struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	StartDate string               `json:"startDate"`
	EndDate   string               `json:"endDate"`
	MatchList []seriesMatchPayload `json:"matchList"`
}

type seriesMatchPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	VenueName    string `json:"venue"`
	VenueCountry string `json:"venueCountry"`
	MatchType    string `json:"matchType"`
	DateTimeGMT  string `json:"dateTimeGMT"`
	Status       string `json:"status"`
	StatusText   string `json:"statusText"`
}

func mapMatches(rows []matchPayload) []usecase.ExternalMatch {
	out := make([]usecase.ExternalMatch, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.ID) == "" {
			continue
		}
		start := parseProviderTime(row.DateTimeGMT)
		if start == nil {
			continue
		}
		out = append(out, usecase.ExternalMatch{
			ExternalID: strings.TrimSpace(row.ID),
			Format:     row.MatchType,
			StartTime:  *start,
			Status:     row.Status,
			Venue:      mapVenue(row.Venue),
			HomeTeam:   mapTeam(row.HomeTeam),
			AwayTeam:   mapTeam(row.AwayTeam),
		})
	}
	return out
}

func mapVenue(row venuePayload) usecase.ExternalVenue {
	out := usecase.ExternalVenue{
		ExternalID: strings.TrimSpace(row.ID),
		Name:       strings.TrimSpace(row.Name),
		City:       strings.TrimSpace(row.City),
		Country:    strings.TrimSpace(row.Country),
	}
	if row.Latitude != nil && row.Longitude != nil {
		lat := decimal.NewFromFloat(*row.Latitude)
		lon := decimal.NewFromFloat(*row.Longitude)
		out.Latitude = &lat
		out.Longitude = &lon
		out.GeoSource = venue.GeoSourceProvider
	}
	return out
}

func mapTeam(row teamPayload) usecase.ExternalTeam {
	return usecase.ExternalTeam{
		ExternalID: strings.TrimSpace(row.ID),
		Name:       strings.TrimSpace(row.Name),
		Country:    strings.TrimSpace(row.Country),
		ShortName:  strings.TrimSpace(row.ShortName),
	}
}

func mapSeriesList(rows []seriesPayload) []usecase.ExternalSeries {
	out := make([]usecase.ExternalSeries, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.ID) == "" {
			continue
		}
		out = append(out, usecase.ExternalSeries{
			ExternalID: strings.TrimSpace(row.ID),
			Name:       strings.TrimSpace(row.Name),
			StartDate:  parseProviderTime(row.StartDate),
			EndDate:    parseProviderTime(row.EndDate),
		})
	}
	return out
}

func mapSeriesDetails(row *seriesInfoPayload) *usecase.ExternalSeriesDetails {
	if row == nil || strings.TrimSpace(row.ID) == "" {
		return nil
	}

	out := &usecase.ExternalSeriesDetails{
		ExternalID: strings.TrimSpace(row.ID),
		Name:       strings.TrimSpace(row.Name),
		StartDate:  parseProviderTime(row.StartDate),
		EndDate:    parseProviderTime(row.EndDate),
	}
	for _, m := range row.MatchList {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		out.Matches = append(out.Matches, usecase.ExternalSeriesMatch{
			ExternalID:   strings.TrimSpace(m.ID),
			Name:         strings.TrimSpace(m.Name),
			VenueName:    strings.TrimSpace(m.VenueName),
			VenueCountry: strings.TrimSpace(m.VenueCountry),
			Format:       m.MatchType,
			StartTime:    parseProviderTime(m.DateTimeGMT),
			Status:       m.Status,
			StatusText:   strings.TrimSpace(m.StatusText),
		})
	}
	return out
}

var providerTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseProviderTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range providerTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}

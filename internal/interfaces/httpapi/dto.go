package httpapi

import (
	"time"

	"github.com/cricworks/cricstats/internal/domain/match"
	"github.com/cricworks/cricstats/internal/domain/series"
	"github.com/cricworks/cricstats/internal/usecase"
)

type matchRiskDTO struct {
	Score         string `json:"score"`
	Level         string `json:"level"`
	ComputedAtUtc string `json:"computedAtUtc"`
}

type upcomingMatchDTO struct {
	ID              string        `json:"id"`
	Format          string        `json:"format"`
	Status          string        `json:"status"`
	StartTimeUtc    string        `json:"startTimeUtc"`
	VenueName       string        `json:"venueName"`
	VenueCity       string        `json:"venueCity,omitempty"`
	VenueCountry    string        `json:"venueCountry,omitempty"`
	HomeTeamName    string        `json:"homeTeamName"`
	HomeTeamCountry string        `json:"homeTeamCountry,omitempty"`
	AwayTeamName    string        `json:"awayTeamName"`
	AwayTeamCountry string        `json:"awayTeamCountry,omitempty"`
	SourceProvider  string        `json:"sourceProvider"`
	ExternalID      string        `json:"externalId"`
	WeatherRisk     *matchRiskDTO `json:"weatherRisk,omitempty"`
}

type upcomingMatchesResponseDTO struct {
	Matches    []upcomingMatchDTO `json:"matches"`
	TotalCount int                `json:"totalCount"`
}

type seriesMatchDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	VenueName    string `json:"venueName,omitempty"`
	VenueCountry string `json:"venueCountry,omitempty"`
	Format       string `json:"format,omitempty"`
	StartTimeUtc string `json:"startTimeUtc,omitempty"`
	Status       string `json:"status"`
	StatusText   string `json:"statusText,omitempty"`
	ExternalID   string `json:"externalId"`
}

type upcomingSeriesDTO struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	StartDateUtc     string           `json:"startDateUtc,omitempty"`
	EndDateUtc       string           `json:"endDateUtc,omitempty"`
	EffectiveDateUtc string           `json:"effectiveDateUtc"`
	SourceProvider   string           `json:"sourceProvider"`
	ExternalID       string           `json:"externalId"`
	UpcomingMatches  []seriesMatchDTO `json:"upcomingMatches"`
}

type upcomingSeriesResponseDTO struct {
	Series     []upcomingSeriesDTO `json:"series"`
	TotalCount int                 `json:"totalCount"`
}

type seriesDetailsResponseDTO struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	StartDateUtc   string           `json:"startDateUtc,omitempty"`
	EndDateUtc     string           `json:"endDateUtc,omitempty"`
	SourceProvider string           `json:"sourceProvider"`
	ExternalID     string           `json:"externalId"`
	Matches        []seriesMatchDTO `json:"matches"`
	TotalCount     int              `json:"totalCount"`
	Page           int              `json:"page"`
	PageSize       int              `json:"pageSize"`
}

type weatherRiskReportDTO struct {
	MatchID       string `json:"matchId"`
	Computed      bool   `json:"computed"`
	Source        string `json:"source,omitempty"`
	Score         string `json:"score,omitempty"`
	Level         string `json:"level,omitempty"`
	ComputedAtUtc string `json:"computedAtUtc,omitempty"`

	AvgPrecipProbability string `json:"avgPrecipProbability,omitempty"`
	AvgPrecipAmount      string `json:"avgPrecipAmount,omitempty"`
	AvgHumidity          string `json:"avgHumidity,omitempty"`
	AvgWindSpeed         string `json:"avgWindSpeed,omitempty"`

	PrecipProbabilityContribution string `json:"precipProbabilityContribution,omitempty"`
	PrecipAmountContribution      string `json:"precipAmountContribution,omitempty"`
	HumidityContribution          string `json:"humidityContribution,omitempty"`
	WindSpeedContribution         string `json:"windSpeedContribution,omitempty"`
}

type fixtureSyncResultDTO struct {
	ProviderUsed     string   `json:"providerUsed"`
	ProvidersTried   []string `json:"providersTried"`
	ProvidersSkipped []string `json:"providersSkipped,omitempty"`
	MatchesInserted  int      `json:"matchesInserted"`
	MatchesUpdated   int      `json:"matchesUpdated"`
	TeamsTouched     int      `json:"teamsTouched"`
	VenuesTouched    int      `json:"venuesTouched"`
	SyncedAtUtc      string   `json:"syncedAtUtc"`
}

type seriesSyncResultDTO struct {
	ProviderUsed          string   `json:"providerUsed"`
	ProvidersTried        []string `json:"providersTried"`
	ProvidersSkipped      []string `json:"providersSkipped,omitempty"`
	SeriesUpserted        int      `json:"seriesUpserted"`
	SeriesMatchesUpserted int      `json:"seriesMatchesUpserted"`
	SeriesDetailsFailed   int      `json:"seriesDetailsFailed"`
	StaleSeriesRemoved    bool     `json:"staleSeriesRemoved"`
	SyncedAtUtc           string   `json:"syncedAtUtc"`
}

type weatherRefreshResultDTO struct {
	ProviderUsed      string `json:"providerUsed"`
	MatchesEvaluated  int    `json:"matchesEvaluated"`
	RisksUpdated      int    `json:"risksUpdated"`
	MatchesSkipped    int    `json:"matchesSkipped"`
	SnapshotsUpserted int    `json:"snapshotsUpserted"`
	RefreshedAtUtc    string `json:"refreshedAtUtc"`
}

func formatTimeUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalTimeUTC(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTimeUTC(*t)
}

func upcomingMatchToDTO(view match.UpcomingView) upcomingMatchDTO {
	dto := upcomingMatchDTO{
		ID:              view.ID,
		Format:          string(view.Format),
		Status:          view.Status,
		StartTimeUtc:    formatTimeUTC(view.StartTime),
		VenueName:       view.VenueName,
		VenueCity:       view.VenueCity,
		VenueCountry:    view.VenueCountry,
		HomeTeamName:    view.HomeTeamName,
		HomeTeamCountry: view.HomeTeamCountry,
		AwayTeamName:    view.AwayTeamName,
		AwayTeamCountry: view.AwayTeamCountry,
		SourceProvider:  view.SourceProvider,
		ExternalID:      view.ExternalID,
	}
	if view.Risk != nil {
		dto.WeatherRisk = &matchRiskDTO{
			Score:         view.Risk.Score.StringFixed(2),
			Level:         string(view.Risk.Level),
			ComputedAtUtc: formatTimeUTC(view.Risk.ComputedAt),
		}
	}
	return dto
}

func seriesMatchToDTO(row series.SeriesMatch) seriesMatchDTO {
	return seriesMatchDTO{
		ID:           row.ID,
		Name:         row.Name,
		VenueName:    row.VenueName,
		VenueCountry: row.VenueCountry,
		Format:       row.Format,
		StartTimeUtc: formatOptionalTimeUTC(row.StartTime),
		Status:       row.Status,
		StatusText:   row.StatusText,
		ExternalID:   row.ExternalID,
	}
}

func upcomingSeriesToDTO(item usecase.UpcomingSeriesItem) upcomingSeriesDTO {
	matches := make([]seriesMatchDTO, 0, len(item.Matches))
	for _, row := range item.Matches {
		matches = append(matches, seriesMatchToDTO(row))
	}
	return upcomingSeriesDTO{
		ID:               item.Series.ID,
		Name:             item.Series.Name,
		StartDateUtc:     formatOptionalTimeUTC(item.Series.StartDate),
		EndDateUtc:       formatOptionalTimeUTC(item.Series.EndDate),
		EffectiveDateUtc: formatTimeUTC(item.EffectiveDate),
		SourceProvider:   item.Series.SourceProvider,
		ExternalID:       item.Series.ExternalID,
		UpcomingMatches:  matches,
	}
}

func seriesDetailsToDTO(result usecase.SeriesDetailsResult) seriesDetailsResponseDTO {
	matches := make([]seriesMatchDTO, 0, len(result.Matches))
	for _, row := range result.Matches {
		matches = append(matches, seriesMatchToDTO(row))
	}
	return seriesDetailsResponseDTO{
		ID:             result.Series.ID,
		Name:           result.Series.Name,
		StartDateUtc:   formatOptionalTimeUTC(result.Series.StartDate),
		EndDateUtc:     formatOptionalTimeUTC(result.Series.EndDate),
		SourceProvider: result.Series.SourceProvider,
		ExternalID:     result.Series.ExternalID,
		Matches:        matches,
		TotalCount:     result.TotalCount,
		Page:           result.Page,
		PageSize:       result.PageSize,
	}
}

func weatherRiskReportToDTO(report usecase.WeatherRiskReport) weatherRiskReportDTO {
	dto := weatherRiskReportDTO{
		MatchID:  report.MatchID,
		Computed: report.Computed,
		Source:   report.Source,
	}
	if !report.Computed {
		return dto
	}

	comp := report.Computation
	dto.Score = comp.Score.StringFixed(2)
	dto.Level = string(comp.Level)
	dto.ComputedAtUtc = formatTimeUTC(report.ComputedAt)
	dto.AvgPrecipProbability = comp.AvgPrecipProbability.StringFixed(2)
	dto.AvgPrecipAmount = comp.AvgPrecipAmount.StringFixed(2)
	dto.AvgHumidity = comp.AvgHumidity.StringFixed(2)
	dto.AvgWindSpeed = comp.AvgWindSpeed.StringFixed(2)
	dto.PrecipProbabilityContribution = comp.PrecipProbabilityContribution.StringFixed(2)
	dto.PrecipAmountContribution = comp.PrecipAmountContribution.StringFixed(2)
	dto.HumidityContribution = comp.HumidityContribution.StringFixed(2)
	dto.WindSpeedContribution = comp.WindSpeedContribution.StringFixed(2)
	return dto
}

func fixtureSyncResultToDTO(result usecase.FixtureSyncResult) fixtureSyncResultDTO {
	return fixtureSyncResultDTO{
		ProviderUsed:     result.ProviderUsed,
		ProvidersTried:   result.ProvidersTried,
		ProvidersSkipped: result.ProvidersSkipped,
		MatchesInserted:  result.MatchesInserted,
		MatchesUpdated:   result.MatchesUpdated,
		TeamsTouched:     result.TeamsTouched,
		VenuesTouched:    result.VenuesTouched,
		SyncedAtUtc:      formatTimeUTC(result.SyncedAt),
	}
}

func seriesSyncResultToDTO(result usecase.SeriesSyncResult) seriesSyncResultDTO {
	return seriesSyncResultDTO{
		ProviderUsed:          result.ProviderUsed,
		ProvidersTried:        result.ProvidersTried,
		ProvidersSkipped:      result.ProvidersSkipped,
		SeriesUpserted:        result.SeriesUpserted,
		SeriesMatchesUpserted: result.SeriesMatchesUpserted,
		SeriesDetailsFailed:   result.SeriesDetailsFailed,
		StaleSeriesRemoved:    result.StaleSeriesRemoved,
		SyncedAtUtc:           formatTimeUTC(result.SyncedAt),
	}
}

func weatherRefreshResultToDTO(result usecase.WeatherRefreshResult) weatherRefreshResultDTO {
	return weatherRefreshResultDTO{
		ProviderUsed:      result.ProviderUsed,
		MatchesEvaluated:  result.MatchesEvaluated,
		RisksUpdated:      result.RisksUpdated,
		MatchesSkipped:    result.MatchesSkipped,
		SnapshotsUpserted: result.SnapshotsUpserted,
		RefreshedAtUtc:    formatTimeUTC(result.RefreshedAt),
	}
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cricworks/cricstats/internal/domain/match"
	"github.com/cricworks/cricstats/internal/domain/series"
	"github.com/cricworks/cricstats/internal/domain/team"
	"github.com/cricworks/cricstats/internal/domain/venue"
	"github.com/cricworks/cricstats/internal/domain/weather"
	"github.com/cricworks/cricstats/internal/usecase"
)

// Store keeps all synced entities in process memory. It backs local
// development and tests; deployments with DATABASE_URL set use the postgres
// store instead. Every write path applies its batch under one lock so a
// batch is all-or-nothing here too.
type Store struct {
	mu            sync.RWMutex
	teams         map[string]team.Team
	venues        map[string]venue.Venue
	matches       map[string]match.Match
	series        map[string]series.Series
	seriesMatches map[string]series.SeriesMatch
	snapshots     map[string]weather.Snapshot
	risks         map[string]weather.MatchRisk
}

func NewStore() *Store {
	return &Store{
		teams:         make(map[string]team.Team),
		venues:        make(map[string]venue.Venue),
		matches:       make(map[string]match.Match),
		series:        make(map[string]series.Series),
		seriesMatches: make(map[string]series.SeriesMatch),
		snapshots:     make(map[string]weather.Snapshot),
		risks:         make(map[string]weather.MatchRisk),
	}
}

func externalIDSet(externalIDs []string) map[string]struct{} {
	out := make(map[string]struct{}, len(externalIDs))
	for _, externalID := range externalIDs {
		out[externalID] = struct{}{}
	}
	return out
}

func (s *Store) TeamsByExternalIDs(_ context.Context, provider string, externalIDs []string) (map[string]team.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := externalIDSet(externalIDs)
	out := make(map[string]team.Team)
	for _, row := range s.teams {
		if row.SourceProvider != provider {
			continue
		}
		if _, ok := wanted[row.ExternalID]; ok {
			out[row.ExternalID] = row
		}
	}
	return out, nil
}

func (s *Store) VenuesByExternalIDs(_ context.Context, provider string, externalIDs []string) (map[string]venue.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := externalIDSet(externalIDs)
	out := make(map[string]venue.Venue)
	for _, row := range s.venues {
		if row.SourceProvider != provider {
			continue
		}
		if _, ok := wanted[row.ExternalID]; ok {
			out[row.ExternalID] = row
		}
	}
	return out, nil
}

func (s *Store) MatchesByExternalIDs(_ context.Context, provider string, externalIDs []string) (map[string]match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := externalIDSet(externalIDs)
	out := make(map[string]match.Match)
	for _, row := range s.matches {
		if row.SourceProvider != provider {
			continue
		}
		if _, ok := wanted[row.ExternalID]; ok {
			out[row.ExternalID] = row
		}
	}
	return out, nil
}

func (s *Store) ApplyFixtureSync(_ context.Context, batch usecase.FixtureSyncBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range batch.Teams {
		s.teams[row.ID] = row
	}
	for _, row := range batch.Venues {
		s.venues[row.ID] = row
	}
	for _, row := range batch.Matches {
		s.matches[row.ID] = row
	}
	return nil
}

func (s *Store) SeriesByExternalIDs(_ context.Context, provider string, externalIDs []string) (map[string]series.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := externalIDSet(externalIDs)
	out := make(map[string]series.Series)
	for _, row := range s.series {
		if row.SourceProvider != provider {
			continue
		}
		if _, ok := wanted[row.ExternalID]; ok {
			out[row.ExternalID] = row
		}
	}
	return out, nil
}

func (s *Store) SeriesMatchesForSeries(_ context.Context, seriesIDs []string) ([]series.SeriesMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := externalIDSet(seriesIDs)
	var out []series.SeriesMatch
	for _, row := range s.seriesMatches {
		if _, ok := wanted[row.SeriesID]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *Store) ApplySeriesSync(_ context.Context, batch usecase.SeriesSyncBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if filter := batch.RemoveStale; filter != nil {
		keep := externalIDSet(filter.KeepExternalIDs)
		for id, row := range s.series {
			if row.SourceProvider != filter.Provider {
				continue
			}
			if _, ok := keep[row.ExternalID]; ok {
				continue
			}
			// Fully-past series are history, not staleness.
			if row.EndDate != nil && row.EndDate.Before(filter.ActiveOnOrAfter) {
				continue
			}
			// Series starting beyond the sync window are out of the
			// listing's reach and cannot be judged stale by it.
			if row.StartDate != nil && row.StartDate.After(filter.StartsOnOrBefore) {
				continue
			}
			delete(s.series, id)
			for matchID, sm := range s.seriesMatches {
				if sm.SeriesID == row.ID {
					delete(s.seriesMatches, matchID)
				}
			}
		}
	}

	for _, row := range batch.Series {
		s.series[row.ID] = row
	}
	for _, row := range batch.SeriesMatches {
		s.seriesMatches[row.ID] = row
	}
	return nil
}

func (s *Store) UpcomingMatchesWithVenues(_ context.Context, from, to time.Time) ([]usecase.MatchWithVenue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []usecase.MatchWithVenue
	for _, row := range s.matches {
		if row.Status == match.StatusCompleted || row.Status == match.StatusCancelled {
			continue
		}
		if row.StartTime.Before(from) || row.StartTime.After(to) {
			continue
		}
		v, ok := s.venues[row.VenueID]
		if !ok {
			continue
		}
		out = append(out, usecase.MatchWithVenue{Match: row, Venue: v})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Match.StartTime.Before(out[j].Match.StartTime)
	})
	return out, nil
}

func (s *Store) MatchWithVenueByID(_ context.Context, matchID string) (usecase.MatchWithVenue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.matches[matchID]
	if !ok {
		return usecase.MatchWithVenue{}, fmt.Errorf("%w: match %s", usecase.ErrNotFound, matchID)
	}
	v, ok := s.venues[row.VenueID]
	if !ok {
		return usecase.MatchWithVenue{}, fmt.Errorf("%w: venue %s for match %s", usecase.ErrNotFound, row.VenueID, matchID)
	}
	return usecase.MatchWithVenue{Match: row, Venue: v}, nil
}

func (s *Store) SnapshotsByVenueWindow(_ context.Context, venueID string, from, to time.Time) ([]weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []weather.Snapshot
	for _, row := range s.snapshots {
		if row.VenueID != venueID {
			continue
		}
		if row.Timestamp.Before(from) || row.Timestamp.After(to) {
			continue
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *Store) SnapshotsByExternalIDs(_ context.Context, venueID, provider string, externalIDs []string) (map[string]weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := externalIDSet(externalIDs)
	out := make(map[string]weather.Snapshot)
	for _, row := range s.snapshots {
		if row.VenueID != venueID || row.SourceProvider != provider {
			continue
		}
		if _, ok := wanted[row.ExternalID]; ok {
			out[row.ExternalID] = row
		}
	}
	return out, nil
}

func (s *Store) ApplyRiskRefresh(_ context.Context, batch usecase.RiskRefreshBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range batch.Snapshots {
		s.snapshots[row.ID] = row
	}
	for _, row := range batch.Risks {
		s.risks[row.MatchID] = row
	}
	return nil
}

func (s *Store) ListUpcoming(_ context.Context, filter match.Filter) ([]match.UpcomingView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []match.UpcomingView
	for _, row := range s.matches {
		if filter.Format != nil && row.Format != *filter.Format {
			continue
		}
		if filter.From != nil && row.StartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && row.StartTime.After(*filter.To) {
			continue
		}

		v := s.venues[row.VenueID]
		home := s.teams[row.HomeTeamID]
		away := s.teams[row.AwayTeamID]
		if filter.Country != "" && !matchesCountry(filter.Country, v.Country, home.Country, away.Country) {
			continue
		}

		view := match.UpcomingView{
			Match:           row,
			VenueName:       v.Name,
			VenueCity:       v.City,
			VenueCountry:    v.Country,
			HomeTeamName:    home.Name,
			HomeTeamCountry: home.Country,
			AwayTeamName:    away.Name,
			AwayTeamCountry: away.Country,
		}
		if risk, ok := s.risks[row.ID]; ok {
			riskCopy := risk
			view.Risk = &riskCopy
		}
		out = append(out, view)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matchesCountry(wanted string, countries ...string) bool {
	for _, country := range countries {
		if strings.EqualFold(strings.TrimSpace(country), strings.TrimSpace(wanted)) {
			return true
		}
	}
	return false
}

func (s *Store) CountAll(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches), nil
}

func (s *Store) ListUpcomingSeries(_ context.Context, from, to *time.Time) ([]series.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []series.Series
	for _, row := range s.series {
		if from != nil && row.EndDate != nil && row.EndDate.Before(*from) {
			continue
		}
		if to != nil && row.StartDate != nil && row.StartDate.After(*to) {
			continue
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		left, right := out[i].StartDate, out[j].StartDate
		switch {
		case left == nil && right == nil:
			return out[i].Name < out[j].Name
		case left == nil:
			return false
		case right == nil:
			return true
		case !left.Equal(*right):
			return left.Before(*right)
		default:
			return out[i].Name < out[j].Name
		}
	})
	return out, nil
}

func (s *Store) GetSeriesByID(_ context.Context, seriesID string) (series.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.series[seriesID]
	if !ok {
		return series.Series{}, fmt.Errorf("%w: series %s", usecase.ErrNotFound, seriesID)
	}
	return row, nil
}

func (s *Store) ListSeriesMatches(_ context.Context, seriesID string, offset, limit int) ([]series.SeriesMatch, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []series.SeriesMatch
	for _, row := range s.seriesMatches {
		if row.SeriesID == seriesID {
			all = append(all, row)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		left, right := all[i].StartTime, all[j].StartTime
		switch {
		case left == nil && right == nil:
			return all[i].ExternalID < all[j].ExternalID
		case left == nil:
			return false
		case right == nil:
			return true
		case !left.Equal(*right):
			return left.Before(*right)
		default:
			return all[i].ExternalID < all[j].ExternalID
		}
	})

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *Store) ListUpcomingSeriesMatches(_ context.Context, seriesID string, from time.Time, limit int) ([]series.SeriesMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var upcoming []series.SeriesMatch
	for _, row := range s.seriesMatches {
		if row.SeriesID != seriesID || row.StartTime == nil || row.StartTime.Before(from) {
			continue
		}
		upcoming = append(upcoming, row)
	}
	sort.Slice(upcoming, func(i, j int) bool {
		if !upcoming[i].StartTime.Equal(*upcoming[j].StartTime) {
			return upcoming[i].StartTime.Before(*upcoming[j].StartTime)
		}
		return upcoming[i].ExternalID < upcoming[j].ExternalID
	})

	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}

func (s *Store) CountAllSeries(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series), nil
}

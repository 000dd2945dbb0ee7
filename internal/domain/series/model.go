package series

import (
	"fmt"
	"time"
)

// Series is a tournament or bilateral tour, keyed by
// (SourceProvider, ExternalID). Dates are optional because listing endpoints
// sometimes omit them until the per-series details call fills them in.
type Series struct {
	ID             string
	Name           string
	StartDate      *time.Time
	EndDate        *time.Time
	SourceProvider string
	ExternalID     string
	LastSyncedAt   time.Time
}

func (s Series) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("series id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("series name is required")
	}
	if s.SourceProvider == "" {
		return fmt.Errorf("series source provider is required")
	}
	if s.ExternalID == "" {
		return fmt.Errorf("series external id is required")
	}
	if s.StartDate != nil && s.EndDate != nil && s.EndDate.Before(*s.StartDate) {
		return fmt.Errorf("series end date precedes start date")
	}

	return nil
}

// SeriesMatch is a shallow fixture row nested under a series. Venue and team
// fields stay denormalized free text because provider series endpoints return
// far less structure than their fixture endpoints.
type SeriesMatch struct {
	ID             string
	SeriesID       string
	Name           string
	VenueName      string
	VenueCountry   string
	Format         string
	StartTime      *time.Time
	Status         string
	StatusText     string
	SourceProvider string
	ExternalID     string
	LastSyncedAt   time.Time
}

func (m SeriesMatch) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("series match id is required")
	}
	if m.SeriesID == "" {
		return fmt.Errorf("series match series id is required")
	}
	if m.SourceProvider == "" {
		return fmt.Errorf("series match source provider is required")
	}
	if m.ExternalID == "" {
		return fmt.Errorf("series match external id is required")
	}

	return nil
}

package match

import (
	"fmt"
	"strings"
	"time"
)

// Format is the match format as normalized from provider payloads.
type Format string

const (
	FormatT20  Format = "T20"
	FormatODI  Format = "ODI"
	FormatTest Format = "Test"
)

var AllFormats = map[Format]struct{}{
	FormatT20:  {},
	FormatODI:  {},
	FormatTest: {},
}

// ParseFormat maps free-text provider format labels onto the known set.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "t20", "t20i", "twenty20":
		return FormatT20, nil
	case "odi", "oneday", "one-day":
		return FormatODI, nil
	case "test", "testmatch":
		return FormatTest, nil
	default:
		return "", fmt.Errorf("unknown match format: %q", value)
	}
}

const (
	StatusScheduled = "Scheduled"
	StatusLive      = "Live"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

func NormalizeStatus(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "scheduled", "upcoming", "fixture", "not started":
		return StatusScheduled
	case "live", "in progress", "innings break":
		return StatusLive
	case "completed", "finished", "result", "stumps":
		return StatusCompleted
	case "cancelled", "canceled", "abandoned", "no result":
		return StatusCancelled
	default:
		return StatusScheduled
	}
}

// Match is one scheduled or played fixture, keyed by
// (SourceProvider, ExternalID). Venue and teams reference stored rows by
// surrogate id, never by external id.
type Match struct {
	ID             string
	VenueID        string
	HomeTeamID     string
	AwayTeamID     string
	Format         Format
	StartTime      time.Time
	Status         string
	SourceProvider string
	ExternalID     string
	LastSyncedAt   time.Time
}

func (m Match) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("match id is required")
	}
	if m.VenueID == "" {
		return fmt.Errorf("match venue id is required")
	}
	if m.HomeTeamID == "" || m.AwayTeamID == "" {
		return fmt.Errorf("match team ids are required")
	}
	if _, ok := AllFormats[m.Format]; !ok {
		return fmt.Errorf("invalid match format: %s", m.Format)
	}
	if m.StartTime.IsZero() {
		return fmt.Errorf("match start time is required")
	}
	if m.SourceProvider == "" {
		return fmt.Errorf("match source provider is required")
	}
	if m.ExternalID == "" {
		return fmt.Errorf("match external id is required")
	}

	return nil
}

package team

import (
	"fmt"
	"time"
)

// Team is a national or franchise side as reported by a cricket data
// provider. Rows are keyed by (SourceProvider, ExternalID) and only grow:
// fixture sync upserts them but never deletes.
type Team struct {
	ID             string
	Name           string
	Country        string
	ShortName      string
	SourceProvider string
	ExternalID     string
	LastSyncedAt   time.Time
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	if t.SourceProvider == "" {
		return fmt.Errorf("team source provider is required")
	}
	if t.ExternalID == "" {
		return fmt.Errorf("team external id is required")
	}

	return nil
}

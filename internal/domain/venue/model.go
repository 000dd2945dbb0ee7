package venue

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// GeoSource records how a venue's coordinates were obtained. Downstream
// weather lookups work either way, but consumers can tell real coordinates
// from placeholder ones.
type GeoSource string

const (
	// GeoSourceProvider means the cricket provider supplied coordinates.
	GeoSourceProvider GeoSource = "provider"
	// GeoSourceGeocoded means coordinates were resolved from the city name.
	GeoSourceGeocoded GeoSource = "geocoded"
	// GeoSourcePseudoEstimated means coordinates are a deterministic hash of
	// the city name. Degraded data, stable across syncs.
	GeoSourcePseudoEstimated GeoSource = "pseudo-estimated"
)

var AllGeoSources = map[GeoSource]struct{}{
	GeoSourceProvider:        {},
	GeoSourceGeocoded:        {},
	GeoSourcePseudoEstimated: {},
}

// Venue is a cricket ground. Latitude and longitude are always populated so
// weather risk computation never blocks on missing coordinates.
type Venue struct {
	ID             string
	Name           string
	City           string
	Country        string
	Latitude       decimal.Decimal
	Longitude      decimal.Decimal
	GeoSource      GeoSource
	SourceProvider string
	ExternalID     string
	LastSyncedAt   time.Time
}

func (v Venue) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("venue id is required")
	}
	if v.Name == "" {
		return fmt.Errorf("venue name is required")
	}
	if v.SourceProvider == "" {
		return fmt.Errorf("venue source provider is required")
	}
	if v.ExternalID == "" {
		return fmt.Errorf("venue external id is required")
	}
	if _, ok := AllGeoSources[v.GeoSource]; !ok {
		return fmt.Errorf("invalid venue geo source: %s", v.GeoSource)
	}

	return nil
}

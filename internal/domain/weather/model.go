package weather

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ForecastPoint is one hourly forecast sample from a weather provider.
// Humidity and PrecipProbability are percentages, WindSpeed is km/h,
// PrecipAmount is millimetres, Temperature is degrees Celsius.
type ForecastPoint struct {
	ExternalID        string
	Timestamp         time.Time
	Temperature       decimal.Decimal
	Humidity          decimal.Decimal
	WindSpeed         decimal.Decimal
	PrecipProbability decimal.Decimal
	PrecipAmount      decimal.Decimal
}

// Snapshot is a persisted forecast sample scoped to a venue. Snapshots act
// as a cache: risk can be recomputed from them when the live provider is
// unavailable.
type Snapshot struct {
	ID                string
	VenueID           string
	Timestamp         time.Time
	Temperature       decimal.Decimal
	Humidity          decimal.Decimal
	WindSpeed         decimal.Decimal
	PrecipProbability decimal.Decimal
	PrecipAmount      decimal.Decimal
	SourceProvider    string
	ExternalID        string
	LastSyncedAt      time.Time
}

func (s Snapshot) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("weather snapshot id is required")
	}
	if s.VenueID == "" {
		return fmt.Errorf("weather snapshot venue id is required")
	}
	if s.SourceProvider == "" {
		return fmt.Errorf("weather snapshot source provider is required")
	}
	if s.ExternalID == "" {
		return fmt.Errorf("weather snapshot external id is required")
	}

	return nil
}

// ForecastPoint converts the stored snapshot back into a calculator input.
func (s Snapshot) ForecastPoint() ForecastPoint {
	return ForecastPoint{
		ExternalID:        s.ExternalID,
		Timestamp:         s.Timestamp,
		Temperature:       s.Temperature,
		Humidity:          s.Humidity,
		WindSpeed:         s.WindSpeed,
		PrecipProbability: s.PrecipProbability,
		PrecipAmount:      s.PrecipAmount,
	}
}

// RiskLevel buckets a composite score into a coarse label.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "Low"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelHigh   RiskLevel = "High"
)

// MatchRisk is the current weather risk for one match. It is overwritten on
// every refresh, no history is kept.
type MatchRisk struct {
	MatchID    string
	Score      decimal.Decimal
	Level      RiskLevel
	ComputedAt time.Time
}

package match

import (
	"context"
	"time"

	"github.com/cricworks/cricstats/internal/domain/weather"
)

// Filter narrows upcoming-match queries. Country matches the venue country
// or either team's country, case-insensitively.
type Filter struct {
	Country string
	Format  *Format
	From    *time.Time
	To      *time.Time
}

// UpcomingView is a match joined with the display fields the API returns.
type UpcomingView struct {
	Match
	VenueName       string
	VenueCity       string
	VenueCountry    string
	HomeTeamName    string
	HomeTeamCountry string
	AwayTeamName    string
	AwayTeamCountry string
	Risk            *weather.MatchRisk
}

// Repository describes match read access needed by query services.
type Repository interface {
	ListUpcoming(ctx context.Context, filter Filter) ([]UpcomingView, error)
	CountAll(ctx context.Context) (int, error)
}

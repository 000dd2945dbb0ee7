package cricbuzz

type upcomingEnvelope struct {
	Data *upcomingData `json:"data"`
}

type upcomingData struct {
	Matches []matchPayload `json:"matches"`
}

type matchPayload struct {
	ID           string       `json:"id"`
	Format       string       `json:"format"`
	Status       string       `json:"status"`
	StartTimeGMT string       `json:"startTimeGMT"`
	Venue        venuePayload `json:"venue"`
	HomeTeam     teamPayload  `json:"homeTeam"`
	AwayTeam     teamPayload  `json:"awayTeam"`
}

type venuePayload struct {
	Name string `json:"name"`
	City string `json:"city"`
}

type teamPayload struct {
	Name string `json:"name"`
}

type geoEnvelope struct {
	Results []geoHit `json:"results"`
}

type geoHit struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
}

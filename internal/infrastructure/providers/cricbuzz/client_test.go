package cricbuzz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cricworks/cricstats/internal/domain/venue"
	"github.com/cricworks/cricstats/internal/platform/logging"
)

const upcomingPayload = `{"data":{"matches":[
	{"id":"41881","format":"T20","status":"Scheduled","startTimeGMT":"2026-09-10T14:00:00Z",
	 "venue":{"name":"Eden Gardens","city":"Kolkata"},
	 "homeTeam":{"name":"India"},"awayTeam":{"name":"Sri Lanka"}},
	{"id":"41882","format":"ODI","status":"Scheduled","startTimeGMT":"2027-01-01T10:00:00Z",
	 "venue":{"name":"Eden Gardens","city":"Kolkata"},
	 "homeTeam":{"name":"India"},"awayTeam":{"name":"New Zealand"}}
]}}`

func TestClient_FetchUpcomingMatchesGeocodesVenues(t *testing.T) {
	t.Parallel()

	var geoCalls atomic.Int32
	geoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geoCalls.Add(1)
		if r.URL.Query().Get("name") != "Kolkata" {
			t.Errorf("geocode name = %q, want Kolkata", r.URL.Query().Get("name"))
		}
		_, _ = w.Write([]byte(`{"results":[{"latitude":22.5726,"longitude":88.3639,"country":"India"}]}`))
	}))
	defer geoServer.Close()

	matchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/matches/upcoming" {
			t.Errorf("path = %s, want /v1/matches/upcoming", r.URL.Path)
		}
		_, _ = w.Write([]byte(upcomingPayload))
	}))
	defer matchServer.Close()

	client := NewClient(ClientConfig{BaseURL: matchServer.URL, GeoBaseURL: geoServer.URL, Logger: logging.NewNop()})

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	matches, err := client.FetchUpcomingMatches(context.Background(), from, from.AddDate(0, 0, 14))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1 (second match outside window)", len(matches))
	}

	m := matches[0]
	if m.ExternalID != "cricbuzz-41881" {
		t.Fatalf("external id = %s", m.ExternalID)
	}
	if m.Venue.GeoSource != venue.GeoSourceGeocoded || m.Venue.Latitude == nil {
		t.Fatalf("venue = %+v, want geocoded coordinates", m.Venue)
	}
	if m.Venue.Latitude.StringFixed(4) != "22.5726" {
		t.Fatalf("latitude = %s", m.Venue.Latitude.String())
	}
	if m.HomeTeam.ShortName != "IND" || m.AwayTeam.ShortName != "SL" {
		t.Fatalf("short names = %s / %s", m.HomeTeam.ShortName, m.AwayTeam.ShortName)
	}
	if geoCalls.Load() != 1 {
		t.Fatalf("geocode calls = %d, want 1 (cached per city)", geoCalls.Load())
	}
}

func TestClient_GeocodeFailureLeavesCoordinatesUnset(t *testing.T) {
	t.Parallel()

	geoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer geoServer.Close()

	matchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(upcomingPayload))
	}))
	defer matchServer.Close()

	client := NewClient(ClientConfig{BaseURL: matchServer.URL, GeoBaseURL: geoServer.URL, Logger: logging.NewNop()})

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	matches, err := client.FetchUpcomingMatches(context.Background(), from, from.AddDate(0, 0, 14))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}

	m := matches[0]
	if m.Venue.Latitude != nil || m.Venue.Longitude != nil {
		t.Fatalf("venue coordinates = %v/%v, want unset", m.Venue.Latitude, m.Venue.Longitude)
	}
	if m.Venue.Country != "Unknown" {
		t.Fatalf("venue country = %q, want Unknown", m.Venue.Country)
	}
}

func TestClient_SeriesOpsUnsupported(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{Logger: logging.NewNop()})

	listed, err := client.FetchUpcomingSeries(context.Background(), time.Now(), time.Now())
	if err != nil || listed != nil {
		t.Fatalf("series = %v, err = %v, want nil/nil", listed, err)
	}
	details, err := client.FetchSeriesInfo(context.Background(), "any")
	if err != nil || details != nil {
		t.Fatalf("details = %v, err = %v, want nil/nil", details, err)
	}
}

func TestBuildShortName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		want string
	}{
		{"India", "IND"},
		{"Sri Lanka", "SL"},
		{"Papua New Guinea", "PNG"},
		{"United Arab Emirates XI", "UAE"},
		{"UK", "UK"},
		{"Türkiye", "TÜR"},
	}
	for _, tc := range cases {
		if got := buildShortName(tc.name); got != tc.want {
			t.Fatalf("buildShortName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

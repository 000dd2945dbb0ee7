package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestStub_Deterministic(t *testing.T) {
	t.Parallel()

	stub := NewStub()
	lat := decimal.NewFromFloat(18.9389)
	lon := decimal.NewFromFloat(72.8258)
	from := time.Date(2026, 9, 5, 12, 30, 0, 0, time.UTC)
	to := from.Add(8 * time.Hour)

	first, err := stub.FetchForecast(context.Background(), lat, lon, from, to)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	second, err := stub.FetchForecast(context.Background(), lat, lon, from, to)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	// Hours are truncated, so 12:30..20:30 covers 12:00 through 20:00.
	if len(first) != 9 {
		t.Fatalf("points = %d, want 9", len(first))
	}
	for i := range first {
		if !first[i].PrecipProbability.Equal(second[i].PrecipProbability) ||
			first[i].ExternalID != second[i].ExternalID {
			t.Fatalf("point %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestStub_ValueRanges(t *testing.T) {
	t.Parallel()

	stub := NewStub()
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	points, err := stub.FetchForecast(context.Background(), decimal.NewFromFloat(51.529), decimal.NewFromFloat(-0.1722), from, from.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	for _, p := range points {
		if p.PrecipProbability.IsNegative() || p.PrecipProbability.GreaterThan(decimal.NewFromInt(100)) {
			t.Fatalf("precip probability out of range: %s", p.PrecipProbability)
		}
		if p.Humidity.LessThan(decimal.NewFromInt(40)) || p.Humidity.GreaterThan(decimal.NewFromInt(100)) {
			t.Fatalf("humidity out of range: %s", p.Humidity)
		}
		if p.WindSpeed.LessThan(decimal.NewFromInt(5)) || p.WindSpeed.GreaterThan(decimal.NewFromInt(40)) {
			t.Fatalf("wind speed out of range: %s", p.WindSpeed)
		}
		if p.Temperature.LessThan(decimal.NewFromInt(16)) || p.Temperature.GreaterThan(decimal.NewFromInt(34)) {
			t.Fatalf("temperature out of range: %s", p.Temperature)
		}
	}
}

func TestStub_ExternalIDScheme(t *testing.T) {
	t.Parallel()

	stub := NewStub()
	lat := decimal.NewFromFloat(22.5726)
	lon := decimal.NewFromFloat(88.3639)
	from := time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC)

	points, err := stub.FetchForecast(context.Background(), lat, lon, from, from)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("points = %d, want 1", len(points))
	}
	want := "openmeteo-22.573-88.364-2026090514"
	if points[0].ExternalID != want {
		t.Fatalf("external id = %s, want %s", points[0].ExternalID, want)
	}
}

func TestClient_FetchForecastMapsHours(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forecast" {
			t.Errorf("path = %s, want /v1/forecast", r.URL.Path)
		}
		if r.URL.Query().Get("timezone") != "UTC" {
			t.Errorf("timezone = %q, want UTC", r.URL.Query().Get("timezone"))
		}
		_, _ = w.Write([]byte(`{"hourly":{
			"time":["2026-09-05T12:00","2026-09-05T13:00"],
			"temperature_2m":[24.1,24.9],
			"relative_humidity_2m":[70,72],
			"precipitation_probability":[35,40],
			"precipitation":[0.4,0.8],
			"wind_speed_10m":[12.5,14.0]
		}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})
	lat := decimal.NewFromFloat(18.9389)
	lon := decimal.NewFromFloat(72.8258)
	from := time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC)

	points, err := client.FetchForecast(context.Background(), lat, lon, from, from.Add(time.Hour))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].PrecipProbability.String() != "35" || points[1].WindSpeed.String() != "14" {
		t.Fatalf("points = %+v", points)
	}
	if points[0].ExternalID != "openmeteo-18.939-72.826-2026090512" {
		t.Fatalf("external id = %s", points[0].ExternalID)
	}
}

package cricbuzz

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"github.com/valyala/bytebufferpool"

	"github.com/cricworks/cricstats/internal/domain/venue"
	"github.com/cricworks/cricstats/internal/platform/cache"
	"github.com/cricworks/cricstats/internal/platform/logging"
	"github.com/cricworks/cricstats/internal/usecase"
)

const (
	ProviderName = "CricbuzzLive"

	defaultBaseURL    = "https://api.cricbuzz.com"
	defaultGeoBaseURL = "https://geocoding-api.open-meteo.com"
	defaultTimeout    = 10 * time.Second
	minTimeout        = time.Second
	maxTimeout        = 60 * time.Second

	geoCacheTTL      = 12 * time.Hour
	maxResponseBytes = 2 << 20

	maxGeoLookupConcurrency = 4
)

var errFetch = crerr.New("cricbuzz fetch failure")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	GeoBaseURL string
	MatchType  string
	Timeout    time.Duration
	Logger     *logging.Logger
}

// Client is the matches-only cricket provider. It has no series endpoints:
// FetchUpcomingSeries returns an empty slice and FetchSeriesInfo returns nil.
// Venue coordinates are geocoded from the city through the open-meteo
// geocoding API with a TTL cache; when geocoding fails the venue is returned
// without coordinates and the sync engine derives pseudo ones.
type Client struct {
	httpClient *http.Client
	baseURL    string
	geoBaseURL string
	matchType  string
	logger     *logging.Logger
	geoCache   *cache.Store
}

type geoResult struct {
	Latitude  decimal.Decimal
	Longitude decimal.Decimal
	Country   string
	Found     bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if timeout < minTimeout {
		timeout = minTimeout
	}
	if timeout > maxTimeout {
		timeout = maxTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = timeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	geoBaseURL := strings.TrimRight(strings.TrimSpace(cfg.GeoBaseURL), "/")
	if geoBaseURL == "" {
		geoBaseURL = defaultGeoBaseURL
	}
	matchType := strings.TrimSpace(cfg.MatchType)
	if matchType == "" {
		matchType = "international"
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		geoBaseURL: geoBaseURL,
		matchType:  matchType,
		logger:     logger,
		geoCache:   cache.NewStore(geoCacheTTL),
	}
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) FetchUpcomingMatches(ctx context.Context, from, to time.Time) ([]usecase.ExternalMatch, error) {
	endpoint := c.baseURL + "/v1/matches/upcoming?type=" + url.QueryEscape(c.matchType)

	var payload upcomingEnvelope
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetch upcoming matches: %w", err)
	}
	if payload.Data == nil {
		return nil, nil
	}

	type acceptedRow struct {
		row   matchPayload
		start time.Time
	}
	accepted := make([]acceptedRow, 0, len(payload.Data.Matches))
	cities := make(map[string]struct{})
	for _, row := range payload.Data.Matches {
		if strings.TrimSpace(row.ID) == "" {
			continue
		}
		start := parseStartTime(row.StartTimeGMT)
		if start == nil || start.Before(from) || start.After(to) {
			continue
		}
		accepted = append(accepted, acceptedRow{row: row, start: *start})
		if city := strings.TrimSpace(row.Venue.City); city != "" {
			cities[city] = struct{}{}
		}
	}

	// Warm the geo cache for the distinct cities up front; the per-match
	// lookups below then hit the cache.
	warm := pool.New().WithMaxGoroutines(maxGeoLookupConcurrency)
	for city := range cities {
		warm.Go(func() {
			c.resolveGeo(ctx, city)
		})
	}
	warm.Wait()

	out := make([]usecase.ExternalMatch, 0, len(accepted))
	for _, item := range accepted {
		row, start := item.row, item.start

		geo := c.resolveGeo(ctx, row.Venue.City)
		external := usecase.ExternalMatch{
			ExternalID: "cricbuzz-" + strings.TrimSpace(row.ID),
			Format:     row.Format,
			StartTime:  start,
			Status:     row.Status,
			Venue: usecase.ExternalVenue{
				ExternalID: "cricbuzz-venue-" + strings.TrimSpace(row.ID),
				Name:       strings.TrimSpace(row.Venue.Name),
				City:       strings.TrimSpace(row.Venue.City),
				Country:    geo.Country,
			},
			HomeTeam: mapTeam(row.HomeTeam, geo.Country),
			AwayTeam: mapTeam(row.AwayTeam, geo.Country),
		}
		if geo.Found {
			lat, lon := geo.Latitude, geo.Longitude
			external.Venue.Latitude = &lat
			external.Venue.Longitude = &lon
			external.Venue.GeoSource = venue.GeoSourceGeocoded
		}
		out = append(out, external)
	}
	return out, nil
}

// FetchUpcomingSeries is unsupported, the provider only lists matches.
func (c *Client) FetchUpcomingSeries(context.Context, time.Time, time.Time) ([]usecase.ExternalSeries, error) {
	return nil, nil
}

// FetchSeriesInfo is unsupported.
func (c *Client) FetchSeriesInfo(context.Context, string) (*usecase.ExternalSeriesDetails, error) {
	return nil, nil
}

func (c *Client) resolveGeo(ctx context.Context, city string) geoResult {
	city = strings.TrimSpace(city)
	if city == "" {
		return geoResult{Country: "Unknown"}
	}

	key := strings.ToLower(city)
	cached, err := c.geoCache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return c.geocodeCity(ctx, city), nil
	})
	if err != nil {
		return geoResult{Country: "Unknown"}
	}
	geo, ok := cached.(geoResult)
	if !ok {
		return geoResult{Country: "Unknown"}
	}
	return geo
}

func (c *Client) geocodeCity(ctx context.Context, city string) geoResult {
	endpoint := c.geoBaseURL + "/v1/search?name=" + url.QueryEscape(city) + "&count=1&language=en&format=json"

	var payload geoEnvelope
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		c.logger.DebugContext(ctx, "geocoding failed, venue left without coordinates", "city", city, "error", err)
		return geoResult{Country: "Unknown"}
	}
	if len(payload.Results) == 0 {
		return geoResult{Country: "Unknown"}
	}

	hit := payload.Results[0]
	country := strings.TrimSpace(hit.Country)
	if country == "" {
		country = "Unknown"
	}
	return geoResult{
		Latitude:  decimal.NewFromFloat(hit.Latitude),
		Longitude: decimal.NewFromFloat(hit.Longitude),
		Country:   country,
		Found:     true,
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return crerr.WithSecondaryError(errFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status=%d", errFetch, resp.StatusCode)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := io.Copy(buf, io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := sonic.Unmarshal(buf.Bytes(), target); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func mapTeam(row teamPayload, country string) usecase.ExternalTeam {
	name := strings.TrimSpace(row.Name)
	return usecase.ExternalTeam{
		ExternalID: "cricbuzz-team-" + normalizeID(name),
		Name:       name,
		Country:    country,
		ShortName:  buildShortName(name),
	}
}

func normalizeID(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// buildShortName takes the first letters of up to three words, falling back
// to the first three letters of a single-word name.
func buildShortName(name string) string {
	parts := strings.Fields(name)
	if len(parts) >= 2 {
		var letters []rune
		for i, part := range parts {
			if i == 3 {
				break
			}
			letters = append(letters, []rune(strings.ToUpper(part))[0])
		}
		return string(letters)
	}
	upper := []rune(strings.ToUpper(name))
	if len(upper) > 3 {
		upper = upper[:3]
	}
	return string(upper)
}

var startTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func parseStartTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range startTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}

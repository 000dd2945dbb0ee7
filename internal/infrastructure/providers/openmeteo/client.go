package openmeteo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"github.com/valyala/bytebufferpool"

	"github.com/cricworks/cricstats/internal/domain/weather"
	"github.com/cricworks/cricstats/internal/platform/logging"
)

const (
	ProviderName = "OpenMeteo"

	defaultBaseURL = "https://api.open-meteo.com"
	defaultTimeout = 10 * time.Second
	minTimeout     = time.Second
	maxTimeout     = 60 * time.Second

	hourlyFields     = "temperature_2m,relative_humidity_2m,precipitation_probability,precipitation,wind_speed_10m"
	maxResponseBytes = 2 << 20
)

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	Logger     *logging.Logger
}

// Client fetches hourly forecasts from the open-meteo API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
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

	return &Client{httpClient: httpClient, baseURL: baseURL, logger: logger}
}

func (c *Client) Name() string { return ProviderName }

type forecastEnvelope struct {
	Hourly hourlyPayload `json:"hourly"`
}

type hourlyPayload struct {
	Time                     []string  `json:"time"`
	Temperature2m            []float64 `json:"temperature_2m"`
	RelativeHumidity2m       []float64 `json:"relative_humidity_2m"`
	PrecipitationProbability []float64 `json:"precipitation_probability"`
	Precipitation            []float64 `json:"precipitation"`
	WindSpeed10m             []float64 `json:"wind_speed_10m"`
}

func (c *Client) FetchForecast(ctx context.Context, lat, lon decimal.Decimal, from, to time.Time) ([]weather.ForecastPoint, error) {
	values := url.Values{}
	values.Set("latitude", lat.String())
	values.Set("longitude", lon.String())
	values.Set("hourly", hourlyFields)
	values.Set("timezone", "UTC")
	values.Set("start_hour", from.UTC().Truncate(time.Hour).Format("2006-01-02T15:04"))
	values.Set("end_hour", to.UTC().Truncate(time.Hour).Format("2006-01-02T15:04"))

	endpoint := c.baseURL + "/v1/forecast?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch forecast: status=%d", resp.StatusCode)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := io.Copy(buf, io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return nil, fmt.Errorf("read forecast body: %w", err)
	}

	var envelope forecastEnvelope
	if err := sonic.Unmarshal(buf.Bytes(), &envelope); err != nil {
		return nil, fmt.Errorf("decode forecast payload: %w", err)
	}

	return c.mapHourly(ctx, lat, lon, envelope.Hourly, from, to), nil
}

func (c *Client) mapHourly(ctx context.Context, lat, lon decimal.Decimal, hourly hourlyPayload, from, to time.Time) []weather.ForecastPoint {
	out := make([]weather.ForecastPoint, 0, len(hourly.Time))
	for i, raw := range hourly.Time {
		ts, err := time.Parse("2006-01-02T15:04", raw)
		if err != nil {
			c.logger.DebugContext(ctx, "skipping unparseable forecast hour", "value", raw)
			continue
		}
		ts = ts.UTC()
		if ts.Before(from.Truncate(time.Hour)) || ts.After(to) {
			continue
		}
		out = append(out, weather.ForecastPoint{
			ExternalID:        PointExternalID(lat, lon, ts),
			Timestamp:         ts,
			Temperature:       floatAt(hourly.Temperature2m, i),
			Humidity:          floatAt(hourly.RelativeHumidity2m, i),
			PrecipProbability: floatAt(hourly.PrecipitationProbability, i),
			PrecipAmount:      floatAt(hourly.Precipitation, i),
			WindSpeed:         floatAt(hourly.WindSpeed10m, i),
		})
	}
	return out
}

func floatAt(values []float64, i int) decimal.Decimal {
	if i >= len(values) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(values[i])
}

// PointExternalID is the snapshot identity for one location-hour. The stub
// uses the same scheme so cached snapshots stay stable across providers of
// the same family.
func PointExternalID(lat, lon decimal.Decimal, ts time.Time) string {
	return fmt.Sprintf("openmeteo-%s-%s-%s", lat.StringFixed(3), lon.StringFixed(3), ts.UTC().Format("2006010215"))
}

package cricketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/time/rate"

	"github.com/cricworks/cricstats/internal/platform/logging"
	"github.com/cricworks/cricstats/internal/platform/resilience"
	"github.com/cricworks/cricstats/internal/usecase"
)

const (
	ProviderName = "CricketData"

	defaultBaseURL = "https://api.cricketdata.org/v1"
	minTimeout     = time.Second
	maxTimeout     = 60 * time.Second
	defaultTimeout = 15 * time.Second

	maxResponseBytes = 4 << 20
)

var apiKeyParamRegex = regexp.MustCompile(`apikey=[^&\s"']+`)
var errTransient = crerr.New("cricketdata transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	RequestsPerSec float64
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client is the JSON API cricket provider. It supports matches, series
// listings and per-series details.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	limiter        *rate.Limiter
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
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

	limit := rate.Limit(cfg.RequestsPerSec)
	if limit <= 0 {
		limit = rate.Limit(5)
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		limiter:        rate.NewLimiter(limit, 1),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) FetchUpcomingMatches(ctx context.Context, from, to time.Time) ([]usecase.ExternalMatch, error) {
	query := map[string]string{
		"from": from.UTC().Format(time.RFC3339),
		"to":   to.UTC().Format(time.RFC3339),
	}

	var envelope matchesEnvelope
	if err := c.doJSON(ctx, "/matches/upcoming", query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch upcoming matches: %w", err)
	}

	return mapMatches(envelope.Data), nil
}

func (c *Client) FetchUpcomingSeries(ctx context.Context, from, to time.Time) ([]usecase.ExternalSeries, error) {
	query := map[string]string{
		"from": from.UTC().Format(time.RFC3339),
		"to":   to.UTC().Format(time.RFC3339),
	}

	var envelope seriesListEnvelope
	if err := c.doJSON(ctx, "/series/upcoming", query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch upcoming series: %w", err)
	}

	return mapSeriesList(envelope.Data), nil
}

func (c *Client) FetchSeriesInfo(ctx context.Context, seriesExternalID string) (*usecase.ExternalSeriesDetails, error) {
	seriesExternalID = strings.TrimSpace(seriesExternalID)
	if seriesExternalID == "" {
		return nil, fmt.Errorf("series external id is required")
	}

	var envelope seriesInfoEnvelope
	path := "/series/" + url.PathEscape(seriesExternalID)
	if err := c.doJSON(ctx, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch series info id=%s: %w", seriesExternalID, err)
	}

	return mapSeriesDetails(envelope.Data), nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "cricketdata circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: cricket data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	values.Set("apikey", c.apiKey)

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(path+"?"+values.Encode(), func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errTransient, redactAPIKey(err.Error()))
		} else {
			raw, readErr := readBody(resp.Body)
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d", errTransient, resp.StatusCode)
			default:
				return nil, fmt.Errorf("provider status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "cricketdata request failed", "url", redactAPIKey(fullURL), "error", lastErr)
	return nil, lastErr
}

func readBody(body io.Reader) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := io.Copy(buf, io.LimitReader(body, maxResponseBytes)); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func redactAPIKey(value string) string {
	return apiKeyParamRegex.ReplaceAllString(value, "apikey=REDACTED")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

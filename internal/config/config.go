package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cricworks/cricstats/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level

	DBURL                   string
	DBDisablePreparedBinary bool

	CORSAllowedOrigins []string
	InternalJobToken   string

	// ProviderPriority is the fallback order for cricket providers; names
	// not listed are tried afterwards in registration order.
	ProviderPriority      []string
	AllowFixtureProviders bool

	FixtureSyncWindowDays    int
	SeriesSyncWindowDays     int
	SeriesInfoMaxRetries     int
	SeriesInfoRetryDelay     time.Duration
	WeatherRefreshWindowDays int
	WeatherProviderName      string
	WeatherPrecipAmountMaxMm decimal.Decimal
	WeatherWindSpeedMaxKph   decimal.Decimal

	CricketDataEnabled               bool
	CricketDataBaseURL               string
	CricketDataAPIKey                string
	CricketDataTimeout               time.Duration
	CricketDataMaxRetries            int
	CricketDataRequestsPerSec        float64
	CricketDataCircuitEnabled        bool
	CricketDataCircuitFailureCount   int
	CricketDataCircuitOpenTimeout    time.Duration
	CricketDataCircuitHalfOpenMaxReq int

	CricbuzzEnabled    bool
	CricbuzzBaseURL    string
	CricbuzzGeoBaseURL string
	CricbuzzMatchType  string
	CricbuzzTimeout    time.Duration

	OpenMeteoBaseURL   string
	OpenMeteoTimeout   time.Duration
	WeatherStubEnabled bool

	JobsEnabled     bool
	SyncCronSpec    string
	WeatherCronSpec string
	SyncMaxWorkers  int

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	UptraceCaptureRequestBody  bool
	UptraceRequestBodyMaxBytes int

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	allowFixtureProviders, err := strconv.ParseBool(getEnv("ALLOW_FIXTURE_PROVIDERS", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ALLOW_FIXTURE_PROVIDERS: %w", err)
	}

	fixtureSyncWindowDays, err := getEnvAsInt("FIXTURE_SYNC_WINDOW_DAYS", 14)
	if err != nil {
		return Config{}, fmt.Errorf("parse FIXTURE_SYNC_WINDOW_DAYS: %w", err)
	}
	seriesSyncWindowDays, err := getEnvAsInt("SERIES_SYNC_WINDOW_DAYS", 120)
	if err != nil {
		return Config{}, fmt.Errorf("parse SERIES_SYNC_WINDOW_DAYS: %w", err)
	}
	seriesInfoMaxRetries, err := getEnvAsInt("SERIES_INFO_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SERIES_INFO_MAX_RETRIES: %w", err)
	}
	if seriesInfoMaxRetries < 0 {
		return Config{}, fmt.Errorf("SERIES_INFO_MAX_RETRIES must be >= 0")
	}
	seriesInfoRetryDelay, err := time.ParseDuration(getEnv("SERIES_INFO_RETRY_DELAY", "300ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SERIES_INFO_RETRY_DELAY: %w", err)
	}
	if seriesInfoRetryDelay <= 0 {
		return Config{}, fmt.Errorf("SERIES_INFO_RETRY_DELAY must be > 0")
	}
	weatherRefreshWindowDays, err := getEnvAsInt("WEATHER_REFRESH_WINDOW_DAYS", 14)
	if err != nil {
		return Config{}, fmt.Errorf("parse WEATHER_REFRESH_WINDOW_DAYS: %w", err)
	}

	weatherPrecipAmountMaxMm, err := getEnvAsDecimal("WEATHER_PRECIP_AMOUNT_MAX_MM", "10")
	if err != nil {
		return Config{}, fmt.Errorf("parse WEATHER_PRECIP_AMOUNT_MAX_MM: %w", err)
	}
	if weatherPrecipAmountMaxMm.LessThanOrEqual(decimal.Zero) {
		return Config{}, fmt.Errorf("WEATHER_PRECIP_AMOUNT_MAX_MM must be > 0")
	}
	weatherWindSpeedMaxKph, err := getEnvAsDecimal("WEATHER_WIND_SPEED_MAX_KPH", "40")
	if err != nil {
		return Config{}, fmt.Errorf("parse WEATHER_WIND_SPEED_MAX_KPH: %w", err)
	}
	if weatherWindSpeedMaxKph.LessThanOrEqual(decimal.Zero) {
		return Config{}, fmt.Errorf("WEATHER_WIND_SPEED_MAX_KPH must be > 0")
	}

	cricketDataEnabled, err := strconv.ParseBool(getEnv("CRICKETDATA_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CRICKETDATA_ENABLED: %w", err)
	}
	cricketDataAPIKey := strings.TrimSpace(getEnv("CRICKETDATA_API_KEY", ""))
	if cricketDataEnabled && cricketDataAPIKey == "" {
		return Config{}, fmt.Errorf("CRICKETDATA_API_KEY is required when CRICKETDATA_ENABLED=true")
	}
	cricketDataTimeout, err := time.ParseDuration(getEnv("CRICKETDATA_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CRICKETDATA_TIMEOUT: %w", err)
	}
	if cricketDataTimeout <= 0 {
		return Config{}, fmt.Errorf("CRICKETDATA_TIMEOUT must be > 0")
	}
	cricketDataMaxRetries, err := getEnvAsInt("CRICKETDATA_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse CRICKETDATA_MAX_RETRIES: %w", err)
	}
	if cricketDataMaxRetries < 0 {
		return Config{}, fmt.Errorf("CRICKETDATA_MAX_RETRIES must be >= 0")
	}
	cricketDataRequestsPerSec, err := getEnvAsFloat("CRICKETDATA_REQUESTS_PER_SEC", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse CRICKETDATA_REQUESTS_PER_SEC: %w", err)
	}
	if cricketDataRequestsPerSec <= 0 {
		return Config{}, fmt.Errorf("CRICKETDATA_REQUESTS_PER_SEC must be > 0")
	}
	cricketDataCircuitEnabled, err := strconv.ParseBool(getEnv("CRICKETDATA_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CRICKETDATA_CIRCUIT_ENABLED: %w", err)
	}
	cricketDataCircuitFailureCount, err := getEnvAsInt("CRICKETDATA_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse CRICKETDATA_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cricketDataCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("CRICKETDATA_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	cricketDataCircuitOpenTimeout, err := time.ParseDuration(getEnv("CRICKETDATA_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CRICKETDATA_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if cricketDataCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("CRICKETDATA_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	cricketDataCircuitHalfOpenMaxReq, err := getEnvAsInt("CRICKETDATA_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse CRICKETDATA_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if cricketDataCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("CRICKETDATA_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	cricbuzzEnabled, err := strconv.ParseBool(getEnv("CRICBUZZ_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CRICBUZZ_ENABLED: %w", err)
	}
	cricbuzzTimeout, err := time.ParseDuration(getEnv("CRICBUZZ_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CRICBUZZ_TIMEOUT: %w", err)
	}
	if cricbuzzTimeout <= 0 {
		return Config{}, fmt.Errorf("CRICBUZZ_TIMEOUT must be > 0")
	}

	openMeteoTimeout, err := time.ParseDuration(getEnv("OPENMETEO_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse OPENMETEO_TIMEOUT: %w", err)
	}
	if openMeteoTimeout <= 0 {
		return Config{}, fmt.Errorf("OPENMETEO_TIMEOUT must be > 0")
	}
	weatherStubEnabled, err := strconv.ParseBool(getEnv("WEATHER_STUB_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEATHER_STUB_ENABLED: %w", err)
	}

	jobsEnabled, err := strconv.ParseBool(getEnv("JOBS_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse JOBS_ENABLED: %w", err)
	}
	syncMaxWorkers, err := getEnvAsInt("SYNC_MAX_WORKERS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_MAX_WORKERS: %w", err)
	}
	if syncMaxWorkers < 1 {
		return Config{}, fmt.Errorf("SYNC_MAX_WORKERS must be >= 1")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}
	uptraceCaptureRequestBody, err := strconv.ParseBool(getEnv("UPTRACE_CAPTURE_REQUEST_BODY", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_CAPTURE_REQUEST_BODY: %w", err)
	}
	uptraceRequestBodyMaxBytes, err := getEnvAsInt("UPTRACE_REQUEST_BODY_MAX_BYTES", 8192)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_REQUEST_BODY_MAX_BYTES: %w", err)
	}
	if uptraceRequestBodyMaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPTRACE_REQUEST_BODY_MAX_BYTES must be > 0")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "cricstats-api"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		LogLevel:       parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),

		DBURL:                   getEnv("DB_URL", ""),
		DBDisablePreparedBinary: dbDisablePreparedBinary,

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),

		ProviderPriority:      splitCSV(getEnv("PROVIDER_PRIORITY", "CricketData,CricbuzzLive")),
		AllowFixtureProviders: allowFixtureProviders,

		FixtureSyncWindowDays:    fixtureSyncWindowDays,
		SeriesSyncWindowDays:     seriesSyncWindowDays,
		SeriesInfoMaxRetries:     seriesInfoMaxRetries,
		SeriesInfoRetryDelay:     seriesInfoRetryDelay,
		WeatherRefreshWindowDays: weatherRefreshWindowDays,
		WeatherProviderName:      strings.TrimSpace(getEnv("WEATHER_PROVIDER", "")),
		WeatherPrecipAmountMaxMm: weatherPrecipAmountMaxMm,
		WeatherWindSpeedMaxKph:   weatherWindSpeedMaxKph,

		CricketDataEnabled:               cricketDataEnabled,
		CricketDataBaseURL:               strings.TrimSpace(getEnv("CRICKETDATA_BASE_URL", "https://api.cricketdata.org/v1")),
		CricketDataAPIKey:                cricketDataAPIKey,
		CricketDataTimeout:               cricketDataTimeout,
		CricketDataMaxRetries:            cricketDataMaxRetries,
		CricketDataRequestsPerSec:        cricketDataRequestsPerSec,
		CricketDataCircuitEnabled:        cricketDataCircuitEnabled,
		CricketDataCircuitFailureCount:   cricketDataCircuitFailureCount,
		CricketDataCircuitOpenTimeout:    cricketDataCircuitOpenTimeout,
		CricketDataCircuitHalfOpenMaxReq: cricketDataCircuitHalfOpenMaxReq,

		CricbuzzEnabled:    cricbuzzEnabled,
		CricbuzzBaseURL:    strings.TrimSpace(getEnv("CRICBUZZ_BASE_URL", "https://api.cricbuzz.com")),
		CricbuzzGeoBaseURL: strings.TrimSpace(getEnv("CRICBUZZ_GEO_BASE_URL", "https://geocoding-api.open-meteo.com")),
		CricbuzzMatchType:  strings.TrimSpace(getEnv("CRICBUZZ_MATCH_TYPE", "international")),
		CricbuzzTimeout:    cricbuzzTimeout,

		OpenMeteoBaseURL:   strings.TrimSpace(getEnv("OPENMETEO_BASE_URL", "https://api.open-meteo.com")),
		OpenMeteoTimeout:   openMeteoTimeout,
		WeatherStubEnabled: weatherStubEnabled,

		JobsEnabled:     jobsEnabled,
		SyncCronSpec:    strings.TrimSpace(getEnv("JOB_SYNC_CRON", "@every 6h")),
		WeatherCronSpec: strings.TrimSpace(getEnv("JOB_WEATHER_CRON", "@every 1h")),
		SyncMaxWorkers:  syncMaxWorkers,

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,

		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
		UptraceCaptureRequestBody:  uptraceCaptureRequestBody,
		UptraceRequestBodyMaxBytes: uptraceRequestBodyMaxBytes,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if len(cfg.ProviderPriority) == 0 {
		return Config{}, fmt.Errorf("PROVIDER_PRIORITY cannot be empty")
	}
	if cfg.JobsEnabled {
		if cfg.SyncCronSpec == "" {
			return Config{}, fmt.Errorf("JOB_SYNC_CRON is required when JOBS_ENABLED=true")
		}
		if cfg.WeatherCronSpec == "" {
			return Config{}, fmt.Errorf("JOB_WEATHER_CRON is required when JOBS_ENABLED=true")
		}
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsDecimal(key, fallback string) (decimal.Decimal, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		value = fallback
	}

	return decimal.NewFromString(value)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/cricworks/cricstats/internal/config"
	"github.com/cricworks/cricstats/internal/domain/match"
	"github.com/cricworks/cricstats/internal/domain/series"
	"github.com/cricworks/cricstats/internal/infrastructure/providers/cricbuzz"
	"github.com/cricworks/cricstats/internal/infrastructure/providers/cricketdata"
	"github.com/cricworks/cricstats/internal/infrastructure/providers/openmeteo"
	"github.com/cricworks/cricstats/internal/infrastructure/repository/memory"
	"github.com/cricworks/cricstats/internal/infrastructure/repository/postgres"
	"github.com/cricworks/cricstats/internal/interfaces/httpapi"
	"github.com/cricworks/cricstats/internal/jobs"
	idgen "github.com/cricworks/cricstats/internal/platform/id"
	"github.com/cricworks/cricstats/internal/platform/logging"
	"github.com/cricworks/cricstats/internal/platform/resilience"
	"github.com/cricworks/cricstats/internal/usecase"
)

// Application bundles the running pieces main needs to start and stop.
type Application struct {
	Server    *http.Server
	Scheduler *jobs.Scheduler
	db        *sqlx.DB
}

// New wires repositories, providers, services and the HTTP server. An empty
// DB_URL selects the in-memory store, which is the default for local runs.
func New(cfg config.Config, logger *logging.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		db         *sqlx.DB
		matchRepo  match.Repository
		seriesRepo series.Repository

		fixtureStore usecase.FixtureSyncStore
		seriesStore  usecase.SeriesSyncStore
		weatherStore usecase.WeatherRiskStore
	)

	if cfg.DBURL == "" {
		store := memory.NewStore()
		matchRepo = store
		seriesRepo = memory.NewSeriesReads(store)
		fixtureStore = store
		seriesStore = store
		weatherStore = store
		logger.Info("storage configured", "backend", "memory")
	} else {
		dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
		conn, err := otelsqlx.Connect("postgres", dsn,
			otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
			otelsql.WithDBName(dbNameFromURL(dsn)),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		db = conn

		store := postgres.NewStore(db)
		matchRepo = postgres.NewMatchReads(db)
		seriesRepo = postgres.NewSeriesReads(db)
		fixtureStore = store
		seriesStore = store
		weatherStore = store
		logger.Info("storage configured", "backend", "postgres", "database", dbNameFromURL(dsn))
	}

	registry := usecase.NewProviderRegistry()
	if cfg.CricketDataEnabled {
		client := cricketdata.NewClient(cricketdata.ClientConfig{
			BaseURL:        cfg.CricketDataBaseURL,
			APIKey:         cfg.CricketDataAPIKey,
			Timeout:        cfg.CricketDataTimeout,
			MaxRetries:     cfg.CricketDataMaxRetries,
			RequestsPerSec: cfg.CricketDataRequestsPerSec,
			Logger:         logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.CricketDataCircuitEnabled,
				FailureThreshold: cfg.CricketDataCircuitFailureCount,
				OpenTimeout:      cfg.CricketDataCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.CricketDataCircuitHalfOpenMaxReq,
			},
		})
		if err := registry.Register(client, false); err != nil {
			return nil, fmt.Errorf("register cricketdata provider: %w", err)
		}
	}
	if cfg.CricbuzzEnabled {
		client := cricbuzz.NewClient(cricbuzz.ClientConfig{
			BaseURL:    cfg.CricbuzzBaseURL,
			GeoBaseURL: cfg.CricbuzzGeoBaseURL,
			MatchType:  cfg.CricbuzzMatchType,
			Timeout:    cfg.CricbuzzTimeout,
			Logger:     logger,
		})
		if err := registry.Register(client, false); err != nil {
			return nil, fmt.Errorf("register cricbuzz provider: %w", err)
		}
	}

	weatherProviders := []usecase.WeatherProvider{
		openmeteo.NewClient(openmeteo.ClientConfig{
			BaseURL: cfg.OpenMeteoBaseURL,
			Timeout: cfg.OpenMeteoTimeout,
			Logger:  logger,
		}),
	}
	if cfg.WeatherStubEnabled {
		weatherProviders = append(weatherProviders, openmeteo.NewStub())
	}

	ids := idgen.NewRandomGenerator()

	fixtureSync := usecase.NewFixtureSyncService(registry, fixtureStore, ids, usecase.FixtureSyncConfig{
		ProviderPriority:      cfg.ProviderPriority,
		SyncWindowDays:        cfg.FixtureSyncWindowDays,
		AllowFixtureProviders: cfg.AllowFixtureProviders,
	}, logger)

	seriesSync := usecase.NewSeriesSyncService(registry, seriesStore, ids, usecase.SeriesSyncConfig{
		ProviderPriority:      cfg.ProviderPriority,
		SeriesSyncWindowDays:  cfg.SeriesSyncWindowDays,
		SeriesInfoMaxRetries:  cfg.SeriesInfoMaxRetries,
		SeriesInfoRetryDelay:  cfg.SeriesInfoRetryDelay,
		AllowFixtureProviders: cfg.AllowFixtureProviders,
	}, logger)

	weatherRisk, err := usecase.NewWeatherRiskService(weatherProviders, weatherStore, ids, usecase.WeatherRiskConfig{
		ProviderName:          cfg.WeatherProviderName,
		RefreshWindowDays:     cfg.WeatherRefreshWindowDays,
		PrecipAmountMaxMm:     cfg.WeatherPrecipAmountMaxMm,
		WindSpeedMaxKph:       cfg.WeatherWindSpeedMaxKph,
		FixtureOnlyProviders:  registry.FixtureOnlyNames(),
		AllowFixtureProviders: cfg.AllowFixtureProviders,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build weather risk service: %w", err)
	}
	weatherRisk.BindFixtureSync(fixtureSync)

	matchQuery := usecase.NewMatchQueryService(matchRepo, fixtureSync, logger)
	seriesQuery := usecase.NewSeriesQueryService(seriesRepo, seriesSync, logger)
	orchestrator := usecase.NewSyncOrchestratorService(fixtureSync, seriesSync, weatherRisk, logger)

	handler := httpapi.NewHandler(matchQuery, seriesQuery, fixtureSync, seriesSync, weatherRisk, orchestrator, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	application := &Application{Server: server, db: db}

	if cfg.JobsEnabled {
		scheduler, err := jobs.NewScheduler(cfg, orchestrator, weatherRisk, logger)
		if err != nil {
			return nil, fmt.Errorf("build job scheduler: %w", err)
		}
		application.Scheduler = scheduler
	}

	return application, nil
}

// Close releases resources the application holds, currently the DB pool.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/cricworks/cricstats/internal/platform/logging"
	"github.com/cricworks/cricstats/internal/usecase"
)

type Handler struct {
	matchQuery   *usecase.MatchQueryService
	seriesQuery  *usecase.SeriesQueryService
	fixtureSync  *usecase.FixtureSyncService
	seriesSync   *usecase.SeriesSyncService
	weatherRisk  *usecase.WeatherRiskService
	orchestrator *usecase.SyncOrchestratorService
	logger       *logging.Logger
	validator    *validator.Validate
}

func NewHandler(
	matchQuery *usecase.MatchQueryService,
	seriesQuery *usecase.SeriesQueryService,
	fixtureSync *usecase.FixtureSyncService,
	seriesSync *usecase.SeriesSyncService,
	weatherRisk *usecase.WeatherRiskService,
	orchestrator *usecase.SyncOrchestratorService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchQuery:   matchQuery,
		seriesQuery:  seriesQuery,
		fixtureSync:  fixtureSync,
		seriesSync:   seriesSync,
		weatherRisk:  weatherRisk,
		orchestrator: orchestrator,
		logger:       logger,
		validator:    validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListUpcomingMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUpcomingMatches")
	defer span.End()

	if h.matchQuery == nil {
		writeError(ctx, w, fmt.Errorf("%w: match query service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	query := usecase.UpcomingMatchesQuery{
		Country: strings.TrimSpace(r.URL.Query().Get("country")),
		Format:  strings.TrimSpace(r.URL.Query().Get("format")),
	}

	from, err := parseOptionalTimeParam(r, "from")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	to, err := parseOptionalTimeParam(r, "to")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query.From = from
	query.To = to

	result, err := h.matchQuery.Upcoming(ctx, query)
	if err != nil {
		h.logger.WarnContext(ctx, "list upcoming matches failed", "country", query.Country, "format", query.Format, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]upcomingMatchDTO, 0, len(result.Matches))
	for _, view := range result.Matches {
		items = append(items, upcomingMatchToDTO(view))
	}

	writeSuccess(ctx, w, http.StatusOK, upcomingMatchesResponseDTO{
		Matches:    items,
		TotalCount: result.TotalCount,
	})
}

func (h *Handler) GetMatchWeatherRisk(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchWeatherRisk")
	defer span.End()

	if h.weatherRisk == nil {
		writeError(ctx, w, fmt.Errorf("%w: weather risk service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	matchID := r.PathValue("matchID")
	report, err := h.weatherRisk.ComputeForMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "compute match weather risk failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, weatherRiskReportToDTO(report))
}

func (h *Handler) ListUpcomingSeries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUpcomingSeries")
	defer span.End()

	if h.seriesQuery == nil {
		writeError(ctx, w, fmt.Errorf("%w: series query service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	from, err := parseOptionalTimeParam(r, "from")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	to, err := parseOptionalTimeParam(r, "to")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.seriesQuery.Upcoming(ctx, from, to)
	if err != nil {
		h.logger.WarnContext(ctx, "list upcoming series failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]upcomingSeriesDTO, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, upcomingSeriesToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, upcomingSeriesResponseDTO{
		Series:     items,
		TotalCount: result.TotalCount,
	})
}

func (h *Handler) GetSeriesDetails(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeriesDetails")
	defer span.End()

	if h.seriesQuery == nil {
		writeError(ctx, w, fmt.Errorf("%w: series query service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	seriesID := r.PathValue("seriesID")
	page, err := parseOptionalIntParam(r, "page")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	pageSize, err := parseOptionalIntParam(r, "pageSize")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.seriesQuery.Details(ctx, seriesID, page, pageSize)
	if err != nil {
		h.logger.WarnContext(ctx, "get series details failed", "series_id", seriesID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seriesDetailsToDTO(result))
}

func (h *Handler) RunFixtureSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunFixtureSync")
	defer span.End()

	if h.fixtureSync == nil {
		writeError(ctx, w, fmt.Errorf("%w: fixture sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.fixtureSync.SyncUpcoming(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "fixture sync failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureSyncResultToDTO(result))
}

func (h *Handler) RunSeriesSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSeriesSync")
	defer span.End()

	if h.seriesSync == nil {
		writeError(ctx, w, fmt.Errorf("%w: series sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.seriesSync.SyncUpcoming(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "series sync failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seriesSyncResultToDTO(result))
}

func (h *Handler) RunWeatherRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunWeatherRefresh")
	defer span.End()

	if h.weatherRisk == nil {
		writeError(ctx, w, fmt.Errorf("%w: weather risk service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.weatherRisk.RefreshUpcoming(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "weather refresh failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, weatherRefreshResultToDTO(result))
}

type syncAllRequest struct {
	Kinds      []string `json:"kinds" validate:"omitempty,dive,oneof=fixtures series weather"`
	MaxWorkers int      `json:"maxWorkers" validate:"omitempty,min=1,max=8"`
}

func (h *Handler) RunSyncAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncAll")
	defer span.End()

	if h.orchestrator == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync orchestrator is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req syncAllRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(ctx, w, fmt.Errorf("%w: invalid request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validator.StructCtx(ctx, req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err))
		return
	}

	result, err := h.orchestrator.SyncAll(ctx, usecase.SyncAllInput{
		Kinds:      req.Kinds,
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "sync all failed", "kinds", req.Kinds, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func parseOptionalTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an RFC3339 timestamp", usecase.ErrInvalidInput, name)
	}
	utc := parsed.UTC()
	return &utc, nil
}

func parseOptionalIntParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return value, nil
}

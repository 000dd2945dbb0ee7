package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/v1/matches/upcoming", handler.ListUpcomingMatches)
	mux.HandleFunc("GET /api/v1/matches/{matchID}/weather-risk", handler.GetMatchWeatherRisk)
}

func registerSeriesRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/v1/series/upcoming", handler.ListUpcomingSeries)
	mux.HandleFunc("GET /api/v1/series/{seriesID}", handler.GetSeriesDetails)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /api/v1/admin/sync/upcoming", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunFixtureSync)))
	mux.Handle("POST /api/v1/admin/sync/series", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSeriesSync)))
	mux.Handle("POST /api/v1/admin/sync/all", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncAll)))
	mux.Handle("POST /api/v1/admin/weather/refresh", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunWeatherRefresh)))
}

package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerQueryRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams/search", handler.FindTeam)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
	mux.HandleFunc("GET /v1/matches", handler.ListMatchesByDay)
	mux.HandleFunc("GET /v1/matches/search", handler.FindMatchByProviderID)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/statistics", handler.GetStatistics)
}

func registerSyncRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	trigger := http.Handler(http.HandlerFunc(handler.TriggerSync))
	if internalJobToken != "" {
		trigger = RequireInternalJobToken(internalJobToken, trigger)
	}

	mux.Handle("POST /v1/sync", trigger)
	mux.HandleFunc("GET /v1/sync/last", handler.GetLastSync)
	mux.HandleFunc("GET /v1/sync/{jobID}", handler.GetSyncStatus)
}

package handler

import (
	"net/http"
)

type Handlers struct {
	Stations *StationHandler
	Lines    *LineHandler
	Paths    *PathHandler
	WS       *WSHandler
	Health   *HealthHandler
	Stats    *StatsHandler
}

// NewRouter registers every route. The REST API runs behind the supplied
// middleware; the WebSocket endpoint and probes are mounted bare so the
// upgrade sees the raw connection.
func NewRouter(h Handlers, middleware ...func(http.Handler) http.Handler) http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("POST /v1/stations", h.Stations.CreateStation)
	api.HandleFunc("GET /v1/stations", h.Stations.ListStations)
	api.HandleFunc("GET /v1/stations/{id}", h.Stations.GetStation)
	api.HandleFunc("DELETE /v1/stations/{id}", h.Stations.DeleteStation)

	api.HandleFunc("POST /v1/lines", h.Lines.CreateLine)
	api.HandleFunc("GET /v1/lines", h.Lines.ListLines)
	api.HandleFunc("GET /v1/lines/{id}", h.Lines.GetLine)
	api.HandleFunc("PUT /v1/lines/{id}", h.Lines.UpdateLine)
	api.HandleFunc("DELETE /v1/lines/{id}", h.Lines.DeleteLine)
	api.HandleFunc("POST /v1/lines/{id}/sections", h.Lines.AddSection)
	api.HandleFunc("DELETE /v1/lines/{id}/sections", h.Lines.RemoveStation)

	api.HandleFunc("GET /v1/paths", h.Paths.FindPath)

	if h.Stats != nil {
		api.HandleFunc("GET /v1/stats", h.Stats.GetStats)
	}

	var wrapped http.Handler = api
	for i := len(middleware) - 1; i >= 0; i-- {
		wrapped = middleware[i](wrapped)
	}

	mux := http.NewServeMux()
	mux.Handle("/", wrapped)
	if h.WS != nil {
		mux.HandleFunc("GET /v1/ws", h.WS.ServeWS)
	}
	if h.Health != nil {
		mux.HandleFunc("GET /healthz", h.Health.Healthz)
		mux.HandleFunc("GET /readyz", h.Health.Readyz)
	}
	return mux
}

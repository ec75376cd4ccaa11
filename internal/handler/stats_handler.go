package handler

import (
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"subway/internal/hub"
	"subway/internal/middleware"
	"subway/internal/service"
)

// Stats tracks server-wide metrics
type Stats struct {
	startTime        time.Time
	requestCount     atomic.Int64
	wsConnections    atomic.Int64
	wsMessagesIn     atomic.Int64
	wsMessagesOut    atomic.Int64
	rateLimitBlocked atomic.Int64
}

// Global stats instance
var ServerStats = &Stats{
	startTime: time.Now(),
}

func (s *Stats) IncRequests()         { s.requestCount.Add(1) }
func (s *Stats) IncWSConnections()    { s.wsConnections.Add(1) }
func (s *Stats) DecWSConnections()    { s.wsConnections.Add(-1) }
func (s *Stats) IncWSMessagesIn()     { s.wsMessagesIn.Add(1) }
func (s *Stats) IncWSMessagesOut()    { s.wsMessagesOut.Add(1) }
func (s *Stats) IncRateLimitBlocked() { s.rateLimitBlocked.Add(1) }

type StatsHandler struct {
	stations *service.StationService
	lines    *service.LineService
	paths    *service.PathService
	hub      *hub.Hub
	limiter  *middleware.RateLimiter
}

// NewStatsHandler builds the stats endpoint. hub and limiter may be nil.
func NewStatsHandler(stations *service.StationService, lines *service.LineService, paths *service.PathService, h *hub.Hub, limiter *middleware.RateLimiter) *StatsHandler {
	return &StatsHandler{
		stations: stations,
		lines:    lines,
		paths:    paths,
		hub:      h,
		limiter:  limiter,
	}
}

type StatsResponse struct {
	Server    ServerStatsResponse    `json:"server"`
	Network   NetworkStatsResponse   `json:"network"`
	Paths     PathStatsResponse      `json:"paths"`
	WebSocket WebSocketStatsResponse `json:"websocket"`
	RateLimit *middleware.Stats      `json:"rate_limit,omitempty"`
	Go        GoStatsResponse        `json:"go"`
}

type ServerStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
	RequestCount  int64     `json:"request_count"`
	RateLimited   int64     `json:"rate_limited"`
	Version       string    `json:"version"`
}

type NetworkStatsResponse struct {
	Stations int `json:"stations"`
	Lines    int `json:"lines"`
	Sections int `json:"sections"`
}

type PathStatsResponse struct {
	service.PathStats
	HitRatio float64 `json:"hit_ratio"`
}

type WebSocketStatsResponse struct {
	Clients     int   `json:"clients"`
	Connections int64 `json:"connections"`
	MessagesIn  int64 `json:"messages_in"`
	MessagesOut int64 `json:"messages_out"`
}

type GoStatsResponse struct {
	Goroutines  int     `json:"goroutines"`
	HeapAlloc   uint64  `json:"heap_alloc_bytes"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	NumGC       uint32  `json:"num_gc"`
	GoVersion   string  `json:"go_version"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(ServerStats.startTime)

	stations, err := h.stations.ListStations(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load stations")
		return
	}
	lines, err := h.lines.ListLines(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load lines")
		return
	}
	sections := 0
	for _, line := range lines {
		sections += line.Sections.Len()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	pathStats := h.paths.Stats()
	var ratio float64
	if total := pathStats.CacheHits + pathStats.CacheMisses; total > 0 {
		ratio = float64(pathStats.CacheHits) / float64(total)
	}

	response := StatsResponse{
		Server: ServerStatsResponse{
			Uptime:        uptime.Round(time.Second).String(),
			UptimeSeconds: uptime.Seconds(),
			StartTime:     ServerStats.startTime,
			RequestCount:  ServerStats.requestCount.Load(),
			RateLimited:   ServerStats.rateLimitBlocked.Load(),
			Version:       "1.0.0",
		},
		Network: NetworkStatsResponse{
			Stations: len(stations),
			Lines:    len(lines),
			Sections: sections,
		},
		Paths: PathStatsResponse{
			PathStats: pathStats,
			HitRatio:  ratio,
		},
		WebSocket: WebSocketStatsResponse{
			Connections: ServerStats.wsConnections.Load(),
			MessagesIn:  ServerStats.wsMessagesIn.Load(),
			MessagesOut: ServerStats.wsMessagesOut.Load(),
		},
		Go: GoStatsResponse{
			Goroutines:  runtime.NumGoroutine(),
			HeapAlloc:   mem.HeapAlloc,
			HeapAllocMB: float64(mem.HeapAlloc) / 1024 / 1024,
			NumGC:       mem.NumGC,
			GoVersion:   runtime.Version(),
		},
	}
	if h.hub != nil {
		response.WebSocket.Clients = h.hub.ClientCount()
	}
	if h.limiter != nil {
		rl := h.limiter.Stats()
		response.RateLimit = &rl
	}

	w.Header().Set("Cache-Control", "no-cache")
	respondJSON(w, http.StatusOK, response)
}

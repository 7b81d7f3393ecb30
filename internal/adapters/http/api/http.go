// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/repository"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/model"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/submit"
)

// Dependencies bundles everything the HTTP handlers need. Keeping this an
// interface keeps the handler layer loosely coupled to the app wiring.
type Dependencies interface {
	submit.Cache

	// Enqueue submits a run for asynchronous ranking. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, req model.RunRequest) bool

	// GetRun returns a run by ID.
	GetRun(ctx context.Context, id string) (*repository.Run, error)

	// TopN returns the head of the latest completed run's standings.
	TopN(ctx context.Context, n int) ([]model.Competitor, error)

	// Rank returns a competitor's entry in the latest completed run.
	Rank(ctx context.Context, name string) (model.Competitor, error)
}

// Server wires HTTP routes for the standings API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	runsHandler        *RunsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxBatchSize, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		runsHandler:        NewRunsHandler(deps, maxBatchSize),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.runsHandler.HandleSubmit, "rankings"))
	mux.HandleFunc("/rankings/", MetricsMiddleware(s.runsHandler.HandleGetRun, "rankings_by_id"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

type ackResponse struct {
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

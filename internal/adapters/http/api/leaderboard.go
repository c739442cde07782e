package api

import (
	"context"
	"net/http"

	"github.com/okian/rentscore/internal/domain/model"
	"github.com/okian/rentscore/internal/domain/types"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	DailyLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
	WeeklyLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleDaily handles GET /leaderboard/daily requests.
func (h *LeaderboardHandler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.deps.DailyLeaderboard)
}

// HandleWeekly handles GET /leaderboard/weekly requests.
func (h *LeaderboardHandler) HandleWeekly(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.deps.WeeklyLeaderboard)
}

func (h *LeaderboardHandler) respond(w http.ResponseWriter, r *http.Request, board func(context.Context) ([]model.LeaderboardEntry, error)) {
	entries, err := board(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Ranked(entries))
}

// internal/httpserver/routes_stats.go
//
// Progress endpoints (optional auth):
//   - GET /stats/me                  → aggregates + recent history for the caller
//   - GET /poems/{id}/leaderboard    → best authenticated completions of a poem

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/motmystere/internal/progress"
)

const historyLimit = 50

func (s *Server) mountStatsRoutes() {
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth)
		r.Get("/stats/me", s.handleMyStats)
		r.Get("/poems/{id}/leaderboard", s.handleLeaderboard)
	})
}

type statsRes struct {
	Guest    bool              `json:"guest"`
	Recorded bool              `json:"recorded"`
	Stats    progress.Stats    `json:"stats"`
	History  []progress.Record `json:"history"`
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Progress == nil {
		writeError(w, http.StatusServiceUnavailable, "progress_disabled", nil)
		return
	}
	who := s.who(w, r)
	st, ok, err := s.deps.Progress.Stats(r.Context(), who)
	if err != nil {
		storageFailure(w, err)
		return
	}
	if !ok {
		st = progress.Recompute(nil)
	}
	hist, err := s.deps.Progress.History(r.Context(), who, historyLimit)
	if err != nil {
		storageFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsRes{Guest: who.Guest, Recorded: ok, Stats: st, History: hist})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.Progress == nil {
		writeJSON(w, http.StatusOK, []progress.LeaderboardRow{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := s.deps.Progress.Leaderboard(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		storageFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

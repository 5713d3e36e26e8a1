// internal/httpserver/routes_scores.go
//
// HTTP routes for scores, rankings, history and statistics.
// Endpoints:
//   - GET /scores/high?limit=n       → top completed games, score descending
//   - GET /users/{name}/games        → a user's games (?completed=true|false)
//   - GET /users/rankings            → users by total score
//   - GET /game/{key}/history        → move-by-move history of a game
//   - GET /stats/average-attempts    → average attempts remaining (active levels)

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// mountScores registers the score, ranking and history routes.
func (s *Server) mountScores() {
	s.r.Get("/scores/high", s.handleHighScores)
	s.r.Get("/users/rankings", s.handleRankings)
	s.r.Get("/users/{name}/games", s.handleUserGames)
	s.r.Get("/game/{key}/history", s.handleGameHistory)
	s.r.Get("/stats/average-attempts", s.handleAverageAttempts)
}

// handleHighScores returns the top completed games. The optional limit query
// parameter defaults to 10.
func (s *Server) handleHighScores(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, `{"error":"limit must be a positive number"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}
	rows, err := s.svc.HighScores(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

// handleRankings returns all users ordered for the leaderboard.
func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.Rankings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

// handleUserGames returns the named user's games. ?completed=true selects
// finished games; the default is the active ones.
func (s *Server) handleUserGames(w http.ResponseWriter, r *http.Request) {
	completed := false
	if v := r.URL.Query().Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, `{"error":"completed must be true or false"}`, http.StatusBadRequest)
			return
		}
		completed = b
	}
	views, err := s.svc.UserGames(r.Context(), chi.URLParam(r, "name"), completed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, views)
}

// handleGameHistory returns the history of the specified game.
func (s *Server) handleGameHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.svc.History(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, h)
}

// handleAverageAttempts returns the average attempts remaining across active
// levels. Recomputed per request; purely informational.
func (s *Server) handleAverageAttempts(w http.ResponseWriter, r *http.Request) {
	avg, err := s.svc.AverageAttemptsRemaining(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]float64{"average_attempts_remaining": avg})
}

// internal/httpserver/server.go
//
// HTTP server wiring for the hangman backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - User endpoint: POST /users.
//   - Game endpoints: POST /game, GET/PUT/DELETE /game/{key},
//     PUT /game/{key}/next.
//   - Score/ranking/history endpoints: mounted in routes_scores.go.
//   - Error mapping: validation → 400, unknown reference → 404, duplicate
//     user name → 409. Requests against an already-ended game or level are
//     answered 200 with an informational message and the final state; the
//     service guarantees no mutation in that case.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/iainbx/hangman/internal/game"
	"github.com/iainbx/hangman/internal/hangman"
	"github.com/iainbx/hangman/internal/store"
)

// Server bundles the router and the game service.
type Server struct {
	r   *chi.Mux
	svc *hangman.Service
}

// New constructs a Server, installs middleware, and registers routes.
func New(svc *hangman.Service) *Server {
	s := &Server{r: chi.NewRouter(), svc: svc}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // origin-aware CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"hangman","endpoints":["/health","POST /users","POST /game","GET /game/{key}","PUT /game/{key}","PUT /game/{key}/next","DELETE /game/{key}","GET /game/{key}/history","GET /scores/high","GET /users/{name}/games","GET /users/rankings","GET /stats/average-attempts"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		n, err := s.svc.BankSize(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"words": n})
	})

	// Users and games.
	s.r.Post("/users", s.handleCreateUser)
	s.r.Post("/game", s.handleNewGame)
	s.r.Get("/game/{key}", s.handleGetGame)
	s.r.Put("/game/{key}", s.handleMakeMove)
	s.r.Put("/game/{key}/next", s.handleNextLevel)
	s.r.Delete("/game/{key}", s.handleCancelGame)

	// Scores, rankings, history, stats.
	s.mountScores()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ USERS --------------------------------------

// createUserReq is the payload for POST /users.
type createUserReq struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

// handleCreateUser creates a user with a unique name.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.svc.CreateUser(r.Context(), req.UserName, req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, u)
}

// ------------------------------ GAME ---------------------------------------

// newGameReq is the payload for POST /game.
type newGameReq struct {
	UserName        string `json:"user_name"`
	Email           string `json:"email"`
	AttemptsAllowed int    `json:"attempts_allowed"` // 0 → default of 6
}

// handleNewGame creates a new game, creating the user first if unseen.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	v, err := s.svc.NewGame(r.Context(), req.UserName, req.Email, req.AttemptsAllowed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, v)
}

// handleGetGame returns the specified game state.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.GetGame(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

// moveReq is the payload for PUT /game/{key}.
type moveReq struct {
	Guess string `json:"guess"`
}

// handleMakeMove applies a letter or whole-word guess to the game.
func (s *Server) handleMakeMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	v, err := s.svc.MakeMove(r.Context(), chi.URLParam(r, "key"), req.Guess)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

// handleNextLevel starts the game's next level.
func (s *Server) handleNextLevel(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.NextLevel(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

// handleCancelGame deletes a game that has not ended yet; an ended game is
// answered with its final state.
func (s *Server) handleCancelGame(w http.ResponseWriter, r *http.Request) {
	v, deleted, err := s.svc.Cancel(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if deleted {
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "Game deleted."})
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

// ------------------------------ helpers ------------------------------------

// writeJSON writes v with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// writeError maps service errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ve *game.ValidationError
	switch {
	case errors.As(err, &ve):
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Reason})
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	case errors.Is(err, store.ErrConflict):
		http.Error(w, `{"error":"A user with that name already exists!"}`, http.StatusConflict)
	default:
		log.Error().Err(err).Msg("request failed")
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
	}
}

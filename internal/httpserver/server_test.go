package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iainbx/hangman/internal/game"
	"github.com/iainbx/hangman/internal/hangman"
	"github.com/iainbx/hangman/internal/store"
)

func newTestServer(t *testing.T, bank []game.Word) (*Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	if err := mem.SeedWords(context.Background(), bank); err != nil {
		t.Fatalf("seed bank: %v", err)
	}
	return New(hangman.New(mem)), mem
}

// do runs a request against the router and decodes the JSON response into out
// (when out is non-nil).
func do(t *testing.T, s *Server, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec
}

func TestHealthAndRoot(t *testing.T) {
	s, _ := newTestServer(t, []game.Word{{Name: "cat", Clue: "feline"}})

	if rec := do(t, s, http.MethodGet, "/health", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("GET / = %d", rec.Code)
	}
	var words map[string]int
	if rec := do(t, s, http.MethodGet, "/debug/words", nil, &words); rec.Code != http.StatusOK || words["words"] != 1 {
		t.Errorf("GET /debug/words = %d %v", rec.Code, words)
	}
	if rec := do(t, s, http.MethodGet, "/no/such/route", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route = %d", rec.Code)
	}
}

func TestCreateUserEndpoint(t *testing.T) {
	s, _ := newTestServer(t, []game.Word{{Name: "cat", Clue: "feline"}})

	var u hangman.UserView
	rec := do(t, s, http.MethodPost, "/users", map[string]string{"user_name": "alice"}, &u)
	if rec.Code != http.StatusCreated || u.UserName != "alice" {
		t.Fatalf("create user = %d %+v", rec.Code, u)
	}

	if rec := do(t, s, http.MethodPost, "/users", map[string]string{"user_name": "alice"}, nil); rec.Code != http.StatusConflict {
		t.Errorf("duplicate user = %d, want 409", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/users", map[string]string{"user_name": ""}, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("empty name = %d, want 400", rec.Code)
	}
}

func TestGamePlayOverHTTP(t *testing.T) {
	s, _ := newTestServer(t, []game.Word{{Name: "cat", Clue: "feline"}})

	var v hangman.GameView
	rec := do(t, s, http.MethodPost, "/game",
		map[string]any{"user_name": "bob", "attempts_allowed": 3}, &v)
	if rec.Code != http.StatusCreated {
		t.Fatalf("new game = %d: %s", rec.Code, rec.Body.String())
	}
	if v.GuessedWord != "___" || v.Clue != "feline" || v.AttemptsRemaining != 3 {
		t.Fatalf("unexpected new-game view: %+v", v)
	}

	// Fetch it back.
	if rec := do(t, s, http.MethodGet, "/game/"+v.Key, nil, &v); rec.Code != http.StatusOK {
		t.Fatalf("get game = %d", rec.Code)
	}

	// Wrong letter costs an attempt.
	do(t, s, http.MethodPut, "/game/"+v.Key, map[string]string{"guess": "x"}, &v)
	if v.AttemptsRemaining != 2 || v.Message != "You chose poorly!" {
		t.Errorf("after wrong guess: %+v", v)
	}

	// Correct letters reveal the mask.
	do(t, s, http.MethodPut, "/game/"+v.Key, map[string]string{"guess": "c"}, &v)
	if v.GuessedWord != "c__" || v.Message != "You chose well!" {
		t.Errorf("after correct guess: %+v", v)
	}

	// Validation failures are 400s.
	if rec := do(t, s, http.MethodPut, "/game/"+v.Key, map[string]string{"guess": "c"}, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate guess = %d, want 400", rec.Code)
	}
	if rec := do(t, s, http.MethodPut, "/game/"+v.Key, map[string]string{"guess": "zz"}, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad guess length = %d, want 400", rec.Code)
	}

	// Win the level with the whole word.
	do(t, s, http.MethodPut, "/game/"+v.Key, map[string]string{"guess": "cat"}, &v)
	if !v.LevelComplete || v.Score != 2 {
		t.Errorf("after winning guess: %+v", v)
	}

	// Bank is exhausted for bob, but next level still starts (repeat allowed).
	do(t, s, http.MethodPut, "/game/"+v.Key+"/next", nil, &v)
	if v.LevelComplete || v.AttemptsRemaining != 3 {
		t.Errorf("after next level: %+v", v)
	}

	// History covers both levels.
	var h hangman.HistoryView
	if rec := do(t, s, http.MethodGet, "/game/"+v.Key+"/history", nil, &h); rec.Code != http.StatusOK {
		t.Fatalf("history = %d", rec.Code)
	}
	if len(h.Moves) != 3 || h.Moves[2].Guess != "cat" {
		t.Errorf("history moves: %+v", h.Moves)
	}

	// Unknown game key → 404.
	if rec := do(t, s, http.MethodGet, "/game/does-not-exist", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown game = %d, want 404", rec.Code)
	}
}

func TestGameOverFlowOverHTTP(t *testing.T) {
	s, _ := newTestServer(t, []game.Word{{Name: "cat", Clue: "feline"}})

	var v hangman.GameView
	do(t, s, http.MethodPost, "/game", map[string]any{"user_name": "carol", "attempts_allowed": 1}, &v)

	do(t, s, http.MethodPut, "/game/"+v.Key, map[string]string{"guess": "z"}, &v)
	if !v.GameOver || v.GuessedWord != "cat" {
		t.Fatalf("after losing guess: %+v", v)
	}
	if v.Message != "Game Over! You scored 0." {
		t.Errorf("message = %q", v.Message)
	}

	// Moves against a finished game are informational 200s.
	rec := do(t, s, http.MethodPut, "/game/"+v.Key, map[string]string{"guess": "a"}, &v)
	if rec.Code != http.StatusOK || v.Message != "Game already over!" {
		t.Errorf("move on finished game = %d %q", rec.Code, v.Message)
	}

	// So is cancelling it; the game survives.
	rec = do(t, s, http.MethodDelete, "/game/"+v.Key, nil, &v)
	if rec.Code != http.StatusOK || v.Message != "Game completed. Cannot delete." {
		t.Errorf("cancel finished game = %d %q", rec.Code, v.Message)
	}

	// High scores now list the finished game.
	var scores []store.ScoreRow
	if rec := do(t, s, http.MethodGet, "/scores/high", nil, &scores); rec.Code != http.StatusOK {
		t.Fatalf("high scores = %d", rec.Code)
	}
	if len(scores) != 1 || scores[0].UserName != "carol" {
		t.Errorf("high scores: %+v", scores)
	}

	// Rankings include carol's finished game.
	var ranks []store.RankRow
	do(t, s, http.MethodGet, "/users/rankings", nil, &ranks)
	if len(ranks) != 1 || ranks[0].UserName != "carol" || ranks[0].TotalPlayed != 1 {
		t.Errorf("rankings: %+v", ranks)
	}
}

func TestCancelActiveGameOverHTTP(t *testing.T) {
	s, mem := newTestServer(t, []game.Word{{Name: "cat", Clue: "feline"}})

	var v hangman.GameView
	do(t, s, http.MethodPost, "/game", map[string]any{"user_name": "dana", "attempts_allowed": 3}, &v)

	var msg map[string]string
	rec := do(t, s, http.MethodDelete, "/game/"+v.Key, nil, &msg)
	if rec.Code != http.StatusOK || msg["message"] != "Game deleted." {
		t.Fatalf("cancel = %d %v", rec.Code, msg)
	}
	if _, err := mem.GameByKey(context.Background(), v.Key); err == nil {
		t.Error("game still present after cancel")
	}
}

func TestUserGamesEndpoint(t *testing.T) {
	s, _ := newTestServer(t, []game.Word{{Name: "cat", Clue: "feline"}, {Name: "dog", Clue: "canine"}})

	var v hangman.GameView
	do(t, s, http.MethodPost, "/game", map[string]any{"user_name": "eve", "attempts_allowed": 3}, &v)

	var views []hangman.GameView
	rec := do(t, s, http.MethodGet, "/users/eve/games", nil, &views)
	if rec.Code != http.StatusOK || len(views) != 1 {
		t.Fatalf("user games = %d %+v", rec.Code, views)
	}

	rec = do(t, s, http.MethodGet, "/users/eve/games?completed=true", nil, &views)
	if rec.Code != http.StatusOK || len(views) != 0 {
		t.Errorf("completed games = %d %+v", rec.Code, views)
	}

	if rec := do(t, s, http.MethodGet, "/users/eve/games?completed=banana", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad completed flag = %d, want 400", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/users/nobody/games", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown user = %d, want 404", rec.Code)
	}
}

func TestAverageAttemptsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, []game.Word{{Name: "cat", Clue: "feline"}})

	var stats map[string]float64
	do(t, s, http.MethodPost, "/game", map[string]any{"user_name": "fay", "attempts_allowed": 4}, &hangman.GameView{})
	rec := do(t, s, http.MethodGet, "/stats/average-attempts", nil, &stats)
	if rec.Code != http.StatusOK || stats["average_attempts_remaining"] != 4 {
		t.Errorf("average attempts = %d %v", rec.Code, stats)
	}
}

func TestHighScoresLimitValidation(t *testing.T) {
	s, _ := newTestServer(t, []game.Word{{Name: "cat", Clue: "feline"}})
	if rec := do(t, s, http.MethodGet, "/scores/high?limit=zero", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d, want 400", rec.Code)
	}
}

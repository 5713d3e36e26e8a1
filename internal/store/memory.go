// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// A lightweight persistence layer for tests and for running the server
// without durability.
//
// Characteristics:
//   - Entities are kept in maps guarded by an RWMutex (concurrent reads
//     allowed, writes exclusive).
//   - Save/Update copy entities in and out, so callers can keep mutating
//     their own structs without aliasing stored state.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/iainbx/hangman/internal/game"
)

// Memory is a map-based Store implementation.
type Memory struct {
	mu         sync.RWMutex
	nextUserID int64
	nextWordID int64
	nextLevel  int64
	users      map[int64]game.User
	words      []game.Word
	games      map[string]game.Game
	levels     map[string][]game.Level // keyed by game key, ordered by level number
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{
		users:  make(map[int64]game.User),
		games:  make(map[string]game.Game),
		levels: make(map[string][]game.Level),
	}
}

func (m *Memory) Close() error { return nil }

// ------------------------------- users -------------------------------------

func (m *Memory) CreateUser(ctx context.Context, u *game.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Name, u.Name) {
			return ErrConflict
		}
	}
	m.nextUserID++
	u.ID = m.nextUserID
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UserByName(ctx context.Context, name string) (*game.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Name == name {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UserByID(ctx context.Context, id int64) (*game.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		out := u
		return &out, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateUser(ctx context.Context, u *game.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UsersWithEmail(ctx context.Context) ([]game.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []game.User
	for _, u := range m.users {
		if u.Email != "" {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ------------------------------- words -------------------------------------

func (m *Memory) SeedWords(ctx context.Context, bank []game.Word) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.words) > 0 {
		return nil
	}
	for _, w := range bank {
		m.nextWordID++
		w.ID = m.nextWordID
		m.words = append(m.words, w)
	}
	return nil
}

func (m *Memory) Words(ctx context.Context) ([]game.Word, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]game.Word, len(m.words))
	copy(out, m.words)
	return out, nil
}

func (m *Memory) WordByID(ctx context.Context, id int64) (*game.Word, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.words {
		if w.ID == id {
			out := w
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UsedWordIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	used := make(map[int64]bool)
	for key, g := range m.games {
		if g.UserID != userID {
			continue
		}
		for _, l := range m.levels[key] {
			used[l.WordID] = true
		}
	}
	return used, nil
}

// ------------------------------- games -------------------------------------

func (m *Memory) CreateGame(ctx context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.Key] = *g
	return nil
}

func (m *Memory) GameByKey(ctx context.Context, key string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[key]; ok {
		out := g
		return &out, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateGame(ctx context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[g.Key]; !ok {
		return ErrNotFound
	}
	m.games[g.Key] = *g
	return nil
}

func (m *Memory) DeleteGame(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, key)
	delete(m.levels, key)
	return nil
}

func (m *Memory) GamesByUser(ctx context.Context, userID int64, completed bool) ([]game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []game.Game
	for _, g := range m.games {
		if g.UserID == userID && g.GameOver == completed {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) OpenGameKeys(ctx context.Context, userID int64) ([]string, error) {
	games, err := m.GamesByUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(games))
	for _, g := range games {
		keys = append(keys, g.Key)
	}
	return keys, nil
}

// ------------------------------- levels ------------------------------------

func (m *Memory) CreateLevel(ctx context.Context, l *game.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextLevel++
	l.ID = m.nextLevel
	m.levels[l.GameKey] = append(m.levels[l.GameKey], copyLevel(*l))
	return nil
}

func (m *Memory) UpdateLevel(ctx context.Context, l *game.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	levels := m.levels[l.GameKey]
	for i := range levels {
		if levels[i].ID == l.ID {
			levels[i] = copyLevel(*l)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) CurrentLevel(ctx context.Context, gameKey string) (*game.Level, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	levels := m.levels[gameKey]
	if len(levels) == 0 {
		return nil, ErrNotFound
	}
	out := copyLevel(levels[len(levels)-1])
	return &out, nil
}

func (m *Memory) LevelsByGame(ctx context.Context, gameKey string) ([]game.Level, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	levels := m.levels[gameKey]
	out := make([]game.Level, 0, len(levels))
	for _, l := range levels {
		out = append(out, copyLevel(l))
	}
	return out, nil
}

// copyLevel deep-copies a level so the guesses slice is never shared.
func copyLevel(l game.Level) game.Level {
	guesses := make([]string, len(l.Guesses))
	copy(guesses, l.Guesses)
	l.Guesses = guesses
	return l
}

// ----------------------------- aggregates ----------------------------------

func (m *Memory) HighScores(ctx context.Context, limit int) ([]ScoreRow, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ScoreRow
	for _, g := range m.games {
		if !g.GameOver {
			continue
		}
		u := m.users[g.UserID]
		out = append(out, ScoreRow{UserName: u.Name, Date: g.Date, Score: g.Score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Date > out[j].Date
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Rankings(ctx context.Context) ([]RankRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []RankRow
	for _, u := range m.users {
		out = append(out, RankRow{UserName: u.Name, TotalScore: u.TotalScore,
			TotalPlayed: u.TotalPlayed, AverageScore: u.AverageScore})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		if out[i].TotalPlayed != out[j].TotalPlayed {
			return out[i].TotalPlayed < out[j].TotalPlayed
		}
		return out[i].UserName < out[j].UserName
	})
	return out, nil
}

func (m *Memory) AverageAttemptsRemaining(ctx context.Context) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum, n int
	for key, g := range m.games {
		if g.GameOver {
			continue
		}
		for _, l := range m.levels[key] {
			if !l.Complete {
				sum += l.AttemptsRemaining
				n++
			}
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

// internal/hangman/service.go
//
// Game service: the operations the request-handling layer exposes.
// Responsibilities:
//   - New game / get game / make move / next level / cancel.
//   - Lazy user creation on first game, explicit user creation.
//   - Word selection for new levels (unused-for-user policy).
//   - High scores, per-user game lists, rankings, game history.
//   - Idempotent word-bank seeding at startup.
//
// Each operation is one synchronous unit of work: fetch entities, run the
// pure state machines in internal/game, persist the results. Illegal-state
// requests (move on a finished game, cancel on a finished game) answer with
// an informational view of the final state instead of an error.

package hangman

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/iainbx/hangman/internal/game"
	"github.com/iainbx/hangman/internal/store"
	"github.com/iainbx/hangman/internal/words"
)

// Service wires the game core to its persistence collaborator.
type Service struct {
	store store.Store
}

// New constructs a Service over the given store.
func New(st store.Store) *Service {
	return &Service{store: st}
}

// Seed loads the word-bank source and seeds the store with it.
// Runs once before serving; a populated bank is left untouched.
func (s *Service) Seed(ctx context.Context) error {
	bank, err := words.LoadSource()
	if err != nil {
		return err
	}
	if err := s.store.SeedWords(ctx, bank); err != nil {
		return fmt.Errorf("seed word bank: %w", err)
	}
	return nil
}

// CreateUser creates a user with a unique name.
// Returns store.ErrConflict when the name is taken.
func (s *Service) CreateUser(ctx context.Context, name, email string) (*UserView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &game.ValidationError{Reason: "User name is required!"}
	}
	u := &game.User{Name: name, Email: email}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	log.Info().Str("user", u.Name).Msg("user created")
	return &UserView{UserName: u.Name, Email: u.Email}, nil
}

// NewGame creates a game for the named user, creating the user first if the
// name is unseen. attemptsAllowed of 0 falls back to the default of 6.
func (s *Service) NewGame(ctx context.Context, userName, email string, attemptsAllowed int) (*GameView, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, &game.ValidationError{Reason: "User name is required!"}
	}
	if attemptsAllowed == 0 {
		attemptsAllowed = game.DefaultAttempts
	}

	u, err := s.store.UserByName(ctx, userName)
	if errors.Is(err, store.ErrNotFound) {
		u = &game.User{Name: userName, Email: email}
		err = s.store.CreateUser(ctx, u)
	}
	if err != nil {
		return nil, err
	}

	g, err := game.NewGame(u.ID, attemptsAllowed)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateGame(ctx, g); err != nil {
		return nil, err
	}
	if _, err := s.newLevel(ctx, g, 1); err != nil {
		return nil, err
	}

	log.Info().Str("game", g.Key).Str("user", u.Name).Int("attempts", attemptsAllowed).Msg("game created")
	return s.view(ctx, g, fmt.Sprintf("Make your move, %s!", u.Name))
}

// GetGame returns the state of the given game.
func (s *Service) GetGame(ctx context.Context, key string) (*GameView, error) {
	g, err := s.store.GameByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if g.GameOver {
		return s.view(ctx, g, fmt.Sprintf("You scored %d.", g.Score))
	}
	level, err := s.store.CurrentLevel(ctx, g.Key)
	if err != nil {
		return nil, err
	}
	if level.Complete {
		return s.view(ctx, g, "Level complete.")
	}
	u, err := s.store.UserByID(ctx, g.UserID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, g, fmt.Sprintf("Make your move, %s!", u.Name))
}

// MakeMove applies a guess (single letter or whole word) to the game's
// current level. Moves on a finished game or a completed level answer with
// an informational view and mutate nothing.
func (s *Service) MakeMove(ctx context.Context, key, guess string) (*GameView, error) {
	g, err := s.store.GameByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if g.GameOver {
		return s.view(ctx, g, "Game already over!")
	}
	level, err := s.store.CurrentLevel(ctx, g.Key)
	if err != nil {
		return nil, err
	}
	if level.Complete {
		return s.view(ctx, g, "Level already complete, get the next level!")
	}
	word, err := s.store.WordByID(ctx, level.WordID)
	if err != nil {
		return nil, err
	}

	guess = game.Normalize(guess)
	if err := level.ApplyGuess(word.Name, guess); err != nil {
		return nil, err
	}
	if err := s.store.UpdateLevel(ctx, level); err != nil {
		return nil, err
	}

	if level.Complete {
		u, err := s.store.UserByID(ctx, g.UserID)
		if err != nil {
			return nil, err
		}
		ended := g.ApplyLevelOutcome(level, u)
		if err := s.store.UpdateGame(ctx, g); err != nil {
			return nil, err
		}
		if ended {
			if err := s.store.UpdateUser(ctx, u); err != nil {
				return nil, err
			}
			log.Info().Str("game", g.Key).Str("user", u.Name).Int("score", g.Score).Msg("game over")
			return s.view(ctx, g, fmt.Sprintf("Game Over! You scored %d.", g.Score))
		}
		return s.view(ctx, g, "Level complete, get the next level.")
	}

	if strings.Contains(word.Name, guess) {
		return s.view(ctx, g, "You chose well!")
	}
	return s.view(ctx, g, "You chose poorly!")
}

// NextLevel starts the game's next level with a fresh word.
// Rejected (informationally) while the game is over or the current level is
// still being played.
func (s *Service) NextLevel(ctx context.Context, key string) (*GameView, error) {
	g, err := s.store.GameByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if g.GameOver {
		return s.view(ctx, g, "Game already over!")
	}
	level, err := s.store.CurrentLevel(ctx, g.Key)
	if err != nil {
		return nil, err
	}
	if !level.Complete {
		return s.view(ctx, g, "Current level is not complete!")
	}

	if _, err := s.newLevel(ctx, g, level.Number+1); err != nil {
		return nil, err
	}
	u, err := s.store.UserByID(ctx, g.UserID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, g, fmt.Sprintf("Make your move, %s!", u.Name))
}

// Cancel deletes a game and all of its levels, unless it already ended:
// a finished game is kept and answered with an informational view.
// Returns (nil, true, nil) on deletion.
func (s *Service) Cancel(ctx context.Context, key string) (*GameView, bool, error) {
	g, err := s.store.GameByKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if g.GameOver {
		v, err := s.view(ctx, g, "Game completed. Cannot delete.")
		return v, false, err
	}
	if err := s.store.DeleteGame(ctx, g.Key); err != nil {
		return nil, false, err
	}
	log.Info().Str("game", g.Key).Msg("game cancelled")
	return nil, true, nil
}

// HighScores returns the top completed games, score descending.
func (s *Service) HighScores(ctx context.Context, limit int) ([]store.ScoreRow, error) {
	return s.store.HighScores(ctx, limit)
}

// Rankings returns all users ordered by total score descending; ties are
// broken by fewer games played.
func (s *Service) Rankings(ctx context.Context) ([]store.RankRow, error) {
	return s.store.Rankings(ctx)
}

// UserGames returns views of the named user's games, filtered on completion.
func (s *Service) UserGames(ctx context.Context, userName string, completed bool) ([]GameView, error) {
	u, err := s.store.UserByName(ctx, userName)
	if err != nil {
		return nil, err
	}
	list, err := s.store.GamesByUser(ctx, u.ID, completed)
	if err != nil {
		return nil, err
	}
	out := make([]GameView, 0, len(list))
	for i := range list {
		v, err := s.view(ctx, &list[i], "")
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// History returns the move-by-move history of a game: for every guess, the
// masked word as it looked at that point and whether the guess hit.
func (s *Service) History(ctx context.Context, key string) (*HistoryView, error) {
	g, err := s.store.GameByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	u, err := s.store.UserByID(ctx, g.UserID)
	if err != nil {
		return nil, err
	}
	levels, err := s.store.LevelsByGame(ctx, g.Key)
	if err != nil {
		return nil, err
	}

	hv := &HistoryView{Key: g.Key, UserName: u.Name, Date: g.Date, Score: g.Score, Moves: []Move{}}
	for _, level := range levels {
		word, err := s.store.WordByID(ctx, level.WordID)
		if err != nil {
			return nil, err
		}
		var soFar []string
		for _, guess := range level.Guesses {
			soFar = append(soFar, guess)
			hv.Moves = append(hv.Moves, Move{
				Level:       level.Number,
				Guess:       guess,
				GuessedWord: game.Masked(word.Name, soFar),
				Result:      strings.Contains(word.Name, guess),
			})
		}
	}
	return hv, nil
}

// AverageAttemptsRemaining recomputes the average attempts remaining across
// active levels. Non-authoritative; derived on demand.
func (s *Service) AverageAttemptsRemaining(ctx context.Context) (float64, error) {
	return s.store.AverageAttemptsRemaining(ctx)
}

// BankSize reports how many words the bank holds (diagnostics).
func (s *Service) BankSize(ctx context.Context) (int, error) {
	bank, err := s.store.Words(ctx)
	if err != nil {
		return 0, err
	}
	return len(bank), nil
}

// newLevel selects a word the user has not played where possible and
// creates level n of the game.
func (s *Service) newLevel(ctx context.Context, g *game.Game, n int) (*game.Level, error) {
	bank, err := s.store.Words(ctx)
	if err != nil {
		return nil, err
	}
	used, err := s.store.UsedWordIDs(ctx, g.UserID)
	if err != nil {
		return nil, err
	}
	w, err := words.Pick(bank, used)
	if err != nil {
		return nil, err
	}
	level := g.NewLevel(n, w.ID)
	if err := s.store.CreateLevel(ctx, level); err != nil {
		return nil, err
	}
	return level, nil
}

// view assembles the outbound game state from the game, its owner and its
// current level. The mask gives way to the full word once the game is over.
func (s *Service) view(ctx context.Context, g *game.Game, message string) (*GameView, error) {
	u, err := s.store.UserByID(ctx, g.UserID)
	if err != nil {
		return nil, err
	}
	level, err := s.store.CurrentLevel(ctx, g.Key)
	if err != nil {
		return nil, err
	}
	word, err := s.store.WordByID(ctx, level.WordID)
	if err != nil {
		return nil, err
	}

	guessedWord := game.Masked(word.Name, level.Guesses)
	if g.GameOver {
		// Let the player see the word.
		guessedWord = word.Name
	}
	return &GameView{
		Key:               g.Key,
		UserName:          u.Name,
		GameOver:          g.GameOver,
		Message:           message,
		GuessedWord:       guessedWord,
		Guesses:           level.Guesses,
		Clue:              word.Clue,
		Date:              g.Date,
		Score:             g.Score,
		LevelComplete:     level.Complete,
		AttemptsRemaining: level.AttemptsRemaining,
	}, nil
}

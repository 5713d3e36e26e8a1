// internal/game/types.go
//
// Entity definitions for the hangman game core.
// Defines:
//   - Word:  a bank entry (the word to guess plus its clue).
//   - Level: one word-guessing round within a game.
//   - Game:  a played session owning a sequence of levels and a score.
//   - User:  per-player aggregate totals used for rankings.

package game

// Word is a word-bank entry. Immutable once loaded; identity by storage key.
type Word struct {
	ID   int64  // Storage key assigned by the store.
	Name string // The word to be guessed (always lowercase).
	Clue string // A clue for the word to be guessed.
}

// Level holds the state of a single word-guessing round.
type Level struct {
	ID                int64    // Storage key.
	GameKey           string   // Owning game reference.
	Number            int      // Level number within the game, 1-based.
	WordID            int64    // Word bank reference.
	Guesses           []string // Guesses made so far, in order (lowercased).
	AttemptsRemaining int      // Failed guesses left before the level is lost.
	Complete          bool     // True once the level is over (won or lost).
	Won               bool     // True if the level was completed with a win.
}

// Game holds the state of a single played session.
type Game struct {
	Key             string // URL-safe opaque identifier.
	UserID          int64  // Owning user reference.
	AttemptsAllowed int    // Failed guesses allowed per level, 1..9.
	GameOver        bool   // True once a level is lost.
	Score           int    // Accrued score across won levels.
	Date            string // Game started date, YYYY-MM-DD.
}

// User identifies a player by unique name and carries ranking totals.
// Totals are mutated only at the game-over transition.
type User struct {
	ID           int64
	Name         string // Unique player name.
	Email        string // Optional, used for reminder notifications.
	TotalScore   int
	TotalPlayed  int
	AverageScore int // round(TotalScore / TotalPlayed).
}

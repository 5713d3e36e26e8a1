// internal/game/engine.go
//
// Core state machines for a hangman session.
// Responsibilities:
//   - Create new games (attempts allowed 1..9) and levels.
//   - Validate and apply guesses: single letter or whole word, duplicate
//     rejection, attempts countdown, win/loss transitions.
//   - Render the masked word (underscores for unrevealed letters).
//   - Fold a completed level back into the game: per-level score accrual on a
//     win, game over plus user-total updates on a loss.
//
// Notes:
//   - Everything here is synchronous, in-memory computation over entities the
//     caller has already fetched. Persistence is a collaborator concern.
//   - Words and guesses are lowercased at the boundary; comparisons assume it.

package game

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// MinAttempts and MaxAttempts bound the failed guesses allowed per level.
	MinAttempts = 1
	MaxAttempts = 9

	// DefaultAttempts is used when a new-game request omits the setting.
	DefaultAttempts = 6

	// DateLayout is the storage format for game start dates.
	DateLayout = "2006-01-02"
)

// NewGame constructs a new game for the user. The first level is created
// separately once a word has been selected (see NewLevel).
func NewGame(userID int64, attemptsAllowed int) (*Game, error) {
	if attemptsAllowed < MinAttempts || attemptsAllowed > MaxAttempts {
		return nil, validationf(fmt.Sprintf("Attempts allowed must be between %d and %d!", MinAttempts, MaxAttempts))
	}
	return &Game{
		Key:             genKey(),
		UserID:          userID,
		AttemptsAllowed: attemptsAllowed,
		Date:            time.Now().UTC().Format(DateLayout),
	}, nil
}

// NewLevel constructs level number n of the game around the given word,
// seeded with the game's full attempts allowance.
func (g *Game) NewLevel(n int, wordID int64) *Level {
	return &Level{
		GameKey:           g.Key,
		Number:            n,
		WordID:            wordID,
		Guesses:           []string{},
		AttemptsRemaining: g.AttemptsAllowed,
	}
}

// ApplyGuess validates and applies a guess against the level's word,
// mutating the level state.
//
// Validation rules (no mutation on failure):
//   - Level must not be complete.
//   - Guess must be alphabetic, and either one letter or exactly the word's length.
//   - Guess must not repeat an earlier guess this level.
//
// State transitions:
//   - Exact whole-word match → complete, won.
//   - Letter guess that leaves no underscores in the mask → complete, won.
//   - Letter not in the word, or wrong whole-word guess → attempts decrement.
//   - Attempts exhausted without a win → complete, lost.
func (l *Level) ApplyGuess(word, guess string) error {
	if l.Complete {
		return ErrLevelComplete
	}
	guess = Normalize(guess)
	if guess == "" || !isAlpha(guess) {
		return validationf("Guess should be at least 1 letter!")
	}
	if len(guess) != 1 && len(guess) != len(word) {
		return validationf("Guess 1 letter or the whole word!")
	}
	if l.HasGuess(guess) {
		return validationf("You already made this guess!")
	}

	l.Guesses = append(l.Guesses, guess)

	switch {
	case guess == word:
		// Whole word guessed, level complete.
		l.Complete, l.Won = true, true
	case len(guess) == 1:
		if !strings.Contains(Masked(word, l.Guesses), "_") {
			// Final letter revealed, level complete.
			l.Complete, l.Won = true, true
		} else if !strings.Contains(word, guess) {
			l.AttemptsRemaining--
		}
	default:
		// Failed whole-word guess.
		l.AttemptsRemaining--
	}

	if l.AttemptsRemaining < 1 && !l.Won {
		l.Complete, l.Won = true, false
	}
	return nil
}

// HasGuess reports whether the guess was already made this level.
func (l *Level) HasGuess(guess string) bool {
	for _, g := range l.Guesses {
		if g == guess {
			return true
		}
	}
	return false
}

// ApplyLevelOutcome folds a completed level back into the game and, on a
// terminal transition, into the user's ranking totals.
// Returns true if the game ended.
func (g *Game) ApplyLevelOutcome(l *Level, u *User) bool {
	if !l.Complete {
		return false
	}
	if l.Won {
		// Partial credit: attempts remaining at the moment of winning.
		g.Score += l.AttemptsRemaining
		return false
	}
	g.GameOver = true
	u.RecordResult(g.Score)
	return true
}

// RecordResult updates the user's ranking totals with a finished game's score.
func (u *User) RecordResult(score int) {
	u.TotalPlayed++
	u.TotalScore += score
	u.AverageScore = int(math.Round(float64(u.TotalScore) / float64(u.TotalPlayed)))
}

// Masked renders the word with guessed letters revealed and underscores for
// the rest. An exact whole-word guess reveals the entire word directly,
// bypassing per-letter history.
func Masked(word string, guesses []string) string {
	masked := []byte(strings.Repeat("_", len(word)))
	for _, g := range guesses {
		if g == word {
			return word
		}
		if len(g) != 1 {
			// Failed whole-word guess, reveals nothing.
			continue
		}
		for i := 0; i < len(word); i++ {
			if word[i] == g[0] {
				masked[i] = word[i]
			}
		}
	}
	return string(masked)
}

// Normalize lowercases and trims a word or guess at the boundary.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// isAlpha checks that a string consists only of lowercase a–z.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// genKey creates a 22-char URL-safe, crypto-random game identifier (no padding).
func genKey() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}

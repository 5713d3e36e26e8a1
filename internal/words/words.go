// internal/words/words.go
//
// Word bank source and selection policy.
//
// Responsibilities:
//   - Load the (word, clue) bank from an environment-provided JSON file or
//     fall back to the embedded default bank.
//   - Pick a uniformly random word, or one the user has not played yet.
//
// The bank itself lives in the store after the idempotent seed step at
// startup; this package only supplies the source list and the selection
// logic over already-fetched bank entries.
//
// Environment variables:
//   WORD_BANK_FILE=/path/to/words.json
//
// Constraints:
//   • Words are normalized to lowercase.
//   • Entries without a name or clue are dropped.

package words

import (
	"crypto/rand"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/iainbx/hangman/internal/game"
)

//go:embed words.json
var embeddedBank []byte

// sourceEntry is the on-disk shape of a bank entry.
type sourceEntry struct {
	Name string `json:"name"`
	Clue string `json:"clue"`
}

// LoadSource returns the bank entries to seed the store with.
// If WORD_BANK_FILE is set it is read instead of the embedded default.
func LoadSource() ([]game.Word, error) {
	data := embeddedBank
	if path := os.Getenv("WORD_BANK_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read word bank %s: %w", path, err)
		}
		data = b
	}

	var entries []sourceEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse word bank: %w", err)
	}

	var out []game.Word
	for _, e := range entries {
		name := game.Normalize(e.Name)
		if name == "" || e.Clue == "" {
			continue
		}
		out = append(out, game.Word{Name: name, Clue: e.Clue})
	}
	if len(out) == 0 {
		return nil, errors.New("words: bank is empty")
	}
	return out, nil
}

// Random returns a uniformly random word from the bank.
func Random(bank []game.Word) (game.Word, error) {
	if len(bank) == 0 {
		return game.Word{}, errors.New("words: bank is empty")
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(bank))))
	if err != nil {
		return game.Word{}, err
	}
	return bank[nBig.Int64()], nil
}

// Pick returns a random word the user has not played yet, given the set of
// word IDs already used across the user's games. Once the used set covers the
// whole bank, repeats are allowed and any word may be returned.
//
// Selection samples the candidate set directly (bank minus used) rather than
// resampling until an unused word turns up, so a single draw always suffices.
func Pick(bank []game.Word, usedIDs map[int64]bool) (game.Word, error) {
	candidates := make([]game.Word, 0, len(bank))
	for _, w := range bank {
		if !usedIDs[w.ID] {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		// Every word played already: fall back to the full bank.
		return Random(bank)
	}
	return Random(candidates)
}

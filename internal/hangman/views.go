// internal/hangman/views.go
//
// Outbound representations of game state. Field names follow the public API
// contract (snake_case JSON).

package hangman

// UserView is returned when a user is created.
type UserView struct {
	UserName string `json:"user_name"`
	Email    string `json:"email,omitempty"`
}

// GameView is the canonical outbound game state: the current level's masked
// word, guesses and attempts, plus game-wide score and status. Once a game is
// over the full word is shown instead of the mask.
type GameView struct {
	Key               string   `json:"key"`
	UserName          string   `json:"user_name"`
	GameOver          bool     `json:"game_over"`
	Message           string   `json:"message"`
	GuessedWord       string   `json:"guessed_word"`
	Guesses           []string `json:"guesses"`
	Clue              string   `json:"clue"`
	Date              string   `json:"date"`
	Score             int      `json:"score"`
	LevelComplete     bool     `json:"level_complete"`
	AttemptsRemaining int      `json:"attempts_remaining"`
}

// Move is one entry of a game's guess history: the guess, the masked word as
// it looked right after that guess, and whether the guess hit the word.
type Move struct {
	Level       int    `json:"level"`
	Guess       string `json:"guess"`
	GuessedWord string `json:"guessed_word"`
	Result      bool   `json:"result"`
}

// HistoryView is the full move-by-move history of a game.
type HistoryView struct {
	Key      string `json:"key"`
	UserName string `json:"user_name"`
	Date     string `json:"date"`
	Score    int    `json:"score"`
	Moves    []Move `json:"moves"`
}

// internal/store/store.go
//
// Persistence interface for the hangman server.
// Implementations: sqlite.go (durable, sqlx over mattn/go-sqlite3) and
// memory.go (ephemeral, used in tests).
//
// The store only offers get/put/delete-by-key plus the simple equality and
// ordering queries the game needs; all game logic lives in internal/game.

package store

import (
	"context"
	"errors"

	"github.com/iainbx/hangman/internal/game"
)

// Sentinel errors shared by all implementations.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique constraint would be violated
	// (duplicate user name).
	ErrConflict = errors.New("already exists")
)

// ScoreRow is one high-score entry: a completed game and its owner.
type ScoreRow struct {
	UserName string `db:"user_name" json:"user_name"`
	Date     string `db:"date" json:"date"`
	Score    int    `db:"score" json:"score"`
}

// RankRow is one user-ranking entry, ordered by total score.
type RankRow struct {
	UserName     string `db:"user_name" json:"user_name"`
	TotalScore   int    `db:"total_score" json:"total_score"`
	TotalPlayed  int    `db:"total_played" json:"total_played"`
	AverageScore int    `db:"average_score" json:"average_score"`
}

// Store defines the persistence operations the game server consumes.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, u *game.User) error
	UserByName(ctx context.Context, name string) (*game.User, error)
	UserByID(ctx context.Context, id int64) (*game.User, error)
	UpdateUser(ctx context.Context, u *game.User) error
	UsersWithEmail(ctx context.Context) ([]game.User, error)

	// Word bank.
	SeedWords(ctx context.Context, bank []game.Word) error
	Words(ctx context.Context) ([]game.Word, error)
	WordByID(ctx context.Context, id int64) (*game.Word, error)
	UsedWordIDs(ctx context.Context, userID int64) (map[int64]bool, error)

	// Games.
	CreateGame(ctx context.Context, g *game.Game) error
	GameByKey(ctx context.Context, key string) (*game.Game, error)
	UpdateGame(ctx context.Context, g *game.Game) error
	DeleteGame(ctx context.Context, key string) error
	GamesByUser(ctx context.Context, userID int64, completed bool) ([]game.Game, error)
	OpenGameKeys(ctx context.Context, userID int64) ([]string, error)

	// Levels.
	CreateLevel(ctx context.Context, l *game.Level) error
	UpdateLevel(ctx context.Context, l *game.Level) error
	CurrentLevel(ctx context.Context, gameKey string) (*game.Level, error)
	LevelsByGame(ctx context.Context, gameKey string) ([]game.Level, error)

	// Aggregates.
	HighScores(ctx context.Context, limit int) ([]ScoreRow, error)
	Rankings(ctx context.Context) ([]RankRow, error)
	AverageAttemptsRemaining(ctx context.Context) (float64, error)

	Close() error
}

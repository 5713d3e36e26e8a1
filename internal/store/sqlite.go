// internal/store/sqlite.go
//
// SQLite implementation of the Store interface.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying the schema migrations (idempotent CREATE IF NOT EXISTS).
//   - Seeding the word bank once (insert only while the table is empty).
//   - Row <-> entity conversion; guesses are stored as a JSON array.
//
// SQLite has a single writer, so the pool is capped at one open connection;
// WAL keeps readers unblocked.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/iainbx/hangman/internal/game"
)

// SQLite is a Store backed by a SQLite database file (or :memory:).
type SQLite struct {
	db *sqlx.DB
}

// OpenSQLite opens (and creates if missing) the database, applies pragmas
// and runs migrations. The parent directory of a relative DSN is created.
func OpenSQLite(dsn string) (*SQLite, error) {
	if dsn != ":memory:" {
		dir := filepath.Dir(dsn)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	db, err := sqlx.Connect("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error { return s.db.Close() }

// migrate applies the schema. Every statement is idempotent.
func (s *SQLite) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			total_score INTEGER NOT NULL DEFAULT 0,
			total_played INTEGER NOT NULL DEFAULT 0,
			average_score INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS words (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			clue TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			key TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			attempts_allowed INTEGER NOT NULL,
			game_over INTEGER NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0,
			date TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS levels (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_key TEXT NOT NULL,
			level_number INTEGER NOT NULL,
			word_id INTEGER NOT NULL,
			guesses TEXT NOT NULL DEFAULT '[]',
			attempts_remaining INTEGER NOT NULL,
			complete INTEGER NOT NULL DEFAULT 0,
			won INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (game_key) REFERENCES games(key),
			FOREIGN KEY (word_id) REFERENCES words(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_user ON games(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_games_over_score ON games(game_over, score)`,
		`CREATE INDEX IF NOT EXISTS idx_levels_game ON levels(game_key, level_number)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ------------------------------- rows --------------------------------------

type userRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	TotalScore   int    `db:"total_score"`
	TotalPlayed  int    `db:"total_played"`
	AverageScore int    `db:"average_score"`
}

func (r userRow) entity() *game.User {
	return &game.User{ID: r.ID, Name: r.Name, Email: r.Email,
		TotalScore: r.TotalScore, TotalPlayed: r.TotalPlayed, AverageScore: r.AverageScore}
}

type gameRow struct {
	Key             string `db:"key"`
	UserID          int64  `db:"user_id"`
	AttemptsAllowed int    `db:"attempts_allowed"`
	GameOver        bool   `db:"game_over"`
	Score           int    `db:"score"`
	Date            string `db:"date"`
}

func (r gameRow) entity() *game.Game {
	return &game.Game{Key: r.Key, UserID: r.UserID, AttemptsAllowed: r.AttemptsAllowed,
		GameOver: r.GameOver, Score: r.Score, Date: r.Date}
}

type levelRow struct {
	ID                int64  `db:"id"`
	GameKey           string `db:"game_key"`
	Number            int    `db:"level_number"`
	WordID            int64  `db:"word_id"`
	Guesses           string `db:"guesses"`
	AttemptsRemaining int    `db:"attempts_remaining"`
	Complete          bool   `db:"complete"`
	Won               bool   `db:"won"`
}

func (r levelRow) entity() (*game.Level, error) {
	var guesses []string
	if err := json.Unmarshal([]byte(r.Guesses), &guesses); err != nil {
		return nil, fmt.Errorf("decode guesses for level %d: %w", r.ID, err)
	}
	if guesses == nil {
		guesses = []string{}
	}
	return &game.Level{ID: r.ID, GameKey: r.GameKey, Number: r.Number, WordID: r.WordID,
		Guesses: guesses, AttemptsRemaining: r.AttemptsRemaining, Complete: r.Complete, Won: r.Won}, nil
}

func encodeGuesses(guesses []string) (string, error) {
	if guesses == nil {
		guesses = []string{}
	}
	b, err := json.Marshal(guesses)
	if err != nil {
		return "", fmt.Errorf("encode guesses: %w", err)
	}
	return string(b), nil
}

// ------------------------------- users -------------------------------------

// CreateUser inserts a new user; ErrConflict if the name is taken.
func (s *SQLite) CreateUser(ctx context.Context, u *game.User) error {
	var exists int
	err := s.db.GetContext(ctx, &exists, `SELECT 1 FROM users WHERE lower(name)=lower(?)`, u.Name)
	if err == nil {
		return ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check user name: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, total_score, total_played, average_score) VALUES (?,?,?,?,?)`,
		u.Name, u.Email, u.TotalScore, u.TotalPlayed, u.AverageScore)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *SQLite) UserByName(ctx context.Context, name string) (*game.User, error) {
	var r userRow
	err := s.db.GetContext(ctx, &r, `SELECT * FROM users WHERE name=?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", name, err)
	}
	return r.entity(), nil
}

func (s *SQLite) UserByID(ctx context.Context, id int64) (*game.User, error) {
	var r userRow
	err := s.db.GetContext(ctx, &r, `SELECT * FROM users WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return r.entity(), nil
}

func (s *SQLite) UpdateUser(ctx context.Context, u *game.User) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET email=?, total_score=?, total_played=?, average_score=? WHERE id=?`,
		u.Email, u.TotalScore, u.TotalPlayed, u.AverageScore, u.ID)
	if err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return nil
}

func (s *SQLite) UsersWithEmail(ctx context.Context) ([]game.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM users WHERE email != '' ORDER BY name`); err != nil {
		return nil, fmt.Errorf("users with email: %w", err)
	}
	out := make([]game.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r.entity())
	}
	return out, nil
}

// ------------------------------- words -------------------------------------

// SeedWords populates the word bank if, and only if, it is still empty.
// Safe to run on every startup.
func (s *SQLite) SeedWords(ctx context.Context, bank []game.Word) error {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM words`); err != nil {
		return fmt.Errorf("count words: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, w := range bank {
		if _, err := tx.ExecContext(ctx, `INSERT INTO words (name, clue) VALUES (?,?)`, w.Name, w.Clue); err != nil {
			return fmt.Errorf("seed word %q: %w", w.Name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Words(ctx context.Context) ([]game.Word, error) {
	var out []game.Word
	err := s.db.SelectContext(ctx, &out, `SELECT id, name, clue FROM words ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	return out, nil
}

func (s *SQLite) WordByID(ctx context.Context, id int64) (*game.Word, error) {
	var w game.Word
	err := s.db.GetContext(ctx, &w, `SELECT id, name, clue FROM words WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get word %d: %w", id, err)
	}
	return &w, nil
}

// UsedWordIDs returns the word IDs used by any level of any of the user's games.
func (s *SQLite) UsedWordIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT l.word_id FROM levels l JOIN games g ON l.game_key = g.key WHERE g.user_id=?`, userID)
	if err != nil {
		return nil, fmt.Errorf("used word ids: %w", err)
	}
	used := make(map[int64]bool, len(ids))
	for _, id := range ids {
		used[id] = true
	}
	return used, nil
}

// ------------------------------- games -------------------------------------

func (s *SQLite) CreateGame(ctx context.Context, g *game.Game) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (key, user_id, attempts_allowed, game_over, score, date) VALUES (?,?,?,?,?,?)`,
		g.Key, g.UserID, g.AttemptsAllowed, g.GameOver, g.Score, g.Date)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (s *SQLite) GameByKey(ctx context.Context, key string) (*game.Game, error) {
	var r gameRow
	err := s.db.GetContext(ctx, &r, `SELECT * FROM games WHERE key=?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", key, err)
	}
	return r.entity(), nil
}

func (s *SQLite) UpdateGame(ctx context.Context, g *game.Game) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE games SET game_over=?, score=? WHERE key=?`, g.GameOver, g.Score, g.Key)
	if err != nil {
		return fmt.Errorf("update game %s: %w", g.Key, err)
	}
	return nil
}

// DeleteGame removes a game and all of its levels.
func (s *SQLite) DeleteGame(ctx context.Context, key string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM levels WHERE game_key=?`, key); err != nil {
		return fmt.Errorf("delete levels of %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM games WHERE key=?`, key); err != nil {
		return fmt.Errorf("delete game %s: %w", key, err)
	}
	return tx.Commit()
}

func (s *SQLite) GamesByUser(ctx context.Context, userID int64, completed bool) ([]game.Game, error) {
	var rows []gameRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM games WHERE user_id=? AND game_over=? ORDER BY date DESC, key`, userID, completed)
	if err != nil {
		return nil, fmt.Errorf("games by user %d: %w", userID, err)
	}
	out := make([]game.Game, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r.entity())
	}
	return out, nil
}

func (s *SQLite) OpenGameKeys(ctx context.Context, userID int64) ([]string, error) {
	var keys []string
	err := s.db.SelectContext(ctx, &keys,
		`SELECT key FROM games WHERE user_id=? AND game_over=0 ORDER BY date DESC, key`, userID)
	if err != nil {
		return nil, fmt.Errorf("open games of user %d: %w", userID, err)
	}
	return keys, nil
}

// ------------------------------- levels ------------------------------------

func (s *SQLite) CreateLevel(ctx context.Context, l *game.Level) error {
	guesses, err := encodeGuesses(l.Guesses)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO levels (game_key, level_number, word_id, guesses, attempts_remaining, complete, won)
		 VALUES (?,?,?,?,?,?,?)`,
		l.GameKey, l.Number, l.WordID, guesses, l.AttemptsRemaining, l.Complete, l.Won)
	if err != nil {
		return fmt.Errorf("insert level: %w", err)
	}
	l.ID, err = res.LastInsertId()
	return err
}

func (s *SQLite) UpdateLevel(ctx context.Context, l *game.Level) error {
	guesses, err := encodeGuesses(l.Guesses)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE levels SET guesses=?, attempts_remaining=?, complete=?, won=? WHERE id=?`,
		guesses, l.AttemptsRemaining, l.Complete, l.Won, l.ID)
	if err != nil {
		return fmt.Errorf("update level %d: %w", l.ID, err)
	}
	return nil
}

// CurrentLevel returns the game's latest level.
func (s *SQLite) CurrentLevel(ctx context.Context, gameKey string) (*game.Level, error) {
	var r levelRow
	err := s.db.GetContext(ctx, &r,
		`SELECT * FROM levels WHERE game_key=? ORDER BY level_number DESC LIMIT 1`, gameKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("current level of %s: %w", gameKey, err)
	}
	return r.entity()
}

func (s *SQLite) LevelsByGame(ctx context.Context, gameKey string) ([]game.Level, error) {
	var rows []levelRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM levels WHERE game_key=? ORDER BY level_number`, gameKey)
	if err != nil {
		return nil, fmt.Errorf("levels of %s: %w", gameKey, err)
	}
	out := make([]game.Level, 0, len(rows))
	for _, r := range rows {
		l, err := r.entity()
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, nil
}

// ----------------------------- aggregates ----------------------------------

// HighScores returns completed games ordered by score descending.
func (s *SQLite) HighScores(ctx context.Context, limit int) ([]ScoreRow, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []ScoreRow
	err := s.db.SelectContext(ctx, &out,
		`SELECT u.name AS user_name, g.date, g.score
		 FROM games g JOIN users u ON g.user_id = u.id
		 WHERE g.game_over=1
		 ORDER BY g.score DESC, g.date DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("high scores: %w", err)
	}
	return out, nil
}

// Rankings orders users by total score descending; ties go to the player
// with fewer games played.
func (s *SQLite) Rankings(ctx context.Context) ([]RankRow, error) {
	var out []RankRow
	err := s.db.SelectContext(ctx, &out,
		`SELECT name AS user_name, total_score, total_played, average_score
		 FROM users
		 ORDER BY total_score DESC, total_played ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("rankings: %w", err)
	}
	return out, nil
}

// AverageAttemptsRemaining recomputes the non-authoritative statistic over
// the active levels of games still in play.
func (s *SQLite) AverageAttemptsRemaining(ctx context.Context) (float64, error) {
	var avg float64
	err := s.db.GetContext(ctx, &avg,
		`SELECT COALESCE(AVG(l.attempts_remaining), 0)
		 FROM levels l JOIN games g ON l.game_key = g.key
		 WHERE g.game_over=0 AND l.complete=0`)
	if err != nil {
		return 0, fmt.Errorf("average attempts remaining: %w", err)
	}
	return avg, nil
}

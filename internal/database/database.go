// Package database persists users, finished games, and daily-challenge
// results in PostgreSQL.
//
// The pool is held in the package-level DB. Callers treat a nil DB as
// "persistence disabled" and skip writes, so the server runs without a
// database for local play.
package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// DB is the shared connection pool. Nil until Connect succeeds.
var DB *pgxpool.Pool

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username taken")
)

// Connect opens the pool, verifies connectivity, and applies the schema.
func Connect(ctx context.Context, url string) error {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return err
	}
	DB = pool
	if err := migrate(ctx); err != nil {
		pool.Close()
		DB = nil
		return err
	}
	logrus.Info("database connected")
	return nil
}

// Close releases the pool. Safe to call when Connect never ran.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}

// migrate creates the tables if they do not exist yet. The schema is small
// enough that idempotent DDL beats a migration framework.
func migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users (lower(username))`,
		`CREATE TABLE IF NOT EXISTS games (
			id UUID PRIMARY KEY,
			user_id UUID,
			seed TEXT NOT NULL,
			daily_date TEXT,
			score BIGINT NOT NULL,
			moves INT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS daily_results (
			user_id UUID NOT NULL REFERENCES users(id),
			date TEXT NOT NULL,
			score BIGINT NOT NULL,
			won BOOLEAN NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_results_date ON daily_results (date, score DESC)`,
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id UUID PRIMARY KEY REFERENCES users(id),
			played INT NOT NULL DEFAULT 0,
			wins INT NOT NULL DEFAULT 0,
			best_score BIGINT NOT NULL DEFAULT 0,
			streak INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := DB.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// User is a registered account. Guests never get a row here.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser inserts a new account and returns it. A duplicate username
// (case-insensitive) yields ErrUsernameTaken.
func CreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	u := &User{ID: uuid.New(), Username: username}
	err := DB.QueryRow(ctx,
		`INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3)
		 RETURNING created_at`,
		u.ID, u.Username, passwordHash,
	).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	u.PasswordHash = passwordHash
	return u, nil
}

// GetUserByUsername looks an account up case-insensitively.
func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := DB.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at
		 FROM users WHERE lower(username) = lower($1)`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GameResult is the durable record of one finished deal.
type GameResult struct {
	GameID     uuid.UUID
	UserID     uuid.UUID
	Seed       string
	DailyDate  string // empty for free play
	Score      int64
	Moves      int
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// UpsertGameResult stores the final state of a game. Rewritten on conflict
// so a redeal-then-finish of the same session keeps the latest outcome.
func UpsertGameResult(ctx context.Context, r GameResult) error {
	var dailyDate any
	if r.DailyDate != "" {
		dailyDate = r.DailyDate
	}
	_, err := DB.Exec(ctx,
		`INSERT INTO games (id, user_id, seed, daily_date, score, moves, status, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			seed = EXCLUDED.seed,
			daily_date = EXCLUDED.daily_date,
			score = EXCLUDED.score,
			moves = EXCLUDED.moves,
			status = EXCLUDED.status,
			finished_at = EXCLUDED.finished_at`,
		r.GameID, r.UserID, r.Seed, dailyDate, r.Score, r.Moves, r.Status, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		logrus.WithError(err).WithField("game_id", r.GameID).Error("upsert game result failed")
	}
	return err
}

// RecordDailyResult stores a registered user's daily outcome and bumps their
// aggregate stats in one transaction. Replaying the same day keeps the best
// score and does not bump the counters twice.
func RecordDailyResult(ctx context.Context, userID uuid.UUID, date string, score int64, won bool) error {
	tx, err := DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var already bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM daily_results WHERE user_id = $1 AND date = $2)`,
		userID, date,
	).Scan(&already)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO daily_results (user_id, date, score, won)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, date) DO UPDATE SET
			score = GREATEST(daily_results.score, EXCLUDED.score),
			won = daily_results.won OR EXCLUDED.won`,
		userID, date, score, won,
	)
	if err != nil {
		return err
	}

	// Counters move only on the first result of the day.
	if !already {
		winInc := 0
		if won {
			winInc = 1
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO user_stats (user_id, played, wins, best_score, streak)
			 VALUES ($1, 1, $2, $3, $2)
			 ON CONFLICT (user_id) DO UPDATE SET
				played = user_stats.played + 1,
				wins = user_stats.wins + $2,
				best_score = GREATEST(user_stats.best_score, $3),
				streak = CASE WHEN $4 THEN user_stats.streak + 1 ELSE 0 END,
				updated_at = now()`,
			userID, winInc, score, won,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Stats is a user's aggregate daily-challenge record.
type Stats struct {
	Played    int
	Wins      int
	BestScore int64
	Streak    int
}

// GetUserStats returns the aggregate stats, zeroes when none recorded yet.
func GetUserStats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	var s Stats
	err := DB.QueryRow(ctx,
		`SELECT played, wins, best_score, streak FROM user_stats WHERE user_id = $1`,
		userID,
	).Scan(&s.Played, &s.Wins, &s.BestScore, &s.Streak)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stats{}, nil
	}
	if err != nil {
		return Stats{}, err
	}
	return s, nil
}

// DailyScore is one leaderboard row.
type DailyScore struct {
	Username string `json:"username"`
	Score    int64  `json:"score"`
	Won      bool   `json:"won"`
}

// TopDailyScores returns the best results for a date, highest score first.
func TopDailyScores(ctx context.Context, date string, limit int) ([]DailyScore, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := DB.Query(ctx,
		`SELECT u.username, d.score, d.won
		 FROM daily_results d JOIN users u ON u.id = d.user_id
		 WHERE d.date = $1
		 ORDER BY d.score DESC, d.created_at ASC
		 LIMIT $2`,
		date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DailyScore, 0, limit)
	for rows.Next() {
		var r DailyScore
		if err := rows.Scan(&r.Username, &r.Score, &r.Won); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Package cache journals applied game actions to Redis and shares the daily
// seed between server instances.
//
// The client lives in the package-level Rdb. Callers treat a nil Rdb as
// "journal disabled" and skip publishing, mirroring how the database pool is
// handled.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Rdb is the shared Redis client. Nil until Connect succeeds.
var Rdb *redis.Client

// journalTTL bounds how long a finished game's action list survives.
const journalTTL = 24 * time.Hour

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr, password string) error {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return err
	}
	Rdb = client
	logrus.Info("redis connected")
	return nil
}

// Close releases the client. Safe to call when Connect never ran.
func Close() {
	if Rdb != nil {
		_ = Rdb.Close()
		Rdb = nil
	}
}

// ActionRecord is one journaled action. Records for a game form an ordered
// list keyed by the game id; Seq is the 1-based position in that list.
type ActionRecord struct {
	GameID    uuid.UUID      `json:"gameId"`
	Seq       int            `json:"seq"`
	UserID    uuid.UUID      `json:"userId"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	StateHash string         `json:"stateHash"`
	Timestamp int64          `json:"timestamp"` // unix millis
}

func actionsKey(gameID uuid.UUID) string {
	return fmt.Sprintf("game:actions:%s", gameID)
}

// PublishGameAction appends rec to its game's journal and refreshes the
// journal TTL.
func PublishGameAction(ctx context.Context, rec ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := actionsKey(rec.GameID)
	pipe := Rdb.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, journalTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// GameActions returns the journaled records for a game in applied order.
// An unknown game id yields an empty slice.
func GameActions(ctx context.Context, gameID uuid.UUID) ([]ActionRecord, error) {
	raw, err := Rdb.LRange(ctx, actionsKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ActionRecord, 0, len(raw))
	for _, item := range raw {
		var rec ActionRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func dailySeedKey(date string) string {
	return "daily:seed:" + date
}

// EnsureDailySeed stores the seed for a date unless one is already present
// and returns whichever value won. The key expires at expiry so stale days
// clean themselves up.
func EnsureDailySeed(ctx context.Context, date, seed string, expiry time.Time) (string, error) {
	ok, err := Rdb.SetNX(ctx, dailySeedKey(date), seed, time.Until(expiry)).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return seed, nil
	}
	return Rdb.Get(ctx, dailySeedKey(date)).Result()
}

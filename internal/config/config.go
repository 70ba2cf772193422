// Package config collects every knob the server reads from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the runtime configuration. Zero values for DatabaseURL and
// RedisAddr disable persistence and the action journal respectively; the
// server runs fine with both absent.
type Config struct {
	Addr          string // listen address, e.g. ":8080"
	DatabaseURL   string // postgres DSN, empty = persistence disabled
	RedisAddr     string // redis host:port, empty = journal disabled
	RedisPassword string
	JWTSecret     string        // HMAC key for auth tokens
	TokenTTL      time.Duration // lifetime of issued tokens
	DailySalt     string        // server-side salt for the daily seed
	ClientOrigin  string        // allowed CORS/websocket origin
	LogLevel      string        // logrus level name
	SessionTTL    time.Duration // idle time before a game session is pruned
	PruneEvery    time.Duration // how often the session pruner runs
}

// Load reads the configuration from the environment, applying defaults
// suitable for local development.
func Load() Config {
	return Config{
		Addr:          ":" + envStr("PORT", "8080"),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		RedisAddr:     envStr("REDIS_ADDR", ""),
		RedisPassword: envStr("REDIS_PASSWORD", ""),
		JWTSecret:     envStr("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:      time.Duration(envInt("JWT_EXPIRES_DAYS", 14)) * 24 * time.Hour,
		DailySalt:     envStr("DAILY_SALT", "local_dev_salt"),
		ClientOrigin:  envStr("CLIENT_ORIGIN", "http://localhost:5173"),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		SessionTTL:    envDuration("SESSION_TTL", 30*time.Minute),
		PruneEvery:    envDuration("SESSION_PRUNE_INTERVAL", time.Minute),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

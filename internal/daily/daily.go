// Package daily derives the shared seed for the daily challenge.
//
// Every player who starts a daily game on the same UTC date must receive the
// same deal, so the seed is computed from the date alone plus a server-side
// salt. The salt keeps the seed unpredictable: without it anyone could deal
// tomorrow's board today and practice it.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DateKey returns the canonical YYYY-MM-DD key for t in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns the deterministic daily seed for the date of t.
// The format is "daily-<date>-<hex8>" where hex8 is the first four bytes
// of HMAC-SHA256(salt, date).
func Seed(t time.Time, salt string) string {
	return SeedForDate(DateKey(t), salt)
}

// SeedForDate is Seed for an explicit YYYY-MM-DD key.
func SeedForDate(date, salt string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(date))
	sum := mac.Sum(nil)
	return "daily-" + date + "-" + hex.EncodeToString(sum[:4])
}

// NextMidnightUTC returns the first instant of the next UTC day after t.
// Callers use it to expire anything scoped to the current daily challenge.
func NextMidnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}

// internal/httpserver/routes_daily.go
//
// Daily challenge endpoints: today's shared seed and the per-date
// leaderboard.
package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/AdamPallus/candy-solitaire/internal/cache"
	"github.com/AdamPallus/candy-solitaire/internal/daily"
	"github.com/AdamPallus/candy-solitaire/internal/database"
)

// dailySeedFor returns the challenge date key and seed for the given moment.
// When Redis is up the seed is pinned there so every replica hands out the
// same value even if their salts disagree; otherwise the local derivation is
// used directly.
func (s *Server) dailySeedFor(ctx context.Context, now time.Time) (date, seed string) {
	date = daily.DateKey(now)
	seed = daily.Seed(now, s.cfg.DailySalt)
	if cache.Rdb == nil {
		return date, seed
	}
	pinned, err := cache.EnsureDailySeed(ctx, date, seed, daily.NextMidnightUTC(now))
	if err != nil {
		s.log.WithError(err).Warn("daily seed pin failed, using local derivation")
		return date, seed
	}
	return date, pinned
}

// handleDaily returns today's challenge descriptor.
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	date, seed := s.dailySeedFor(r.Context(), time.Now())
	_ = json.NewEncoder(w).Encode(map[string]string{
		"date": date,
		"seed": seed,
	})
}

// handleDailyLeaderboard returns the top scores for a date (default today).
func (s *Server) handleDailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	if database.DB == nil {
		http.Error(w, `{"error":"leaderboard_disabled"}`, http.StatusServiceUnavailable)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(time.Now())
	}
	top, err := database.TopDailyScores(r.Context(), date, 20)
	if err != nil {
		http.Error(w, `{"error":"leaderboard_read_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"date": date,
		"top":  top,
	})
}

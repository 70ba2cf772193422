// internal/httpserver/routes_auth.go
//
// Identity endpoints. Guests get a signed token with a throwaway id and can
// play immediately; register/login require the database and feed the daily
// leaderboard.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/AdamPallus/candy-solitaire/internal/auth"
	"github.com/AdamPallus/candy-solitaire/internal/database"
)

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userInfo struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Guest    bool      `json:"guest"`
}

type authRes struct {
	Token string   `json:"token"`
	User  userInfo `json:"user"`
}

// handleGuest mints a guest identity and returns its token.
func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	claims := auth.NewGuest()
	s.respondWithToken(w, claims)
}

// handleRegister creates an account, then signs the caller in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if database.DB == nil {
		http.Error(w, `{"error":"accounts_disabled"}`, http.StatusServiceUnavailable)
		return
	}
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	username := auth.NormalizeUsername(body.Username)
	if err := auth.ValidateCredentials(username, body.Password); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		http.Error(w, `{"error":"hash_failed"}`, http.StatusInternalServerError)
		return
	}
	u, err := database.CreateUser(r.Context(), username, hash)
	if err != nil {
		if errors.Is(err, database.ErrUsernameTaken) {
			http.Error(w, `{"error":"username_taken"}`, http.StatusConflict)
			return
		}
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	s.respondWithToken(w, auth.Claims{UserID: u.ID, Username: u.Username})
}

// handleLogin authenticates an existing account.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if database.DB == nil {
		http.Error(w, `{"error":"accounts_disabled"}`, http.StatusServiceUnavailable)
		return
	}
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := database.GetUserByUsername(r.Context(), auth.NormalizeUsername(body.Username))
	if err != nil || !auth.CheckPassword(u.PasswordHash, body.Password) {
		http.Error(w, `{"error":"invalid_credentials"}`, http.StatusUnauthorized)
		return
	}
	s.respondWithToken(w, auth.Claims{UserID: u.ID, Username: u.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w, s.secureCookies())
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleMe echoes the caller's identity plus their daily stats when
// persistence is available.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	me := ctxClaims(r)
	out := map[string]any{
		"id":       me.UserID,
		"username": me.Username,
		"guest":    me.Guest,
	}
	if database.DB != nil && !me.Guest {
		if stats, err := database.GetUserStats(r.Context(), me.UserID); err == nil {
			out["stats"] = map[string]any{
				"played":    stats.Played,
				"wins":      stats.Wins,
				"bestScore": stats.BestScore,
				"streak":    stats.Streak,
			}
		}
	}
	_ = json.NewEncoder(w).Encode(out)
}

// respondWithToken signs claims, sets the cookie, and writes the auth body.
func (s *Server) respondWithToken(w http.ResponseWriter, claims auth.Claims) {
	token, exp, err := auth.SignToken(s.cfg.JWTSecret, claims, s.cfg.TokenTTL)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	auth.SetCookie(w, token, exp, s.secureCookies())
	_ = json.NewEncoder(w).Encode(authRes{
		Token: token,
		User: userInfo{
			ID:       claims.UserID,
			Username: claims.Username,
			Guest:    claims.Guest,
		},
	})
}

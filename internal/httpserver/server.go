// internal/httpserver/server.go
//
// HTTP and websocket wiring for the candy solitaire backend.
// Responsibilities:
//   - Router + middleware (request IDs, panic recovery, JSON, CORS, timeouts).
//   - Auth endpoints: guest tokens, register, login, logout, /v1/me.
//   - Game endpoints: create/fetch/command/journal/delete plus the
//     per-game websocket.
//   - Daily challenge endpoints: shared seed and leaderboard.
//
// Persistence and the action journal degrade gracefully: with no database
// only guest play works, with no Redis the journal endpoint reports itself
// disabled. The rules engine never knows any of this exists.
package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AdamPallus/candy-solitaire/internal/auth"
	"github.com/AdamPallus/candy-solitaire/internal/config"
	"github.com/AdamPallus/candy-solitaire/internal/game"
)

// Server bundles the router, config, session manager, and websocket hubs.
type Server struct {
	r    *chi.Mux
	cfg  config.Config
	mgr  *game.Manager
	hubs *hubRegistry
	log  *logrus.Logger
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, mgr *game.Manager, log *logrus.Logger) *Server {
	s := &Server{
		r:    chi.NewRouter(),
		cfg:  cfg,
		mgr:  mgr,
		hubs: newHubRegistry(),
		log:  log,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(s.requestLogger)
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"candy-solitaire","endpoints":["/health","/v1/auth/*","/v1/games","/v1/daily"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Route("/v1", func(r chi.Router) {
		timeout := chimw.Timeout(15 * time.Second)

		r.Group(func(r chi.Router) {
			r.Use(timeout)
			r.Post("/auth/guest", s.handleGuest)
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)
			r.Post("/auth/logout", s.handleLogout)
			r.With(s.requireAuth).Get("/me", s.handleMe)

			r.Get("/daily", s.handleDaily)
			r.Get("/daily/leaderboard", s.handleDailyLeaderboard)
		})

		r.Route("/games", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Group(func(r chi.Router) {
				r.Use(timeout)
				r.Post("/", s.handleCreateGame)
				r.Get("/{gameID}", s.handleGetGame)
				r.Delete("/{gameID}", s.handleDeleteGame)
				r.Post("/{gameID}/actions", s.handleGameAction)
				r.Get("/{gameID}/journal", s.handleGameJournal)
			})
			// Long-lived connection; must not run under the timeout.
			r.Get("/{gameID}/ws", s.handleWS)
		})
	})

	// JSON 404 for easier debugging.
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Router exposes the internal router (useful for tests and the entrypoint).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": ww.Status(),
			"bytes":  ww.BytesWritten(),
			"took":   time.Since(start).String(),
			"req_id": chimw.GetReqID(r.Context()),
		}).Info("request")
	})
}

// ---------------------------- auth middleware ------------------------------

// ctxUserKey is the context key type for storing auth claims.
type ctxUserKey struct{}

// ctxClaims returns the authenticated identity, or nil.
func ctxClaims(r *http.Request) *auth.Claims {
	c, _ := r.Context().Value(ctxUserKey{}).(*auth.Claims)
	return c
}

// requireAuth enforces a valid token and injects the claims into the
// request context. Guest tokens pass; there is no anonymous access.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := auth.BearerOrCookie(r)
		if tokenStr == "" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, tokenStr)
		if err != nil {
			http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserKey{}, &claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ------------------------------ small util ---------------------------------

// secureCookies reports whether auth cookies need the Secure attribute,
// i.e. when the client is served over HTTPS.
func (s *Server) secureCookies() bool {
	return strings.HasPrefix(s.cfg.ClientOrigin, "https://")
}

// ownerSession loads the session for the URL's gameID and enforces that the
// caller owns it. On failure it writes the error response and returns nil.
func (s *Server) ownerSession(w http.ResponseWriter, r *http.Request) *game.Session {
	id, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return nil
	}
	sess, ok := s.mgr.Get(id)
	if !ok {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return nil
	}
	me := ctxClaims(r)
	if me == nil || me.UserID != sess.OwnerID {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return nil
	}
	return sess
}

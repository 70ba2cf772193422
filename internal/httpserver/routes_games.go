// internal/httpserver/routes_games.go
//
// Game lifecycle and the HTTP command path. Every endpoint here is scoped to
// the session owner; commands sent over HTTP and over the websocket go
// through the same Session.Apply.
package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/AdamPallus/candy-solitaire/internal/cache"
	"github.com/AdamPallus/candy-solitaire/internal/game"
)

type createGameReq struct {
	Seed  string `json:"seed"`
	Daily bool   `json:"daily"`
}

type gameRes struct {
	GameID string         `json:"gameId"`
	State  game.StateView `json:"state"`
}

// handleCreateGame starts a session. A daily game pins the shared seed for
// today; otherwise the client may supply a seed for a custom board.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	me := ctxClaims(r)
	var body createGameReq
	// An empty body means a random deal; only malformed JSON is an error.
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}

	var sess *game.Session
	if body.Daily {
		now := time.Now()
		date, seed := s.dailySeedFor(r.Context(), now)
		sess = s.mgr.CreateDaily(me.UserID, me.Username, me.Guest, date, seed)
	} else {
		sess = s.mgr.Create(me.UserID, me.Username, me.Guest, body.Seed)
	}
	s.hubs.bind(sess)

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(gameRes{GameID: sess.ID.String(), State: sess.View()})
}

// handleGetGame returns the current state snapshot.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess := s.ownerSession(w, r)
	if sess == nil {
		return
	}
	sess.Touch()
	_ = json.NewEncoder(w).Encode(gameRes{GameID: sess.ID.String(), State: sess.View()})
}

// handleGameAction applies one command and returns the outcome. Rejected
// moves are a normal 200 with applied=false; only malformed commands 400.
func (s *Server) handleGameAction(w http.ResponseWriter, r *http.Request) {
	sess := s.ownerSession(w, r)
	if sess == nil {
		return
	}
	var cmd game.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	sess.Touch()
	res, err := sess.Apply(r.Context(), cmd)
	if err != nil {
		if errors.Is(err, game.ErrBadCommand) || errors.Is(err, game.ErrUnknownCommand) {
			// The message may echo client input, so it has to be escaped.
			body, _ := json.Marshal(map[string]string{"error": err.Error()})
			http.Error(w, string(body), http.StatusBadRequest)
			return
		}
		http.Error(w, `{"error":"command_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

// handleGameJournal returns the action journal recorded in Redis.
func (s *Server) handleGameJournal(w http.ResponseWriter, r *http.Request) {
	sess := s.ownerSession(w, r)
	if sess == nil {
		return
	}
	if cache.Rdb == nil {
		http.Error(w, `{"error":"journal_disabled"}`, http.StatusServiceUnavailable)
		return
	}
	actions, err := cache.GameActions(r.Context(), sess.ID)
	if err != nil {
		http.Error(w, `{"error":"journal_read_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"gameId":  sess.ID,
		"actions": actions,
	})
}

// handleDeleteGame abandons a session.
func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	sess := s.ownerSession(w, r)
	if sess == nil {
		return
	}
	s.mgr.Delete(sess.ID)
	s.hubs.drop(sess.ID)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// internal/httpserver/ws.go
//
// Realtime transport. Each session gets one hub; every socket attached to it
// receives the events the session fires. Commands arrive on the same socket
// and run through Session.Apply exactly like the HTTP action endpoint.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AdamPallus/candy-solitaire/internal/game"
)

type wsClient struct {
	send chan []byte
}

// sessionHub fans session events out to the sockets watching one game.
type sessionHub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func (h *sessionHub) broadcast(ev game.GameEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			// Slow consumer; it will resync from a state snapshot.
		}
	}
	h.mu.Unlock()
}

func (h *sessionHub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *sessionHub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// hubRegistry maps live sessions to their hubs.
type hubRegistry struct {
	mu   sync.Mutex
	hubs map[uuid.UUID]*sessionHub
}

func newHubRegistry() *hubRegistry {
	return &hubRegistry{hubs: map[uuid.UUID]*sessionHub{}}
}

// bind returns the session's hub, creating it on first use, and points the
// session's broadcast at it.
func (r *hubRegistry) bind(sess *game.Session) *sessionHub {
	r.mu.Lock()
	h, ok := r.hubs[sess.ID]
	if !ok {
		h = &sessionHub{clients: map[*wsClient]struct{}{}}
		r.hubs[sess.ID] = h
	}
	r.mu.Unlock()

	sess.Mu.Lock()
	sess.BroadcastFn = h.broadcast
	sess.Mu.Unlock()
	return h
}

func (r *hubRegistry) drop(id uuid.UUID) {
	r.mu.Lock()
	delete(r.hubs, id)
	r.mu.Unlock()
}

// sendEvent queues an event for a single socket, dropping it if the socket's
// buffer is full.
func (c *wsClient) sendEvent(ev game.GameEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

// handleWS upgrades the request and runs the read loop until the socket
// closes. Ownership is checked before the upgrade so errors still go out as
// regular JSON responses.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess := s.ownerSession(w, r)
	if sess == nil {
		return
	}
	origin := r.Header.Get("Origin")
	if origin != "" && origin != s.cfg.ClientOrigin {
		http.Error(w, `{"error":"forbidden_origin"}`, http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}

	hub := s.hubs.bind(sess)
	client := &wsClient{send: make(chan []byte, 64)}
	hub.add(client)
	sess.Touch()
	s.log.WithFields(logrus.Fields{"game_id": sess.ID, "user": sess.OwnerName}).Debug("socket attached")

	// First frame is always a full snapshot.
	client.sendEvent(sess.SyncEvent())

	// writer
	go func() {
		ping := time.NewTicker(15 * time.Second)
		defer func() { ping.Stop(); _ = conn.Close(websocket.StatusNormalClosure, "bye") }()
		for {
			select {
			case msg, ok := <-client.send:
				if !ok {
					return
				}
				if conn.Write(r.Context(), websocket.MessageText, msg) != nil {
					return
				}
			case <-ping.C:
				if conn.Ping(r.Context()) != nil {
					return
				}
			}
		}
	}()

	// reader
	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			break
		}
		var cmd game.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			client.sendEvent(game.GameEvent{Type: game.EventError, Error: "invalid_json"})
			continue
		}
		res, err := sess.Apply(r.Context(), cmd)
		if err != nil {
			if errors.Is(err, game.ErrBadCommand) || errors.Is(err, game.ErrUnknownCommand) {
				client.sendEvent(game.GameEvent{Type: game.EventError, Error: err.Error()})
				continue
			}
			break
		}
		if !res.Applied {
			// Refusals are private; watchers only see state changes.
			client.sendEvent(game.GameEvent{
				Type:      game.EventActionRejected,
				Action:    string(cmd.Type),
				Rejection: res.Rejection,
				State:     &res.State,
			})
		}
	}

	hub.remove(client)
	close(client.send)
	s.log.WithFields(logrus.Fields{"game_id": sess.ID}).Debug("socket detached")
}

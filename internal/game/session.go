// internal/game/session.go
package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AdamPallus/candy-solitaire/engine"
	"github.com/AdamPallus/candy-solitaire/internal/cache"
	"github.com/AdamPallus/candy-solitaire/internal/database"
)

// GameEventType represents the type of a game event relayed to clients.
type GameEventType string

// Constants defining the GameEvent types used for WebSocket communication.
const (
	EventActionApplied  GameEventType = "action_applied"  // A command changed the state.
	EventActionRejected GameEventType = "action_rejected" // A command was refused; sent only to the submitter.
	EventSyncState      GameEventType = "sync_state"      // Full snapshot for a (re)connecting client.
	EventGameEnd        GameEventType = "game_end"        // The deal reached a terminal status.
	EventError          GameEventType = "error"           // Malformed command; sent only to the submitter.
)

// GameEvent is the standard structure for broadcasting state changes.
type GameEvent struct {
	Type      GameEventType `json:"type"`
	Seq       int           `json:"seq"`                 // journal index of the triggering action
	Action    string        `json:"action,omitempty"`    // command type that triggered the event
	Cleared   []uint8       `json:"cleared,omitempty"`   // tableau ids removed by a play
	Rejection string        `json:"rejection,omitempty"` // why an action_rejected command was refused
	Error     string        `json:"error,omitempty"`     // parse or validation failure detail
	State     *StateView    `json:"state,omitempty"`
}

// CommandType enumerates the actions a client may submit against a session.
type CommandType string

const (
	CmdPlay    CommandType = "play"
	CmdDraw    CommandType = "draw"
	CmdHold    CommandType = "hold"
	CmdWrap    CommandType = "wrap"
	CmdPowerup CommandType = "powerup"
	CmdUndo    CommandType = "undo"
	CmdRedeal  CommandType = "redeal"
)

// Command is one client action. Fields beyond Type are per-command:
// play needs Target, wrap needs Enabled, powerup needs Kind, redeal may
// carry an explicit Seed.
type Command struct {
	Type    CommandType `json:"type"`
	Target  *uint8      `json:"target,omitempty"`
	Enabled *bool       `json:"enabled,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Seed    string      `json:"seed,omitempty"`
}

// Result reports what a command did. Rejection is set only when a play was
// refused by the rules; malformed commands surface as errors instead.
type Result struct {
	Applied   bool      `json:"applied"`
	Rejection string    `json:"rejection,omitempty"`
	Cleared   []uint8   `json:"cleared,omitempty"`
	State     StateView `json:"state"`
}

var (
	ErrBadCommand     = errors.New("malformed command")
	ErrUnknownCommand = errors.New("unknown command type")
)

// Session binds one engine game to its owner plus the plumbing around it:
// the broadcast callback, the action journal, and result persistence.
type Session struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	OwnerName string
	Guest     bool
	DailyDate string // YYYY-MM-DD when this is a daily-challenge run

	Mu   sync.Mutex // protects game and the counters below
	game *engine.Game

	moves       int // applied commands since the last deal
	actionIndex int // journal sequence, never reset
	startedAt   time.Time
	lastActive  time.Time
	finalized   bool // terminal result already persisted

	// BroadcastFn sends an event to every connected client. Nil when no
	// websocket is attached; REST-only play works without one.
	BroadcastFn func(ev GameEvent)
}

// NewSession deals a fresh game owned by the given user.
func NewSession(ownerID uuid.UUID, ownerName string, guest bool, seed string) *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		OwnerName:  ownerName,
		Guest:      guest,
		game:       engine.New(seed),
		startedAt:  now,
		lastActive: now,
	}
}

// Apply executes one command under the session lock. The returned error is
// non-nil only for malformed commands; rule rejections come back in the
// Result with Applied == false and the state unchanged.
func (s *Session) Apply(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	var (
		applied   bool
		rejection string
		cleared   []uint8
		payload   = make(map[string]interface{})
	)

	switch cmd.Type {
	case CmdPlay:
		if cmd.Target == nil {
			return Result{}, fmt.Errorf("%w: play requires a target", ErrBadCommand)
		}
		clears, _ := s.game.State.ProposePlay(*cmd.Target)
		if rej := s.game.Play(*cmd.Target); rej == engine.RejectNone {
			applied = true
			cleared = clears.IDs()
			payload["target"] = int(*cmd.Target)
			payload["cleared"] = cleared
		} else {
			rejection = rej.String()
		}

	case CmdDraw:
		applied = s.game.Draw()

	case CmdHold:
		applied = s.game.Hold()

	case CmdWrap:
		if cmd.Enabled == nil {
			return Result{}, fmt.Errorf("%w: wrap requires enabled", ErrBadCommand)
		}
		applied = s.game.ToggleWrap(*cmd.Enabled)
		payload["enabled"] = *cmd.Enabled

	case CmdPowerup:
		kind, ok := engine.ParsePowerupKind(cmd.Kind)
		if !ok {
			return Result{}, fmt.Errorf("%w: unknown powerup kind %s", ErrBadCommand, cmd.Kind)
		}
		applied = s.game.SelectPowerup(kind)
		payload["kind"] = cmd.Kind

	case CmdUndo:
		applied = s.game.Undo()

	case CmdRedeal:
		seed := cmd.Seed
		if s.DailyDate != "" {
			// A daily run is always the day's board; a custom seed would
			// bypass the shared deal.
			seed = s.game.State.Seed
		} else if seed == "" {
			seed = uuid.NewString()
		}
		s.game.Redeal(seed)
		s.moves = 0
		s.finalized = false
		applied = true
		payload["seed"] = seed

	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Type)
	}

	s.lastActive = time.Now()
	if applied {
		if cmd.Type != CmdRedeal {
			s.moves++
		}
		s.logAction(string(cmd.Type), payload)
		view := s.buildView()
		s.fireEvent(GameEvent{
			Type:    EventActionApplied,
			Seq:     s.actionIndex,
			Action:  string(cmd.Type),
			Cleared: cleared,
			State:   &view,
		})
		if s.game.State.IsTerminal() {
			if !s.finalized {
				s.finalized = true
				s.logAction(string(EventGameEnd), map[string]interface{}{
					"status": s.game.State.Status.String(),
					"score":  int(s.game.State.Score),
				})
				s.fireEvent(GameEvent{
					Type:  EventGameEnd,
					Seq:   s.actionIndex,
					State: &view,
				})
				s.persistFinalGameState()
			}
		} else {
			// Undo can reopen a finished deal; the next finish must
			// settle again.
			s.finalized = false
		}
	}

	return Result{
		Applied:   applied,
		Rejection: rejection,
		Cleared:   cleared,
		State:     s.buildView(),
	}, nil
}

// SyncEvent returns the full-state event sent to a client on connect.
func (s *Session) SyncEvent() GameEvent {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	view := s.buildView()
	return GameEvent{Type: EventSyncState, Seq: s.actionIndex, State: &view}
}

// LastActive reports when the session last applied a command.
func (s *Session) LastActive() time.Time {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.lastActive
}

// Touch refreshes the idle clock, e.g. when a websocket attaches.
func (s *Session) Touch() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.lastActive = time.Now()
}

// fireEvent relays an event through the broadcast callback.
// Assumes lock is held by caller.
func (s *Session) fireEvent(ev GameEvent) {
	if s.BroadcastFn != nil {
		s.BroadcastFn(ev)
	}
}

// logAction queues the applied command for the action journal.
// Assumes lock is held by caller.
func (s *Session) logAction(actionType string, payload map[string]interface{}) {
	s.actionIndex++
	record := cache.ActionRecord{
		GameID:    s.ID,
		Seq:       s.actionIndex,
		UserID:    s.OwnerID,
		Type:      actionType,
		Payload:   payload,
		StateHash: fmt.Sprintf("%016x", s.game.State.Hash()),
		Timestamp: time.Now().UnixMilli(),
	}

	// Asynchronously publish so a slow Redis never stalls play.
	go func(rec cache.ActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cache.Rdb == nil {
			return
		}
		if err := cache.PublishGameAction(ctx, rec); err != nil {
			log.Printf("Error: Game %s: failed publishing action %d (%q) to redis: %v", s.ID, rec.Seq, rec.Type, err)
		}
	}(record)
}

// persistFinalGameState stores the terminal result and, for daily runs by
// registered users, the leaderboard row. Assumes lock is held by caller.
func (s *Session) persistFinalGameState() {
	if database.DB == nil {
		return
	}
	st := &s.game.State
	result := database.GameResult{
		GameID:     s.ID,
		UserID:     s.OwnerID,
		Seed:       st.Seed,
		DailyDate:  s.DailyDate,
		Score:      int64(st.Score),
		Moves:      s.moves,
		Status:     st.Status.String(),
		StartedAt:  s.startedAt,
		FinishedAt: time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.UpsertGameResult(ctx, result); err != nil {
			log.Printf("Error: Game %s: failed persisting result: %v", result.GameID, err)
		}
	}()
	if s.DailyDate != "" && !s.Guest {
		won := st.Status == engine.StatusWon
		userID, date, score := s.OwnerID, s.DailyDate, int64(st.Score)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := database.RecordDailyResult(ctx, userID, date, score, won); err != nil {
				log.Printf("Error: Game %s: failed recording daily result: %v", result.GameID, err)
			}
		}()
	}
}

// internal/game/manager.go
package game

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns the live sessions, keyed by game id. Sessions that sit idle
// past the TTL are pruned; finished games persist through the database, not
// here.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	idleTTL  time.Duration
}

// NewManager returns an empty registry with the given idle TTL.
func NewManager(idleTTL time.Duration) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		idleTTL:  idleTTL,
	}
}

// Create starts a session for the owner. An empty seed gets a random one.
func (m *Manager) Create(ownerID uuid.UUID, ownerName string, guest bool, seed string) *Session {
	if seed == "" {
		seed = uuid.NewString()
	}
	s := NewSession(ownerID, ownerName, guest, seed)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// CreateDaily starts a daily-challenge session pinned to the shared seed
// for date.
func (m *Manager) CreateDaily(ownerID uuid.UUID, ownerName string, guest bool, date, seed string) *Session {
	s := NewSession(ownerID, ownerName, guest, seed)
	s.DailyDate = date
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the session for id.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete removes the session for id, if present.
func (m *Manager) Delete(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len reports how many sessions are live.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PruneIdle drops sessions with no activity since now minus the TTL and
// returns how many were removed.
func (m *Manager) PruneIdle(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	pruned := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastActive()) > m.idleTTL {
			delete(m.sessions, id)
			pruned++
		}
	}
	return pruned
}

// StartPruner runs PruneIdle on the interval until ctx is done.
func (m *Manager) StartPruner(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := m.PruneIdle(now); n > 0 {
					log.Printf("pruned %d idle game session(s)", n)
				}
			}
		}
	}()
}

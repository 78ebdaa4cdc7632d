// internal/game/match_store.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// MatchStore is the in-memory registry of live matches. There is no
// ambient global: callers hold a store and thread it through explicitly.
type MatchStore struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*Match
}

func NewMatchStore() *MatchStore {
	return &MatchStore{
		matches: make(map[uuid.UUID]*Match),
	}
}

func (s *MatchStore) AddMatch(m *Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
}

func (s *MatchStore) GetMatch(id uuid.UUID) (*Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, exists := s.matches[id]
	return m, exists
}

func (s *MatchStore) DeleteMatch(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
}

// GetMatchByRoomID returns the match spawned by the given room, or nil.
func (s *MatchStore) GetMatchByRoomID(roomID uuid.UUID) *Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if m.RoomID == roomID {
			return m
		}
	}
	return nil
}

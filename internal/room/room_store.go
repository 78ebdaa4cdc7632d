// internal/room/room_store.go
package room

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// RoomStore manages active ephemeral rooms in memory with thread-safe
// add, retrieve and delete.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

// NewRoomStore initializes and returns an empty RoomStore.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[uuid.UUID]*Room),
	}
}

// AddRoom adds a new room to the store. Configure the room's OnEmpty
// callback before adding it so the store cleans up when the last user
// leaves.
func (s *RoomStore) AddRoom(room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.ID]; exists {
		log.Printf("RoomStore WARNING: Attempted to add room %s which already exists.", room.ID)
		return
	}
	s.rooms[room.ID] = room
	log.Printf("RoomStore: Added room %s.", room.ID)
}

// DeleteRoom removes a room by ID, typically via the OnEmpty callback.
func (s *RoomStore) DeleteRoom(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[id]; exists {
		delete(s.rooms, id)
		log.Printf("RoomStore: Deleted room %s.", id)
	} else {
		log.Printf("RoomStore WARNING: Attempted to delete non-existent room %s.", id)
	}
}

// GetRoom retrieves a room by ID.
func (s *RoomStore) GetRoom(id uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// GetRooms returns a copy of the map of all active rooms, for listing.
func (s *RoomStore) GetRooms() map[uuid.UUID]*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	roomsCopy := make(map[uuid.UUID]*Room, len(s.rooms))
	for k, v := range s.rooms {
		roomsCopy[k] = v
	}
	return roomsCopy
}

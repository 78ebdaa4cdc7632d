// internal/handlers/room.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/wordrush-io/wordrush/internal/auth"
	"github.com/wordrush-io/wordrush/internal/room"
)

var validRoomTypes = map[string]bool{
	"private": true,
	"public":  true,
}

// CreateRoomHandler creates an in-memory room with the caller as host.
// No DB writes; the OnEmpty callback removes the room when abandoned.
func CreateRoomHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie := r.Header.Get("Cookie")
		if !strings.Contains(cookie, auth.CookieName+"=") {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
		token := extractCookieToken(cookie, auth.CookieName)

		userIDStr, err := auth.AuthenticateJWT(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			http.Error(w, "invalid user id format in token", http.StatusBadRequest)
			return
		}

		rm := room.NewRoomWithDefaults(userID)

		if err := json.NewDecoder(r.Body).Decode(rm); err != nil && err.Error() != "EOF" {
			http.Error(w, "bad room request payload", http.StatusBadRequest)
			return
		}

		if rm.Type != "" && !validRoomTypes[rm.Type] {
			http.Error(w, "invalid room type", http.StatusBadRequest)
			return
		}

		rm.OnEmpty = func(roomID uuid.UUID) {
			s.RoomStore.DeleteRoom(roomID)
		}

		s.RoomStore.AddRoom(rm)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rm)
	}
}

// ListRoomsHandler returns the in-memory room store, for browsing and
// debugging.
func ListRoomsHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie := r.Header.Get("Cookie")
		if !strings.Contains(cookie, auth.CookieName+"=") {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
		token := extractCookieToken(cookie, auth.CookieName)
		if _, err := auth.AuthenticateJWT(token); err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		rooms := s.RoomStore.GetRooms()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rooms)
	}
}

// internal/handlers/room_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/wordrush-io/wordrush/internal/auth"
	"github.com/wordrush-io/wordrush/internal/room"
)

// TestRoomCreate checks that /room/create builds an ephemeral room in memory.
func TestRoomCreate(t *testing.T) {
	auth.Init() // ephemeral keys, no DB needed
	s := NewServer(nil, nil)

	uHost := uuid.New()

	token, _ := auth.CreateJWT(uHost.String())
	body := `{"type":"private"}`
	req := httptest.NewRequest("POST", "/room/create", bytes.NewBuffer([]byte(body)))
	req.Header.Set("Cookie", auth.CookieName+"="+token)
	w := httptest.NewRecorder()

	h := CreateRoomHandler(s)
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var newRoom room.Room
	if err := json.Unmarshal(w.Body.Bytes(), &newRoom); err != nil {
		t.Fatalf("failed to decode room: %v", err)
	}
	if newRoom.ID == uuid.Nil {
		t.Fatalf("room has no ID")
	}
	if newRoom.HostUserID != uHost {
		t.Fatalf("room host mismatch, expected %v got %v", uHost, newRoom.HostUserID)
	}
	if _, ok := s.RoomStore.GetRoom(newRoom.ID); !ok {
		t.Fatalf("room %v not registered in store", newRoom.ID)
	}
}

// TestRoomCreateRejectsBadType checks the room type whitelist.
func TestRoomCreateRejectsBadType(t *testing.T) {
	auth.Init()
	s := NewServer(nil, nil)

	token, _ := auth.CreateJWT(uuid.New().String())
	req := httptest.NewRequest("POST", "/room/create", bytes.NewBufferString(`{"type":"ranked"}`))
	req.Header.Set("Cookie", auth.CookieName+"="+token)
	w := httptest.NewRecorder()

	CreateRoomHandler(s).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

// TestRoomCreateRequiresAuth checks that an anonymous request is rejected.
func TestRoomCreateRequiresAuth(t *testing.T) {
	auth.Init()
	s := NewServer(nil, nil)

	req := httptest.NewRequest("POST", "/room/create", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()

	CreateRoomHandler(s).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

package models

import (
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Player is a connected participant in a room or match. Join order is
// preserved by the owning match's player slice and is the stable order
// used for speaker rotation.
type Player struct {
	ID          uuid.UUID       `json:"id"`
	DisplayName string          `json:"displayName"`
	Connected   bool            `json:"connected"`
	Conn        *websocket.Conn `json:"-"`

	JoinedAt time.Time `json:"-"`

	User *User `json:"-"`
}

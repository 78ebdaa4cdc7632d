// internal/room/room.go
package room

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wordrush-io/wordrush/internal/database"
	"github.com/wordrush-io/wordrush/internal/game"
)

// Room is an ephemeral pre-match grouping of players: chat, team picks,
// ready states and match settings live here until a match starts.
type Room struct {
	ID         uuid.UUID `json:"id"`
	HostUserID uuid.UUID `json:"hostUserID"`
	Type       string    `json:"type"`

	// Users maps userID -> whether they've joined (true) or only been invited (false).
	Users map[uuid.UUID]bool `json:"-"`

	// Connections holds the live WebSocket connections for joined users.
	Connections map[uuid.UUID]*RoomConnection `json:"-"`
	// ReadyStates holds userID -> "is ready".
	ReadyStates map[uuid.UUID]bool `json:"-"`
	// TeamChoices holds each user's picked team color.
	TeamChoices map[uuid.UUID]game.TeamColor `json:"-"`

	MatchCreated bool      `json:"-"`
	MatchID      uuid.UUID `json:"matchId,omitempty"`
	InMatch      bool      `json:"inMatch"`

	CountdownTimer *time.Timer `json:"-"`

	// Settings are handed to the match when it starts.
	Settings game.MatchSettings `json:"settings"`

	RoomSettings RoomSettings `json:"roomSettings"`

	// OnEmpty is called when the last user leaves, typically assigned by
	// the store that owns this room:
	//   room.OnEmpty = func(roomID uuid.UUID) { store.DeleteRoom(roomID) }
	OnEmpty func(roomID uuid.UUID) `json:"-"`

	Mu sync.Mutex
}

// RoomConnection is a single user's presence in the room.
type RoomConnection struct {
	UserID   uuid.UUID
	Username string
	Cancel   func()
	OutChan  chan map[string]interface{}
	IsHost   bool
}

// Write pushes a message onto the user's OutChan without blocking. Drops
// and logs if the channel is closed or full.
func (conn *RoomConnection) Write(msg map[string]interface{}) {
	select {
	case conn.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		log.Printf("RoomConnection Write WARNING: OutChan for user %s closed or full. Dropped message type '%s'.", conn.UserID, msgType)
	}
}

// WriteError is a convenience to send an error object.
func (conn *RoomConnection) WriteError(msg string) {
	conn.Write(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}

// RoomSettings holds settings specific to room behavior rather than the match.
type RoomSettings struct {
	AutoStart bool `json:"autoStart"`
}

// NewRoomWithDefaults creates an ephemeral room with default match settings.
func NewRoomWithDefaults(hostID uuid.UUID) *Room {
	roomID, _ := uuid.NewRandom()

	return &Room{
		ID:          roomID,
		HostUserID:  hostID,
		Type:        "public",
		Users:       make(map[uuid.UUID]bool),
		Connections: make(map[uuid.UUID]*RoomConnection),
		ReadyStates: make(map[uuid.UUID]bool),
		TeamChoices: make(map[uuid.UUID]game.TeamColor),

		Settings: game.DefaultMatchSettings(),

		RoomSettings: RoomSettings{
			AutoStart: true,
		},
	}
}

// InviteUser marks userID as invited (private rooms). Assumes caller holds the lock.
func (room *Room) InviteUser(userID uuid.UUID) {
	if _, exists := room.Users[userID]; !exists {
		room.Users[userID] = false
		log.Printf("Room %s: User %s invited.", room.ID, userID)
		room.BroadcastAllUnsafe(map[string]interface{}{
			"type":      "room_invite",
			"invitedID": userID.String(),
		})
	} else {
		log.Printf("Room %s: User %s already present or invited.", room.ID, userID)
	}
}

// AddConnection registers a user as connected, seeds their ready state
// and fetches their username. Acquires the lock.
func (room *Room) AddConnection(userID uuid.UUID, conn *RoomConnection) error {
	room.Mu.Lock()

	joined, exists := room.Users[userID]
	if !exists {
		if room.Type != "private" {
			room.Users[userID] = true
		} else {
			room.Mu.Unlock()
			return fmt.Errorf("user %s not invited to the private room %s", userID, room.ID)
		}
	} else if joined {
		log.Printf("Room %s: User %s is re-establishing connection.", room.ID, userID)
		if oldConn, ok := room.Connections[userID]; ok && oldConn != conn {
			close(oldConn.OutChan)
			if oldConn.Cancel != nil {
				oldConn.Cancel()
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	user, err := database.GetUserByID(ctx, userID)
	cancel()
	if err != nil {
		log.Printf("Room %s: Error fetching user %s details: %v. Using default username.", room.ID, userID, err)
		conn.Username = fmt.Sprintf("Player_%s", userID.String()[:4])
	} else {
		conn.Username = user.Username
	}

	room.Connections[userID] = conn
	room.ReadyStates[userID] = false
	room.Users[userID] = true

	log.Printf("Room %s: User %s (%s) connected.", room.ID, userID, conn.Username)

	statePayload := room.getRoomStatePayloadUnsafe(userID)
	joinPayload := room.getRoomJoinPayloadUnsafe(userID)

	room.Mu.Unlock()

	// Send private state first, then announce the join, both outside the lock.
	go func() {
		conn.Write(statePayload)
		room.BroadcastAll(joinPayload)
	}()

	return nil
}

// RemoveUser removes a user from all maps. If the room empties, OnEmpty fires.
// Acquires the lock.
func (room *Room) RemoveUser(userID uuid.UUID) {
	room.Mu.Lock()

	conn, connExists := room.Connections[userID]
	if !connExists {
		delete(room.Users, userID)
		room.Mu.Unlock()
		log.Printf("Room %s: Attempted to remove user %s who was not connected.", room.ID, userID)
		return
	}

	log.Printf("Room %s: Removing user %s.", room.ID, userID)

	// Close the outgoing channel and cancel the connection context off the
	// hot path so RemoveUser never blocks on a stuck writer.
	go func(ch chan map[string]interface{}, cancelFunc func()) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Room %s: Recovered from panic closing OutChan for user %s: %v", room.ID, userID, r)
			}
		}()
		close(ch)
		if cancelFunc != nil {
			cancelFunc()
		}
	}(conn.OutChan, conn.Cancel)

	delete(room.Users, userID)
	delete(room.Connections, userID)
	delete(room.ReadyStates, userID)
	delete(room.TeamChoices, userID)

	leavePayload := room.getRoomLeavePayloadUnsafe(userID)
	allReady := room.AreAllReadyUnsafe()
	isEmpty := len(room.Connections) == 0
	onEmptyCallback := room.OnEmpty

	if room.CountdownTimer != nil {
		room.CancelCountdownUnsafe()
	}

	shouldStartCountdown := allReady && room.RoomSettings.AutoStart && !room.InMatch && len(room.Connections) >= 2

	room.Mu.Unlock()

	room.BroadcastAll(leavePayload)

	if shouldStartCountdown {
		room.StartCountdown(10, func(r *Room) {
			log.Printf("Room %s: Countdown finished after user removal, waiting for server to start the match.", r.ID)
		})
	}

	if isEmpty && onEmptyCallback != nil {
		log.Printf("Room %s is now empty. Triggering OnEmpty callback.", room.ID)
		onEmptyCallback(room.ID)
	}
}

// ChooseTeamUnsafe records a user's team pick and broadcasts it. Assumes
// lock is held.
func (room *Room) ChooseTeamUnsafe(userID uuid.UUID, color game.TeamColor) error {
	conn, ok := room.Connections[userID]
	if !ok {
		return fmt.Errorf("user %s not connected to room %s", userID, room.ID)
	}
	if !color.Valid() {
		return fmt.Errorf("invalid team color")
	}
	room.TeamChoices[userID] = color
	room.BroadcastAllUnsafe(map[string]interface{}{
		"type":     "team_update",
		"user_id":  userID.String(),
		"username": conn.Username,
		"team":     color.String(),
	})
	return nil
}

// StartCountdownUnsafe begins an auto-start countdown. Assumes lock is held.
func (room *Room) StartCountdownUnsafe(seconds int, callback func(*Room)) bool {
	if room.InMatch || room.CountdownTimer != nil {
		log.Printf("Room %s: Cannot start countdown (InMatch: %v, TimerExists: %v)", room.ID, room.InMatch, room.CountdownTimer != nil)
		return false
	}
	if len(room.Connections) < 2 {
		log.Printf("Room %s: Cannot start countdown with fewer than 2 players.", room.ID)
		return false
	}

	log.Printf("Room %s: Starting %d second countdown.", room.ID, seconds)
	room.BroadcastAllUnsafe(map[string]interface{}{
		"type":    "room_countdown_start",
		"seconds": seconds,
	})

	var timer *time.Timer
	timer = time.AfterFunc(time.Duration(seconds)*time.Second, func() {
		room.Mu.Lock()
		// Only the current timer may fire the callback.
		if room.CountdownTimer == timer {
			room.CountdownTimer = nil
			room.Mu.Unlock()
			callback(room)
		} else {
			log.Printf("Room %s: Stale countdown timer fired. Ignoring.", room.ID)
			room.Mu.Unlock()
		}
	})
	room.CountdownTimer = timer
	return true
}

// StartCountdown starts a countdown. Calls the unsafe version assuming caller holds the lock.
func (room *Room) StartCountdown(seconds int, callback func(*Room)) bool {
	return room.StartCountdownUnsafe(seconds, callback)
}

// CancelCountdownUnsafe stops any existing countdown. Assumes lock is held.
func (room *Room) CancelCountdownUnsafe() {
	if room.CountdownTimer != nil {
		log.Printf("Room %s: Cancelling countdown.", room.ID)
		if room.CountdownTimer.Stop() {
			room.CountdownTimer = nil
			room.BroadcastAllUnsafe(map[string]interface{}{
				"type": "room_countdown_cancel",
			})
		} else {
			room.CountdownTimer = nil
		}
	}
}

// CancelCountdown stops any existing countdown. Calls the unsafe version assuming caller holds the lock.
func (room *Room) CancelCountdown() {
	room.CancelCountdownUnsafe()
}

// MarkUserReadyUnsafe sets a user's ready state and reports whether an
// auto-start countdown should begin. Assumes lock is held.
func (room *Room) MarkUserReadyUnsafe(userID uuid.UUID) bool {
	conn, ok := room.Connections[userID]
	if !ok {
		log.Printf("Room %s: Cannot mark non-connected user %s as ready.", room.ID, userID)
		return false
	}

	if room.ReadyStates[userID] {
		return false
	}

	room.ReadyStates[userID] = true
	log.Printf("Room %s: User %s marked as READY.", room.ID, userID)

	room.BroadcastAllUnsafe(map[string]interface{}{
		"type":     "ready_update",
		"user_id":  userID.String(),
		"username": conn.Username,
		"is_ready": true,
	})

	allReady := room.AreAllReadyUnsafe()
	return allReady && room.RoomSettings.AutoStart && !room.InMatch && len(room.Connections) >= 2
}

// MarkUserReady sets ready state. The caller decides whether to start the
// countdown from the returned flag, after releasing the lock.
func (room *Room) MarkUserReady(userID uuid.UUID) bool {
	return room.MarkUserReadyUnsafe(userID)
}

// MarkUserUnreadyUnsafe clears a user's ready state and cancels any
// running countdown. Assumes lock is held.
func (room *Room) MarkUserUnreadyUnsafe(userID uuid.UUID) {
	conn, ok := room.Connections[userID]
	if !ok {
		log.Printf("Room %s: Cannot mark non-connected user %s as unready.", room.ID, userID)
		return
	}

	if !room.ReadyStates[userID] {
		return
	}

	room.ReadyStates[userID] = false
	log.Printf("Room %s: User %s marked as UNREADY.", room.ID, userID)

	room.BroadcastAllUnsafe(map[string]interface{}{
		"type":     "ready_update",
		"user_id":  userID.String(),
		"username": conn.Username,
		"is_ready": false,
	})

	room.CancelCountdownUnsafe()
}

// MarkUserUnready sets unready state. Calls the unsafe version assuming caller holds the lock.
func (room *Room) MarkUserUnready(userID uuid.UUID) {
	room.MarkUserUnreadyUnsafe(userID)
}

// AreAllReadyUnsafe checks readiness without acquiring the lock.
func (room *Room) AreAllReadyUnsafe() bool {
	if len(room.Connections) < 2 {
		return false
	}
	for userID := range room.Connections {
		if !room.ReadyStates[userID] {
			return false
		}
	}
	return true
}

// AreAllReady checks readiness (acquires lock).
func (room *Room) AreAllReady() bool {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	return room.AreAllReadyUnsafe()
}

// BroadcastAllUnsafe sends a message to every connection. Assumes lock is
// held; conn.Write never blocks.
func (room *Room) BroadcastAllUnsafe(msg map[string]interface{}) {
	connsToSend := make([]*RoomConnection, 0, len(room.Connections))
	for _, conn := range room.Connections {
		connsToSend = append(connsToSend, conn)
	}
	for _, conn := range connsToSend {
		conn.Write(msg)
	}
}

// BroadcastAll sends msg to every connected user. Calls the unsafe version assuming caller holds the lock.
func (room *Room) BroadcastAll(msg map[string]interface{}) {
	room.BroadcastAllUnsafe(msg)
}

// GetRoomStatusPayloadUnsafe gathers the per-user roster. Assumes lock is held.
func (room *Room) GetRoomStatusPayloadUnsafe() map[string]interface{} {
	users := []map[string]interface{}{}
	for userID, conn := range room.Connections {
		entry := map[string]interface{}{
			"id":       userID.String(),
			"username": conn.Username,
			"is_host":  conn.IsHost,
			"is_ready": room.ReadyStates[userID],
		}
		if color, ok := room.TeamChoices[userID]; ok {
			entry["team"] = color.String()
		}
		users = append(users, entry)
	}
	return map[string]interface{}{
		"users": users,
	}
}

// getRoomJoinPayloadUnsafe prepares the join message. Assumes lock is held.
func (room *Room) getRoomJoinPayloadUnsafe(userID uuid.UUID) map[string]interface{} {
	isHost := false
	username := "Unknown"
	if conn, ok := room.Connections[userID]; ok {
		isHost = conn.IsHost
		username = conn.Username
	}

	return map[string]interface{}{
		"type":        "room_update",
		"user_join":   userID.String(),
		"username":    username,
		"is_host":     isHost,
		"room_status": room.GetRoomStatusPayloadUnsafe(),
	}
}

// BroadcastJoin notifies that a user joined. Assumes caller holds the lock.
func (room *Room) BroadcastJoin(userID uuid.UUID) {
	room.BroadcastAll(room.getRoomJoinPayloadUnsafe(userID))
}

// getRoomLeavePayloadUnsafe prepares the leave message. Assumes lock is held.
func (room *Room) getRoomLeavePayloadUnsafe(userID uuid.UUID) map[string]interface{} {
	username := "Unknown"
	if conn, ok := room.Connections[userID]; ok {
		username = conn.Username
	}

	return map[string]interface{}{
		"type":        "room_update",
		"user_left":   userID.String(),
		"username":    username,
		"room_status": room.GetRoomStatusPayloadUnsafe(),
	}
}

// BroadcastLeave notifies that a user left. Assumes caller holds the lock.
func (room *Room) BroadcastLeave(userID uuid.UUID) {
	room.BroadcastAll(room.getRoomLeavePayloadUnsafe(userID))
}

// BroadcastChatUnsafe broadcasts a chat message from senderConn. Assumes lock is held.
func (room *Room) BroadcastChatUnsafe(senderConn *RoomConnection, msg string) {
	username := senderConn.Username
	if username == "" {
		username = "Unknown"
	}

	room.BroadcastAllUnsafe(map[string]interface{}{
		"type":     "chat",
		"user_id":  senderConn.UserID.String(),
		"username": username,
		"msg":      msg,
		"ts":       time.Now().Unix(),
	})
}

// BroadcastChat broadcasts a chat message from userID. Assumes caller holds the lock.
func (room *Room) BroadcastChat(userID uuid.UUID, msg string) {
	conn, ok := room.Connections[userID]
	if !ok {
		log.Printf("Room %s: Cannot broadcast chat for disconnected user %s", room.ID, userID)
		return
	}
	room.BroadcastChatUnsafe(conn, msg)
}

// getRoomStatePayloadUnsafe prepares the full state message for one user.
// Assumes lock is held.
func (room *Room) getRoomStatePayloadUnsafe(userID uuid.UUID) map[string]interface{} {
	isHost := false
	if conn, ok := room.Connections[userID]; ok {
		isHost = conn.IsHost
	}

	matchIDStr := ""
	if room.MatchID != uuid.Nil {
		matchIDStr = room.MatchID.String()
	}

	return map[string]interface{}{
		"type":         "room_state",
		"room_id":      room.ID.String(),
		"host_id":      room.HostUserID.String(),
		"your_id":      userID.String(),
		"your_is_host": isHost,
		"room_type":    room.Type,
		"in_match":     room.InMatch,
		"match_id":     matchIDStr,
		"settings":     room.Settings,
		"room_settings": map[string]interface{}{
			"autoStart": room.RoomSettings.AutoStart,
		},
		"room_status": room.GetRoomStatusPayloadUnsafe(),
	}
}

// SendRoomState sends the full current room state to one user. Assumes caller holds the lock.
func (room *Room) SendRoomState(userID uuid.UUID) {
	conn, ok := room.Connections[userID]
	if !ok {
		log.Printf("Room %s: Cannot send room state, user %s not connected.", room.ID, userID)
		return
	}
	conn.Write(room.getRoomStatePayloadUnsafe(userID))
}

// BroadcastSettingsUpdateUnsafe notifies all users about updated settings.
// Assumes lock is held.
func (room *Room) BroadcastSettingsUpdateUnsafe() {
	room.BroadcastAllUnsafe(map[string]interface{}{
		"type": "room_settings_updated",
		"settings": map[string]interface{}{
			"match":     room.Settings,
			"autoStart": room.RoomSettings.AutoStart,
		},
	})
}

// UpdateUnsafe applies partial settings updates from the host. Assumes
// lock is HELD by the caller.
func (room *Room) UpdateUnsafe(settings map[string]interface{}) error {
	changed := false

	tempSettings := room.Settings
	if matchData, ok := settings["match"].(map[string]interface{}); ok {
		if err := tempSettings.Update(matchData); err != nil {
			log.Printf("Room %s: Error updating match settings: %v", room.ID, err)
			return err
		}
		if tempSettings != room.Settings {
			room.Settings = tempSettings
			changed = true
		}
	}

	if roomData, ok := settings["room"].(map[string]interface{}); ok {
		if autoStart, ok := roomData["autoStart"].(bool); ok {
			if room.RoomSettings.AutoStart != autoStart {
				room.RoomSettings.AutoStart = autoStart
				changed = true
			}
		}
	}

	if changed {
		room.BroadcastSettingsUpdateUnsafe()
	}
	return nil
}

// Update applies changes. Calls the unsafe version assuming caller holds the lock.
func (room *Room) Update(settings map[string]interface{}) error {
	return room.UpdateUnsafe(settings)
}

// GetConnectionsUnsafe returns a snapshot of current connections. Assumes lock is held.
func (room *Room) GetConnectionsUnsafe() []*RoomConnection {
	conns := make([]*RoomConnection, 0, len(room.Connections))
	for _, conn := range room.Connections {
		conns = append(conns, conn)
	}
	return conns
}

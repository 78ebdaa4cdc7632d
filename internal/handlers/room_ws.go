// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wordrush-io/wordrush/internal/game"
	"github.com/wordrush-io/wordrush/internal/middleware"
	"github.com/wordrush-io/wordrush/internal/room"
)

// RoomWSHandler upgrades the HTTP connection to WebSocket for the
// pre-match room flow: ready states, team picks, chat and match start.
func RoomWSHandler(logger *logrus.Logger, s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/room/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "missing room_id", http.StatusBadRequest)
			return
		}
		roomUUID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "invalid room_id", http.StatusBadRequest)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"room"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "room" {
			c.Close(BadSubprotocolError, "client must speak the room subprotocol")
			return
		}

		userUUID, err := EnsureEphemeralUser(w, r)
		if err != nil {
			logger.Warnf("User authentication failed for room %s: %v", roomUUID, err)
			c.Close(websocket.StatusPolicyViolation, "Authentication failed.")
			return
		}

		rm, exists := s.RoomStore.GetRoom(roomUUID)
		if !exists {
			c.Close(InvalidRoomIDError, "room does not exist")
			return
		}

		rm.Mu.Lock()
		_, isInvitedOrPresent := rm.Users[userUUID]
		roomType := rm.Type
		rm.Mu.Unlock()

		if roomType == "private" && !isInvitedOrPresent {
			c.Close(websocket.StatusPolicyViolation, "user not invited to private room")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		conn := &room.RoomConnection{
			UserID:  userUUID,
			Cancel:  cancel,
			OutChan: make(chan map[string]interface{}, 10),
			IsHost:  rm.HostUserID == userUUID,
		}

		if err := rm.AddConnection(userUUID, conn); err != nil {
			logger.Warnf("failed AddConnection: %v", err)
			c.Close(websocket.StatusPolicyViolation, fmt.Sprintf("AddConnection error: %v", err))
			cancel()
			return
		}

		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path)
		logger.Infof("User %v (%s) connected to room %v", userUUID, remoteAddr, roomUUID)

		go roomWritePump(ctx, c, conn, logger)

		roomReadPump(ctx, c, s, rm, conn, logger)

		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, nil)
		logger.Infof("User %v readPump exited for room %v. Initiating cleanup.", userUUID, roomUUID)
		rm.RemoveUser(userUUID)
	}
}

// roomReadPump handles incoming messages from the room websocket. It
// acquires the room lock before calling handleRoomMessage and releases it
// afterwards, unless the handler signals otherwise (e.g. leave_room).
func roomReadPump(ctx context.Context, c *websocket.Conn, s *Server, rm *room.Room, conn *room.RoomConnection, logger *logrus.Logger) {
	logger.Infof("Room %s: Starting read pump for user %v", rm.ID, conn.UserID)
	defer logger.Infof("Room %s: Exiting read pump for user %v", rm.ID, conn.UserID)

	for {
		select {
		case <-ctx.Done():
			logger.Infof("Room %s: Context cancelled for user %v, stopping read pump.", rm.ID, conn.UserID)
			return
		default:
		}

		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("Room %s: WebSocket closed normally for user %v.", rm.ID, conn.UserID)
			} else if strings.Contains(err.Error(), "context canceled") {
				// Already logged above.
			} else {
				logger.Warnf("Room %s: Read error for user %v: %v (CloseStatus: %d)", rm.ID, conn.UserID, err, closeStatus)
			}
			return
		}

		if typ != websocket.MessageText {
			logger.Warnf("Room %s: Received non-text message type %d from user %v. Ignoring.", rm.ID, typ, conn.UserID)
			continue
		}

		var packet map[string]interface{}
		if err := json.Unmarshal(msg, &packet); err != nil {
			logger.Warnf("Room %s: Invalid json from user %v: %v", rm.ID, conn.UserID, err)
			conn.WriteError("Invalid JSON format")
			continue
		}

		lockReleasedByHandler := false
		shouldStartCountdown := false

		rm.Mu.Lock()

		currentConn, stillConnected := rm.Connections[conn.UserID]
		if !stillConnected || currentConn != conn {
			logger.Warnf("Room %s: Ignoring action from user %s who disconnected or reconnected during handling.", rm.ID, conn.UserID)
			rm.Mu.Unlock()
			continue
		}

		handleRoomMessage(packet, s, rm, conn, logger, &shouldStartCountdown, func() {
			rm.Mu.Unlock()
			lockReleasedByHandler = true
		})

		if !lockReleasedByHandler {
			rm.Mu.Unlock()
		}

		// Auto-start countdown begins only after the lock is released.
		if shouldStartCountdown {
			rm.StartCountdown(10, func(r *room.Room) {
				logger.Infof("Room %s: Auto-start countdown finished.", r.ID)
				startMatchFromRoom(s, r, logger)
			})
		}
	}
}

// startMatchFromRoom snapshots room state under the lock, creates the
// match outside it, then marks the room in-match and announces it.
func startMatchFromRoom(s *Server, rm *room.Room, logger *logrus.Logger) {
	rm.Mu.Lock()
	if rm.InMatch {
		logger.Warnf("Room %s: already in a match, ignoring start.", rm.ID)
		rm.Mu.Unlock()
		return
	}
	roomID := rm.ID
	settings := rm.Settings
	playersToStart := rm.GetConnectionsUnsafe()
	teamChoices := make(map[uuid.UUID]game.TeamColor, len(rm.TeamChoices))
	for uid, color := range rm.TeamChoices {
		teamChoices[uid] = color
	}
	rm.Mu.Unlock()

	m := s.CreateMatchInstance(roomID, settings, playersToStart, teamChoices)
	if m == nil {
		logger.Errorf("Room %s: failed to create match instance.", roomID)
		return
	}
	logger.Infof("Room %s: Match instance %s created.", roomID, m.ID)

	rm.Mu.Lock()
	if rm.InMatch {
		logger.Warnf("Room %s: already marked InMatch after match creation. Dropping duplicate %s.", rm.ID, m.ID)
		s.MatchStore.DeleteMatch(m.ID)
		rm.Mu.Unlock()
		return
	}
	rm.InMatch = true
	rm.MatchID = m.ID
	rm.BroadcastAllUnsafe(map[string]interface{}{
		"type":     "match_start",
		"match_id": m.ID.String(),
	})
	rm.Mu.Unlock()
}

// handleRoomMessage interprets the "type" field for room actions. Assumes
// the room lock is HELD by the caller (roomReadPump); unlockCallback MUST
// be called before long operations or early returns that leave the lock
// released.
func handleRoomMessage(packet map[string]interface{}, s *Server, rm *room.Room, senderConn *room.RoomConnection, logger *logrus.Logger, shouldStartCountdown *bool, unlockCallback func()) {
	action, _ := packet["type"].(string)

	switch action {
	case "ready":
		if rm.MarkUserReady(senderConn.UserID) {
			*shouldStartCountdown = true
		}
	case "unready":
		rm.MarkUserUnready(senderConn.UserID)
	case "choose_team":
		colorStr, _ := packet["team"].(string)
		color, err := game.ParseTeamColor(colorStr)
		if err != nil {
			senderConn.WriteError("Invalid team color")
			return
		}
		if err := rm.ChooseTeamUnsafe(senderConn.UserID, color); err != nil {
			senderConn.WriteError(err.Error())
		}
	case "invite":
		userIDStr, _ := packet["userID"].(string)
		userToAdd, err := uuid.Parse(userIDStr)
		if err != nil {
			logger.Warnf("Room %s: Invalid user ID to invite: %v", rm.ID, packet["userID"])
			senderConn.WriteError("Invalid userID format for invite")
			return
		}
		rm.InviteUser(userToAdd)
	case "leave_room":
		userID := senderConn.UserID
		unlockCallback()
		rm.RemoveUser(userID)
		return
	case "chat":
		msg, _ := packet["msg"].(string)
		if msg != "" {
			rm.BroadcastChat(senderConn.UserID, msg)
		}
	case "update_settings":
		if !senderConn.IsHost {
			senderConn.WriteError("Only the host can update settings")
			return
		}
		if settingsData, ok := packet["settings"].(map[string]interface{}); ok {
			if err := rm.UpdateUnsafe(settingsData); err != nil {
				logger.Warnf("Room %s: Error during UpdateUnsafe: %v", rm.ID, err)
				senderConn.WriteError("Failed to apply settings updates.")
			}
		} else {
			senderConn.WriteError("Invalid payload for update_settings")
		}
	case "start_match":
		if !senderConn.IsHost {
			senderConn.WriteError("Only the host can force start")
			return
		}
		if rm.InMatch {
			senderConn.WriteError("Match already in progress")
			return
		}
		if !rm.AreAllReadyUnsafe() {
			senderConn.WriteError("Not all users are ready")
			return
		}
		rm.CancelCountdownUnsafe()

		unlockCallback()
		logger.Infof("Room %s: Host requested match start.", rm.ID)
		startMatchFromRoom(s, rm, logger)

	default:
		logger.Warnf("Room %s: Unknown action '%s' from user %v", rm.ID, action, senderConn.UserID)
		senderConn.WriteError(fmt.Sprintf("Unknown action type: %s", action))
	}
}

// roomWritePump drains the connection's OutChan onto the websocket and
// pings periodically.
func roomWritePump(ctx context.Context, c *websocket.Conn, conn *room.RoomConnection, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	defer func() {
		_ = c.Close(websocket.StatusGoingAway, "Write pump stopping")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("Room: Failed to marshal outgoing msg for user %v: %v", conn.UserID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()

			if err != nil {
				logger.Warnf("Room: Failed to write to websocket for user %v: %v", conn.UserID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Room: Failed to send ping to user %v: %v. Assuming disconnect.", conn.UserID, err)
				return
			}
		}
	}
}

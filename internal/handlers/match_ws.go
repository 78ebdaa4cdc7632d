// internal/handlers/match_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wordrush-io/wordrush/internal/game"
	"github.com/wordrush-io/wordrush/internal/middleware"
	"github.com/wordrush-io/wordrush/internal/models"
)

// MatchMessage represents incoming WebSocket messages during a match.
type MatchMessage struct {
	Type string `json:"type"`

	// Team and Speaker target an explicit turn start; the usual flow lets
	// the server pick both via action_next_turn.
	Team    string `json:"team,omitempty"`
	Speaker string `json:"speaker,omitempty"`

	// Payload is a generic container for any additional data.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// MatchWSHandler upgrades the HTTP connection to WebSocket for a specific
// match. It authenticates the user, verifies they are a player, registers
// the connection and starts the read loop.
func MatchWSHandler(logger *logrus.Logger, s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/match/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "Missing match_id in path (/match/ws/{match_id})", http.StatusBadRequest)
			return
		}
		matchID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "Invalid match_id format", http.StatusBadRequest)
			return
		}

		m, ok := s.MatchStore.GetMatch(matchID)
		if !ok {
			http.Error(w, "Match not found", http.StatusNotFound)
			return
		}
		m.Mu.Lock()
		over := m.MatchOver
		m.Mu.Unlock()
		if over {
			http.Error(w, "Match has already ended", http.StatusGone)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"match"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for match %s: %v", matchID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "match" {
			logger.Warnf("Client for match %s connected with invalid subprotocol: %s", matchID, c.Subprotocol())
			c.Close(websocket.StatusPolicyViolation, "Client must use the 'match' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
		logger.Infof("WebSocket connection established for match %s from %s", matchID, r.RemoteAddr)

		userID, err := EnsureEphemeralUser(w, r)
		if err != nil {
			logger.Warnf("User authentication failed for match %s: %v", matchID, err)
			c.Close(websocket.StatusPolicyViolation, "Authentication failed.")
			return
		}
		logger.Infof("User %s authenticated for match %s", userID, matchID)

		isPlayerInMatch := false
		m.Mu.Lock()
		for _, p := range m.Players {
			if p.ID == userID {
				isPlayerInMatch = true
				break
			}
		}
		m.Mu.Unlock()
		if !isPlayerInMatch {
			logger.Warnf("User %s is not a player in match %s. Closing connection.", userID, matchID)
			c.Close(websocket.StatusPolicyViolation, "You are not a player in this match.")
			return
		}

		// Register broadcast functions once per match instance.
		m.Mu.Lock()
		if m.BroadcastFn == nil {
			m.BroadcastFn = createBroadcastFunc(m, logger)
		}
		if m.BroadcastToPlayerFn == nil {
			m.BroadcastToPlayerFn = createBroadcastToPlayerFunc(m, logger)
		}
		m.Mu.Unlock()

		// Registers the connection and sends the player a fresh snapshot.
		m.HandleReconnect(userID, &models.Player{ID: userID, Conn: c, Connected: true})

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readMatchMessages(ctx, c, s, m, userID, logger)

		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
		logger.Infof("Player %s WebSocket read loop exited for match %s.", userID, matchID)
		m.HandleDisconnect(userID)
	}
}

// createBroadcastFunc returns a function suitable for Match.BroadcastFn.
// It snapshots connected players, then marshals and sends asynchronously
// so the engine never blocks on a slow socket.
func createBroadcastFunc(m *game.Match, logger *logrus.Logger) func(ev game.MatchEvent) {
	return func(ev game.MatchEvent) {
		// Called while the match lock is held, so reading Players is safe.
		// Do not re-lock and do not write from this goroutine.
		playersToSend := []*models.Player{}
		for _, p := range m.Players {
			if p.Connected && p.Conn != nil {
				playersToSend = append(playersToSend, p)
			}
		}

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal broadcast event (%s) for match %s: %v", ev.Type, m.ID, err)
			return
		}

		go func(players []*models.Player, data []byte, matchID uuid.UUID) {
			for _, pl := range players {
				if pl.Conn != nil {
					ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
					err := pl.Conn.Write(ctx, websocket.MessageText, data)
					cancel()
					if err != nil {
						logger.Warnf("Failed to write broadcast message to player %s in match %s: %v", pl.ID, matchID, err)
					}
				}
			}
		}(playersToSend, msgBytes, m.ID)
	}
}

// createBroadcastToPlayerFunc returns a function suitable for
// Match.BroadcastToPlayerFn.
func createBroadcastToPlayerFunc(m *game.Match, logger *logrus.Logger) func(targetPlayerID uuid.UUID, ev game.MatchEvent) {
	return func(targetPlayerID uuid.UUID, ev game.MatchEvent) {
		// Called while the match lock is held.
		var targetConn *websocket.Conn
		for _, pl := range m.Players {
			if pl.ID == targetPlayerID {
				if pl.Connected && pl.Conn != nil {
					targetConn = pl.Conn
				}
				break
			}
		}
		if targetConn == nil {
			return
		}

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal private event (%s) for player %s in match %s: %v", ev.Type, targetPlayerID, m.ID, err)
			return
		}
		go func(conn *websocket.Conn, data []byte, playerID uuid.UUID, matchID uuid.UUID) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write private message to player %s in match %s: %v", playerID, matchID, err)
			}
		}(targetConn, msgBytes, targetPlayerID, m.ID)
	}
}

// readMatchMessages continuously reads client messages, validates who may
// perform each action and routes them to the engine. The engine's
// exported methods lock internally, so this loop only takes the match
// lock for short validation reads.
func readMatchMessages(ctx context.Context, c *websocket.Conn, s *Server, m *game.Match, userID uuid.UUID, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for user %s in match %s.", userID, m.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for user %s in match %s.", userID, m.ID)
			} else {
				logger.Warnf("Error reading from WebSocket for user %s in match %s: %v (Status: %d)", userID, m.ID, err, status)
			}
			return
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from user %s in match %s. Ignoring.", msgType, userID, m.ID)
			continue
		}

		var msg MatchMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON received from user %s in match %s: %v. Data: %s", userID, m.ID, err, string(data))
			sendWsError(ctx, c, "Invalid JSON format.")
			continue
		}

		logger.Debugf("Received action '%s' from user %s in match %s.", msg.Type, userID, m.ID)

		switch msg.Type {
		case "action_next_turn":
			team, speaker, err := m.StartNextTurn()
			if err != nil {
				sendWsError(ctx, c, err.Error())
			} else {
				logger.Infof("Match %s: turn started for %s, speaker %s.", m.ID, team, speaker)
			}

		case "action_start_turn":
			color, err := game.ParseTeamColor(msg.Team)
			if err != nil {
				sendWsError(ctx, c, "Invalid team color.")
				continue
			}
			speakerID, err := uuid.Parse(msg.Speaker)
			if err != nil {
				sendWsError(ctx, c, "Invalid speaker id.")
				continue
			}
			if err := m.StartTurn(color, speakerID); err != nil {
				sendWsError(ctx, c, err.Error())
			}

		case "action_correct", "action_pass", "action_skip":
			if !isActiveSpeaker(m, userID) {
				sendWsError(ctx, c, "Only the active speaker may record outcomes.")
				continue
			}
			var err error
			switch msg.Type {
			case "action_correct":
				err = m.RecordCorrect()
			case "action_pass":
				err = m.RecordPass()
			case "action_skip":
				err = m.RecordSkip()
			}
			if err != nil {
				sendWsError(ctx, c, err.Error())
			}

		case "action_mistake":
			// A buzz: the speaker owning up, or an opponent calling a
			// violation. Members of the speaking team other than the
			// speaker cannot penalize their own turn.
			if !canRecordMistake(m, userID) {
				sendWsError(ctx, c, "Only the speaker or an opposing player may record a mistake.")
				continue
			}
			if err := m.RecordMistake(); err != nil {
				sendWsError(ctx, c, err.Error())
			}

		case "action_end_turn":
			if !isActiveSpeaker(m, userID) {
				sendWsError(ctx, c, "Only the active speaker may end the turn early.")
				continue
			}
			if _, err := m.EndTurn(); err != nil && !errors.Is(err, game.ErrNoActiveTurn) {
				sendWsError(ctx, c, err.Error())
			}

		case "action_rematch":
			m.Mu.Lock()
			over := m.MatchOver
			m.Mu.Unlock()
			if !over {
				sendWsError(ctx, c, "Match is still in progress.")
				continue
			}
			m.ResetMatch()
			// A finished match was dropped from the store; rematch puts it
			// back so new sockets can find it.
			if _, ok := s.MatchStore.GetMatch(m.ID); !ok {
				s.MatchStore.AddMatch(m)
			}
			if err := m.StartMatch(); err != nil {
				sendWsError(ctx, c, err.Error())
			}

		case "ping":
			sendWsMessage(ctx, c, map[string]string{"type": "pong"})

		default:
			logger.Warnf("Unknown action type '%s' from user %s in match %s.", msg.Type, userID, m.ID)
			sendWsError(ctx, c, fmt.Sprintf("Unknown action type: %s", msg.Type))
		}

		select {
		case <-ctx.Done():
			logger.Infof("Context canceled after processing message for user %s in match %s.", userID, m.ID)
			return
		default:
		}
	}
}

// isActiveSpeaker reports whether userID is the speaker of the currently
// active turn.
func isActiveSpeaker(m *game.Match, userID uuid.UUID) bool {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.Active != nil && m.Active.SpeakerID == userID
}

// canRecordMistake reports whether userID may buzz the active turn: the
// speaker themself, or any player not on the speaking team.
func canRecordMistake(m *game.Match, userID uuid.UUID) bool {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Active == nil {
		return false
	}
	if m.Active.SpeakerID == userID {
		return true
	}
	return !m.Teams[m.Active.TeamColor].HasMember(userID)
}

// sendWsMessage marshals a message and sends it to the WebSocket client
// with a write timeout.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	if c == nil {
		log.Println("Error: Attempted to send WebSocket message on nil connection.")
		return
	}
	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling WebSocket message: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = c.Write(writeCtx, websocket.MessageText, msgBytes)
	if err != nil {
		status := websocket.CloseStatus(err)
		if strings.Contains(err.Error(), "context deadline exceeded") {
			log.Printf("Timeout writing WebSocket message: %v", err)
		} else if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			log.Printf("Error writing WebSocket message: %v (Status: %d)", err, status)
		}
	}
}

// sendWsError sends a structured error message to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, errorMsg string) {
	sendWsMessage(ctx, c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}

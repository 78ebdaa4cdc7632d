// internal/handlers/server.go
package handlers

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/google/uuid"

	"github.com/wordrush-io/wordrush/internal/cards"
	"github.com/wordrush-io/wordrush/internal/game"
	"github.com/wordrush-io/wordrush/internal/models"
	"github.com/wordrush-io/wordrush/internal/outbox"
	"github.com/wordrush-io/wordrush/internal/room"
)

// Server is the top-level container tying rooms, matches, the card set
// and the event outbox together. Handlers receive it instead of reaching
// for globals.
type Server struct {
	Mutex      sync.Mutex
	RoomStore  *room.RoomStore
	MatchStore *game.MatchStore
	Events     *outbox.Queue
	CardSet    []*cards.Card
}

// NewServer builds a Server around the given outbox queue and card set.
// A nil set falls back to the built-in cards.
func NewServer(events *outbox.Queue, set []*cards.Card) *Server {
	if set == nil {
		set = cards.DefaultSet()
	}
	return &Server{
		RoomStore:  room.NewRoomStore(),
		MatchStore: game.NewMatchStore(),
		Events:     events,
		CardSet:    set,
	}
}

// CreateMatchInstance builds and registers a match for a room without
// holding the room lock. Players are seated on their chosen teams;
// anyone without a pick is spread across red and blue.
func (s *Server) CreateMatchInstance(roomID uuid.UUID, settings game.MatchSettings, playersToStart []*room.RoomConnection, teamChoices map[uuid.UUID]game.TeamColor) *game.Match {
	if len(playersToStart) < 2 {
		log.Warnf("Room %s: cannot start match, not enough players (%d).", roomID, len(playersToStart))
		return nil
	}

	m := game.NewMatch(settings, s.CardSet)
	m.RoomID = roomID

	fallback := game.Red
	for _, conn := range playersToStart {
		p := &models.Player{
			ID:          conn.UserID,
			DisplayName: conn.Username,
			Connected:   true,
			JoinedAt:    time.Now(),
		}
		m.AddPlayer(p)

		color, picked := teamChoices[conn.UserID]
		if !picked {
			color = fallback
			if fallback == game.Red {
				fallback = game.Blue
			} else {
				fallback = game.Red
			}
		}
		if err := m.JoinTeam(conn.UserID, color); err != nil {
			log.Warnf("Room %s: failed to seat player %s on %s: %v", roomID, conn.UserID, color, err)
		}
	}

	// Mirror every committed event; gameplay never waits on this.
	if s.Events != nil {
		m.SyncFn = func(matchID uuid.UUID, eventType game.MatchEventType, payload map[string]interface{}) {
			s.Events.Enqueue(outbox.Record{
				MatchID:   matchID,
				EventType: string(eventType),
				Payload:   payload,
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}

	m.OnMatchEnd = s.makeOnMatchEnd(m)

	s.MatchStore.AddMatch(m)

	if err := m.StartMatch(); err != nil {
		log.Errorf("Room %s: failed to start match %s: %v", roomID, m.ID, err)
		s.MatchStore.DeleteMatch(m.ID)
		return nil
	}
	return m
}

// makeOnMatchEnd returns the callback that hands a finished match's
// results back to its room and resets ready states for a rematch.
func (s *Server) makeOnMatchEnd(m *game.Match) game.OnMatchEndFunc {
	return func(roomID uuid.UUID, winner game.TeamColor, scores map[game.TeamColor]int) {
		log.Infof("Match %s ended. Winner: %s.", m.ID, winner)

		r, exists := s.RoomStore.GetRoom(roomID)
		if !exists {
			log.Warnf("OnMatchEnd: room %s not found in store.", roomID)
			s.MatchStore.DeleteMatch(m.ID)
			return
		}

		r.Mu.Lock()
		r.InMatch = false
		r.MatchID = uuid.Nil
		for uid := range r.Connections {
			r.ReadyStates[uid] = false
		}
		statusPayload := r.GetRoomStatusPayloadUnsafe()

		resultMsg := map[string]interface{}{
			"type":        "match_results",
			"winner":      winner.String(),
			"scores":      map[string]int{},
			"room_status": statusPayload,
		}
		for color, sc := range scores {
			resultMsg["scores"].(map[string]int)[color.String()] = sc
		}
		r.Mu.Unlock()

		r.BroadcastAll(resultMsg)

		s.MatchStore.DeleteMatch(m.ID)
		log.Infof("Match %s instance removed from store.", m.ID)
	}
}

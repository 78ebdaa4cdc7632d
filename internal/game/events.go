// internal/game/events.go
package game

import (
	"github.com/google/uuid"

	"github.com/wordrush-io/wordrush/internal/cards"
)

// MatchEventType is an enum-like type for broadcasting match activity.
type MatchEventType string

const (
	EventMatchStart     MatchEventType = "match_start"
	EventMatchReset     MatchEventType = "match_reset"
	EventMatchWin       MatchEventType = "match_win"
	EventTurnStart      MatchEventType = "turn_start"
	EventTurnEnd        MatchEventType = "turn_end"
	EventTurnCorrect    MatchEventType = "turn_correct"
	EventTurnPass       MatchEventType = "turn_pass"
	EventTurnPenalty    MatchEventType = "turn_penalty"
	EventTurnTick       MatchEventType = "turn_tick"
	EventDeckReshuffle  MatchEventType = "deck_reshuffle"
	EventPrivateCard    MatchEventType = "private_card" // speaker-only reveal of the active card
	EventPrivateSync    MatchEventType = "private_sync_state"
	EventPlayerJoinTeam MatchEventType = "player_join_team"
	EventPlayerGone     MatchEventType = "player_disconnect"
	EventPlayerBack     MatchEventType = "player_reconnect"
)

// EventUser identifies a player within event payloads.
type EventUser struct {
	ID uuid.UUID `json:"id"`
}

// EventCard carries the active card for the speaker's private reveal. The
// full word list stays server-side; only the active word ships.
type EventCard struct {
	ID         string           `json:"id"`
	Word       string           `json:"word"`
	WordIndex  int              `json:"wordIndex"`
	Category   cards.Category   `json:"category,omitempty"`
	Difficulty cards.Difficulty `json:"difficulty,omitempty"`
}

// MatchEvent is the single wire format for everything broadcast to match
// clients.
type MatchEvent struct {
	Type MatchEventType `json:"type"`

	Team *TeamColor  `json:"team,omitempty"`
	User *EventUser  `json:"user,omitempty"`
	Card *EventCard  `json:"card,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`

	State *MatchSnapshot `json:"state,omitempty"`
}

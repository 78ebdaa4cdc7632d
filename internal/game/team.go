// internal/game/team.go
package game

import "github.com/google/uuid"

// TurnSummary is the record of a team's most recent finished turn, kept
// for display.
type TurnSummary struct {
	Movement    int `json:"movement"`
	CardsWon    int `json:"cardsWon"`
	CardsPassed int `json:"cardsPassed"`
	Penalties   int `json:"penalties"`
}

// Team holds one color's persistent state across turns. Teams are created
// at match initialization, mutated only by the match at turn end, and
// reset (never destroyed) on match reset.
type Team struct {
	Color       TeamColor   `json:"color"`
	DisplayName string      `json:"displayName"`
	MemberIDs   []uuid.UUID `json:"memberIds"`

	Score int `json:"score"`

	// WordIndex is the authoritative cyclic position in [1..8] selecting
	// which of a card's 8 words the speaker must explain.
	WordIndex int `json:"wordIndex"`

	// TrackPosition is the legacy cosmetic board counter. It only ever
	// grows and is not consulted by win or word-selection logic.
	TrackPosition int `json:"trackPosition"`

	LastTurn *TurnSummary `json:"lastTurn,omitempty"`
}

// newTeam builds a team at its starting state.
func newTeam(color TeamColor) *Team {
	return &Team{
		Color:       color,
		DisplayName: color.String(),
		WordIndex:   1,
	}
}

// HasMember reports whether the player belongs to this team.
func (t *Team) HasMember(id uuid.UUID) bool {
	for _, m := range t.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// removeMember drops the player from the team, preserving join order.
func (t *Team) removeMember(id uuid.UUID) {
	for i, m := range t.MemberIDs {
		if m == id {
			t.MemberIDs = append(t.MemberIDs[:i], t.MemberIDs[i+1:]...)
			return
		}
	}
}

// reset returns the team to its match-start state without touching
// membership.
func (t *Team) reset() {
	t.Score = 0
	t.WordIndex = 1
	t.TrackPosition = 0
	t.LastTurn = nil
}

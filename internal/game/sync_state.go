// internal/game/sync_state.go
package game

import "github.com/google/uuid"

// TeamSnapshot is one team's public state as shipped to clients.
type TeamSnapshot struct {
	Color         TeamColor    `json:"color"`
	DisplayName   string       `json:"displayName"`
	MemberIDs     []uuid.UUID  `json:"memberIds"`
	Score         int          `json:"score"`
	WordIndex     int          `json:"wordIndex"`
	TrackPosition int          `json:"trackPosition"`
	TrackSpace    SpaceKind    `json:"trackSpace"`
	LastTurn      *TurnSummary `json:"lastTurn,omitempty"`
}

// TurnSnapshot mirrors the active turn. The active card itself is only
// present for the speaker.
type TurnSnapshot struct {
	TeamColor        TeamColor  `json:"teamColor"`
	SpeakerID        uuid.UUID  `json:"speakerId"`
	SecondsRemaining int        `json:"secondsRemaining"`
	CardsWon         int        `json:"cardsWon"`
	CardsPassed      int        `json:"cardsPassed"`
	Penalties        int        `json:"penalties"`
	ActiveCard       *EventCard `json:"activeCard,omitempty"`
}

// PlayerSnapshot is a participant's public presence state.
type PlayerSnapshot struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Connected   bool      `json:"connected"`
}

// MatchSnapshot is sent privately on connect and reconnect so a client
// can rebuild its view. Everything in it is from the requesting player's
// perspective.
type MatchSnapshot struct {
	MatchID   uuid.UUID `json:"matchId"`
	Started   bool      `json:"started"`
	MatchOver bool      `json:"matchOver"`

	Winner *TeamColor `json:"winner,omitempty"`

	TargetScore     int `json:"targetScore"`
	TurnDurationSec int `json:"turnDurationSec"`

	DeckSize      int `json:"deckSize"`
	DeckRemaining int `json:"deckRemaining"`

	Teams   []TeamSnapshot   `json:"teams"`
	Players []PlayerSnapshot `json:"players"`
	Turn    *TurnSnapshot    `json:"turn,omitempty"`
}

// Snapshot generates the state view for one requesting player. The active
// card is revealed only when the requester is the current speaker.
func (m *Match) Snapshot(forPlayer uuid.UUID) MatchSnapshot {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.snapshotLocked(forPlayer)
}

// snapshotLocked assumes the match lock is held.
func (m *Match) snapshotLocked(forPlayer uuid.UUID) MatchSnapshot {
	snap := MatchSnapshot{
		MatchID:         m.ID,
		Started:         m.Started,
		MatchOver:       m.MatchOver,
		Winner:          m.Winner,
		TargetScore:     m.Settings.TargetScore,
		TurnDurationSec: m.Settings.TurnDurationSec,
		DeckSize:        m.deck.Size(),
		DeckRemaining:   m.deck.Remaining(m.usedIDs),
	}

	for _, t := range m.Teams {
		snap.Teams = append(snap.Teams, TeamSnapshot{
			Color:         t.Color,
			DisplayName:   t.DisplayName,
			MemberIDs:     append([]uuid.UUID{}, t.MemberIDs...),
			Score:         t.Score,
			WordIndex:     t.WordIndex,
			TrackPosition: t.TrackPosition,
			TrackSpace:    ClassifyPosition(t.TrackPosition),
			LastTurn:      t.LastTurn,
		})
	}

	for _, p := range m.Players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Connected:   p.Connected,
		})
	}

	if m.Active != nil {
		ts := &TurnSnapshot{
			TeamColor:        m.Active.TeamColor,
			SpeakerID:        m.Active.SpeakerID,
			SecondsRemaining: m.Active.SecondsRemaining,
			CardsWon:         m.Active.CardsWon,
			CardsPassed:      m.Active.CardsPassed,
			Penalties:        m.Active.Penalties,
		}
		if forPlayer == m.Active.SpeakerID {
			ts.ActiveCard = m.activeEventCardLocked()
		}
		snap.Turn = ts
	}

	return snap
}

// internal/game/turn.go
package game

import "github.com/google/uuid"

// Turn models a single team's timed speaking interval. At most one Turn
// exists per match at a time; it is created by StartTurn and discarded by
// EndTurn.
type Turn struct {
	TeamColor TeamColor `json:"teamColor"`
	SpeakerID uuid.UUID `json:"speakerId"`

	SecondsRemaining int `json:"secondsRemaining"`

	CardsWon    int `json:"cardsWon"`
	CardsPassed int `json:"cardsPassed"`
	Penalties   int `json:"penalties"`
}

// TurnResult is the finalized outcome of a turn, handed to the match
// state for scoring and movement.
type TurnResult struct {
	Movement    int `json:"movement"`
	CardsWon    int `json:"cardsWon"`
	CardsPassed int `json:"cardsPassed"`
	Penalties   int `json:"penalties"`
}

// result computes the turn's outcome. Movement is correct guesses minus
// penalties; passes are deliberately free and contribute to neither score
// nor movement.
func (t *Turn) result() TurnResult {
	return TurnResult{
		Movement:    t.CardsWon - t.Penalties,
		CardsWon:    t.CardsWon,
		CardsPassed: t.CardsPassed,
		Penalties:   t.Penalties,
	}
}

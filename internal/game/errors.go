// internal/game/errors.go
package game

import "errors"

// Engine misuse (calling a turn operation in the wrong state) is a logic
// bug upstream and is surfaced, never swallowed. Rotation failures are
// recoverable configuration states: the caller simply must not start a
// turn until a team has members.
var (
	ErrTurnActive        = errors.New("a turn is already active")
	ErrNoActiveTurn      = errors.New("no turn is active")
	ErrMatchOver         = errors.New("match has ended")
	ErrMatchNotStarted   = errors.New("match has not started")
	ErrNoEligibleTeam    = errors.New("no team has any members")
	ErrNoEligibleSpeaker = errors.New("team has no connected members")
	ErrSpeakerNotOnTeam  = errors.New("speaker is not a member of the team")
)

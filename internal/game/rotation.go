// internal/game/rotation.go
package game

import (
	"github.com/google/uuid"

	"github.com/wordrush-io/wordrush/internal/models"
)

// NextTeam returns the team that speaks after current, considering only
// teams with at least one member. If the current team is the sole
// eligible team it keeps the turn. Returns ErrNoEligibleTeam when no team
// has any members.
func NextTeam(current TeamColor, teams *[NumTeamColors]*Team) (TeamColor, error) {
	anyEligible := false
	for _, t := range teams {
		if len(t.MemberIDs) > 0 {
			anyEligible = true
			break
		}
	}
	if !anyEligible {
		return 0, ErrNoEligibleTeam
	}

	c := current.next()
	for c != current {
		if len(teams[c].MemberIDs) > 0 {
			return c, nil
		}
		c = c.next()
	}
	// Wrapped all the way around: current is the only eligible team (or
	// current itself is eligible again).
	if len(teams[current].MemberIDs) > 0 {
		return current, nil
	}
	return 0, ErrNoEligibleTeam
}

// NextSpeaker picks the team member who speaks next. Eligible speakers
// are connected members, in the order they joined the team. If the
// current speaker is not among them the first eligible member speaks;
// otherwise the member after them, wrapping around. Returns
// ErrNoEligibleSpeaker when no connected member exists.
func NextSpeaker(team *Team, players []*models.Player, currentSpeaker uuid.UUID) (uuid.UUID, error) {
	connected := make(map[uuid.UUID]bool, len(players))
	for _, p := range players {
		if p.Connected {
			connected[p.ID] = true
		}
	}

	eligible := make([]uuid.UUID, 0, len(team.MemberIDs))
	for _, id := range team.MemberIDs {
		if connected[id] {
			eligible = append(eligible, id)
		}
	}
	if len(eligible) == 0 {
		return uuid.Nil, ErrNoEligibleSpeaker
	}
	if len(eligible) == 1 {
		return eligible[0], nil
	}

	for i, id := range eligible {
		if id == currentSpeaker {
			return eligible[(i+1)%len(eligible)], nil
		}
	}
	return eligible[0], nil
}

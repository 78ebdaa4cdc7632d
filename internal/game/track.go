// internal/game/track.go
package game

// FinishPosition is the final cell of the legacy cosmetic board.
const FinishPosition = 48

// SpaceKind classifies a board cell for track visualization. It never
// gates scoring; the word-index ruleset is authoritative.
type SpaceKind string

const (
	SpaceNormal    SpaceKind = "normal"
	SpaceBonus     SpaceKind = "bonus"
	SpaceLightning SpaceKind = "lightning"
	SpaceSwitch    SpaceKind = "switch"
	SpaceSteal     SpaceKind = "steal"
)

// ClassifyPosition maps a track position to its special-space category.
// Bonus outranks the other kinds on overlapping cells.
func ClassifyPosition(position int) SpaceKind {
	if position > 0 && (position%8 == 0 || position == FinishPosition) {
		return SpaceBonus
	}
	switch position {
	case 15, 30, 45:
		return SpaceLightning
	case 10, 20, 35, 44:
		return SpaceSwitch
	case 12, 36:
		return SpaceSteal
	}
	return SpaceNormal
}

// WrapWordIndex applies a signed movement to a 1-based word index on the
// cyclic 8-slot track. Negative movement wraps backward instead of going
// out of range.
func WrapWordIndex(wordIndex, movement int) int {
	const slots = 8
	n := wordIndex - 1 + movement
	return ((n%slots)+slots)%slots + 1
}

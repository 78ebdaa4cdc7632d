// internal/game/track_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapWordIndexStaysInRange(t *testing.T) {
	for start := 1; start <= 8; start++ {
		for movement := -20; movement <= 20; movement++ {
			got := WrapWordIndex(start, movement)
			assert.GreaterOrEqual(t, got, 1, "start=%d movement=%d", start, movement)
			assert.LessOrEqual(t, got, 8, "start=%d movement=%d", start, movement)
		}
	}
}

func TestWrapWordIndexRoundTrip(t *testing.T) {
	// Applying movement then -movement returns to the original index.
	for start := 1; start <= 8; start++ {
		for movement := -20; movement <= 20; movement++ {
			forward := WrapWordIndex(start, movement)
			back := WrapWordIndex(forward, -movement)
			assert.Equal(t, start, back, "start=%d movement=%d", start, movement)
		}
	}
}

func TestWrapWordIndexExamples(t *testing.T) {
	assert.Equal(t, 3, WrapWordIndex(1, 2))
	assert.Equal(t, 1, WrapWordIndex(1, 8))
	assert.Equal(t, 8, WrapWordIndex(1, -1), "negative movement wraps backward")
	assert.Equal(t, 7, WrapWordIndex(3, -4))
}

func TestClassifyPosition(t *testing.T) {
	cases := map[int]SpaceKind{
		0:  SpaceNormal,
		1:  SpaceNormal,
		8:  SpaceBonus,
		16: SpaceBonus,
		48: SpaceBonus, // finish cell
		15: SpaceLightning,
		30: SpaceLightning,
		45: SpaceLightning,
		10: SpaceSwitch,
		20: SpaceSwitch,
		35: SpaceSwitch,
		44: SpaceSwitch,
		12: SpaceSteal,
		36: SpaceSteal,
		13: SpaceNormal,
	}
	for pos, want := range cases {
		assert.Equal(t, want, ClassifyPosition(pos), "position %d", pos)
	}
}

func TestClassifyPositionBonusPrecedence(t *testing.T) {
	// Cells that are multiples of 8 are always bonus, whatever else they
	// might overlap with.
	for pos := 8; pos <= FinishPosition; pos += 8 {
		assert.Equal(t, SpaceBonus, ClassifyPosition(pos), "position %d", pos)
	}
}

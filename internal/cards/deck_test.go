// internal/cards/deck_test.go
package cards

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSetValid(t *testing.T) {
	set := DefaultSet()
	require.NotEmpty(t, set)

	seen := map[string]bool{}
	for _, c := range set {
		require.NoError(t, validateCard(c))
		assert.False(t, seen[c.ID], "duplicate card id %s", c.ID)
		seen[c.ID] = true
	}
}

func TestWordAtWraps(t *testing.T) {
	c := DefaultSet()[0]
	assert.Equal(t, c.Words[0], c.WordAt(1))
	assert.Equal(t, c.Words[7], c.WordAt(8))
	// Out-of-range indexes normalize onto the 8-slot cycle.
	assert.Equal(t, c.Words[0], c.WordAt(9))
	assert.Equal(t, c.Words[7], c.WordAt(0))
}

func TestFilterConjunctive(t *testing.T) {
	set := DefaultSet()

	easy := Filter(set, CategoryAny, DifficultyEasy)
	require.NotEmpty(t, easy)
	for _, c := range easy {
		assert.Equal(t, DifficultyEasy, c.Difficulty)
	}

	natureHard := Filter(set, CategoryNature, DifficultyHard)
	for _, c := range natureHard {
		assert.Equal(t, CategoryNature, c.Category)
		assert.Equal(t, DifficultyHard, c.Difficulty)
	}

	// An impossible combination yields an empty, non-nil slice.
	none := Filter(set, Category("bogus"), DifficultyHard)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestDrawWithoutReplacement(t *testing.T) {
	deck := NewDeck(DefaultSet(), CategoryAny, DifficultyAny)
	used := map[string]struct{}{}

	n := deck.Size()
	require.Greater(t, n, 0)

	// Drawing N times while the caller tracks used IDs must yield N
	// distinct cards before the pool is exhausted.
	for i := 0; i < n; i++ {
		c := deck.Draw(used)
		require.NotNil(t, c, "draw %d returned nil before exhaustion", i)
		_, dup := used[c.ID]
		require.False(t, dup, "card %s drawn twice", c.ID)
		used[c.ID] = struct{}{}
	}

	assert.True(t, deck.Exhausted(used))
	assert.Nil(t, deck.Draw(used), "exhausted deck must return nil until used IDs are cleared")

	// Clearing the used set (the caller's reshuffle) makes draws succeed again.
	used = map[string]struct{}{}
	assert.NotNil(t, deck.Draw(used))
}

func TestDrawEmptyPool(t *testing.T) {
	deck := NewDeck(nil, CategoryAny, DifficultyAny)
	assert.Nil(t, deck.Draw(map[string]struct{}{}))
	assert.Equal(t, 0, deck.Size())
	assert.True(t, deck.Exhausted(map[string]struct{}{}))
}

func TestLoadSet(t *testing.T) {
	good := `[
		{"id": "x-1", "category": "objects", "difficulty": "easy",
		 "words": ["a","b","c","d","e","f","g","h"]}
	]`
	set, err := LoadSet(strings.NewReader(good))
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, "x-1", set[0].ID)
	assert.Equal(t, "h", set[0].WordAt(8))

	short := `[{"id": "x-2", "words": ["a","b","c"]}]`
	_, err = LoadSet(strings.NewReader(short))
	require.Error(t, err, "cards with fewer than 8 words must be rejected")

	noID := `[{"words": ["a","b","c","d","e","f","g","h"]}]`
	_, err = LoadSet(strings.NewReader(noID))
	require.Error(t, err)
}

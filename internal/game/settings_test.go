// internal/game/settings_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordrush-io/wordrush/internal/cards"
)

func TestSettingsUpdate(t *testing.T) {
	s := DefaultMatchSettings()

	err := s.Update(map[string]interface{}{
		"turnDurationSec": float64(45),
		"targetScore":     float64(50),
		"category":        "nature",
		"difficulty":      "hard",
		"language":        "en",
	})
	require.NoError(t, err)
	assert.Equal(t, 45, s.TurnDurationSec)
	assert.Equal(t, 50, s.TargetScore)
	assert.Equal(t, cards.CategoryNature, s.Category)
	assert.Equal(t, cards.DifficultyHard, s.Difficulty)
}

func TestSettingsUpdateIgnoresAbsentKeys(t *testing.T) {
	s := DefaultMatchSettings()
	orig := s

	require.NoError(t, s.Update(map[string]interface{}{"targetScore": 40}))
	assert.Equal(t, 40, s.TargetScore)
	assert.Equal(t, orig.TurnDurationSec, s.TurnDurationSec)
	assert.Equal(t, orig.Language, s.Language)
}

func TestSettingsUpdateNullKeepsFilters(t *testing.T) {
	s := DefaultMatchSettings()
	require.NoError(t, s.Update(map[string]interface{}{
		"category":   "nature",
		"difficulty": "hard",
	}))

	// An explicit JSON null decodes to a nil interface value; it must
	// leave the filter alone rather than reset it to "any".
	require.NoError(t, s.Update(map[string]interface{}{
		"category":   nil,
		"difficulty": nil,
	}))
	assert.Equal(t, cards.CategoryNature, s.Category)
	assert.Equal(t, cards.DifficultyHard, s.Difficulty)
}

func TestSettingsUpdateRejectsBadValues(t *testing.T) {
	s := DefaultMatchSettings()

	assert.Error(t, s.Update(map[string]interface{}{"targetScore": "ten"}))
	assert.Error(t, s.Update(map[string]interface{}{"turnDurationSec": float64(0)}))
	assert.Error(t, s.Update(map[string]interface{}{"maxPlayers": float64(1)}))
}

func TestParseTeamColor(t *testing.T) {
	for _, c := range AllTeamColors() {
		parsed, err := ParseTeamColor(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	_, err := ParseTeamColor("purple")
	require.Error(t, err)
}

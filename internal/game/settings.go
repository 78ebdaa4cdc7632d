// internal/game/settings.go
package game

import (
	"fmt"

	"github.com/wordrush-io/wordrush/internal/cards"
)

// MatchSettings is the configuration a room hands to a match. The engine
// only reads it; updates happen through Update before a match starts.
type MatchSettings struct {
	TurnDurationSec int              `json:"turnDurationSec"` // length of each speaking turn
	TargetScore     int              `json:"targetScore"`     // score needed to win the match
	Category        cards.Category   `json:"category"`        // card category filter; empty => any
	Difficulty      cards.Difficulty `json:"difficulty"`      // card difficulty filter; empty => any
	Language        string           `json:"language"`        // card set language
	MaxPlayers      int              `json:"maxPlayers"`      // room capacity
}

// DefaultMatchSettings returns the settings used when a room does not
// override anything.
func DefaultMatchSettings() MatchSettings {
	return MatchSettings{
		TurnDurationSec: 60,
		TargetScore:     30,
		Category:        cards.CategoryAny,
		Difficulty:      cards.DifficultyAny,
		Language:        "en",
		MaxPlayers:      12,
	}
}

// Update applies the provided fields to the settings. Absent or nil keys
// keep their old value.
func (s *MatchSettings) Update(newSettings map[string]interface{}) error {
	var ok bool

	assignString := func(field *string, key string) error {
		if val, exists := newSettings[key]; exists && val != nil {
			*field, ok = val.(string)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
		}
		return nil
	}

	assignInt := func(field *int, key string, minVal int, validationMsg string) error {
		if val, exists := newSettings[key]; exists && val != nil {
			// JSON numbers arrive as float64; accept int too.
			floatVal, isFloat := val.(float64)
			if isFloat {
				*field = int(floatVal)
			} else {
				intVal, isInt := val.(int)
				if !isInt {
					return fmt.Errorf("invalid type for %s", key)
				}
				*field = intVal
			}
			if *field < minVal {
				return fmt.Errorf("%s", validationMsg)
			}
		}
		return nil
	}

	if err := assignInt(&s.TurnDurationSec, "turnDurationSec", 1, "turnDurationSec must be positive"); err != nil {
		return err
	}
	if err := assignInt(&s.TargetScore, "targetScore", 1, "targetScore must be positive"); err != nil {
		return err
	}
	if err := assignInt(&s.MaxPlayers, "maxPlayers", 2, "maxPlayers must be at least 2"); err != nil {
		return err
	}

	if val, exists := newSettings["category"]; exists && val != nil {
		strVal, isStr := val.(string)
		if !isStr {
			return fmt.Errorf("invalid type for category")
		}
		s.Category = cards.Category(strVal)
	}
	if val, exists := newSettings["difficulty"]; exists && val != nil {
		strVal, isStr := val.(string)
		if !isStr {
			return fmt.Errorf("invalid type for difficulty")
		}
		s.Difficulty = cards.Difficulty(strVal)
	}
	if err := assignString(&s.Language, "language"); err != nil {
		return err
	}

	return nil
}

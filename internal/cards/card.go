// internal/cards/card.go
package cards

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WordsPerCard is the number of prompt words printed on every card. The
// team's word index (1..8) selects which of them is the active explain
// target.
const WordsPerCard = 8

// Category buckets cards by theme. An empty category on a card means it
// belongs to no particular theme and survives every category filter.
type Category string

const (
	CategoryAny     Category = ""
	CategoryObjects Category = "objects"
	CategoryNature  Category = "nature"
	CategoryActions Category = "actions"
	CategoryPeople  Category = "people"
)

// Difficulty grades how hard a card's words are to explain.
type Difficulty string

const (
	DifficultyAny    Difficulty = ""
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Card is a single immutable prompt card. Identity is the ID; the words
// array always holds exactly WordsPerCard non-empty entries once loaded.
type Card struct {
	ID         string              `json:"id"`
	Category   Category            `json:"category,omitempty"`
	Difficulty Difficulty          `json:"difficulty,omitempty"`
	Words      [WordsPerCard]string `json:"words"`
}

// WordAt returns the word selected by a 1-based word index. The index is
// normalized onto [1, WordsPerCard] so callers can pass a raw track index.
func (c *Card) WordAt(wordIndex int) string {
	i := ((wordIndex-1)%WordsPerCard + WordsPerCard) % WordsPerCard
	return c.Words[i]
}

// LoadSet decodes a JSON card set from r and validates every card.
func LoadSet(r io.Reader) ([]*Card, error) {
	var set []*Card
	if err := json.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode card set: %w", err)
	}
	for i, c := range set {
		if err := validateCard(c); err != nil {
			return nil, fmt.Errorf("card %d (%q): %w", i, c.ID, err)
		}
	}
	return set, nil
}

// LoadSetFile reads a card set from a JSON file on disk.
func LoadSetFile(path string) ([]*Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open card set file: %w", err)
	}
	defer f.Close()
	return LoadSet(f)
}

func validateCard(c *Card) error {
	if c.ID == "" {
		return fmt.Errorf("missing card id")
	}
	for i, w := range c.Words {
		if w == "" {
			return fmt.Errorf("empty word at slot %d", i)
		}
	}
	return nil
}

// Filter returns the subset of cards matching both the category and the
// difficulty. The zero value of either means "any". An empty result is
// legal; the caller decides whether to warn.
func Filter(set []*Card, category Category, difficulty Difficulty) []*Card {
	out := make([]*Card, 0, len(set))
	for _, c := range set {
		if category != CategoryAny && c.Category != category {
			continue
		}
		if difficulty != DifficultyAny && c.Difficulty != difficulty {
			continue
		}
		out = append(out, c)
	}
	return out
}

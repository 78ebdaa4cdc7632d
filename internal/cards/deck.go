// internal/cards/deck.go
package cards

import (
	"math/rand"
	"time"
)

// Deck is the filtered pool of cards for one language/filter combination.
// The card list is immutable after construction and safe for concurrent
// reads; used-ID tracking belongs to the caller, which keeps draws
// idempotent with respect to the deck itself.
type Deck struct {
	cards []*Card
	rng   *rand.Rand
}

// NewDeck builds a deck over the subset of set matching the filter.
func NewDeck(set []*Card, category Category, difficulty Difficulty) *Deck {
	return &Deck{
		cards: Filter(set, category, difficulty),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Size returns the number of cards in the filtered pool.
func (d *Deck) Size() int {
	return len(d.cards)
}

// Remaining counts cards whose IDs are not in used.
func (d *Deck) Remaining(used map[string]struct{}) int {
	n := 0
	for _, c := range d.cards {
		if _, ok := used[c.ID]; !ok {
			n++
		}
	}
	return n
}

// Exhausted reports whether every card in the pool appears in used.
func (d *Deck) Exhausted(used map[string]struct{}) bool {
	return d.Remaining(used) == 0
}

// Draw picks one card uniformly at random among cards not present in used.
// It returns nil if no eligible card exists; it never mutates used.
func (d *Deck) Draw(used map[string]struct{}) *Card {
	eligible := make([]*Card, 0, len(d.cards))
	for _, c := range d.cards {
		if _, ok := used[c.ID]; !ok {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	return eligible[d.rng.Intn(len(eligible))]
}

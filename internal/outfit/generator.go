// Package outfit ranks outfits built from a closet snapshot.
package outfit

import (
	"sort"

	"github.com/capsule-closet/capsule-be/internal/models"
)

// MaxSuggestions caps the ranked list returned by Generate.
const MaxSuggestions = 5

// Generate scores every combination in the inventory and returns the best
// MaxSuggestions, highest score first. Ties keep generation order.
func Generate(inventory []models.ClothingItem, cons Constraints) []Suggestion {
	return Rank(Combinations(inventory), cons)
}

// Rank scores already generated combinations the way Generate does.
func Rank(combos []Combination, cons Constraints) []Suggestion {
	cons.Now = cons.now()
	out := make([]Suggestion, 0, len(combos))
	for _, c := range combos {
		out = append(out, Score(c, cons))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

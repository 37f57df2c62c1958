package outfit

import (
	"fmt"
	"strings"
	"time"

	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/tags"
)

// Rule points.
const (
	recentlyWornPenalty   = -10
	greatHarmonyBonus     = 10
	goodHarmonyBonus      = 5
	perfectOccasionBonus  = 5
	partialOccasionBonus  = 2
	silhouetteBonus       = 5
	greatHarmonyThreshold = 10
	goodHarmonyThreshold  = 5
)

// RotationWindow is how long a worn item keeps penalizing outfits.
const RotationWindow = 3 * 24 * time.Hour

const defaultReason = "Good classic combo"

// Constraints tune scoring. A zero Occasion disables the occasion rule and
// a zero Now means the wall clock.
type Constraints struct {
	Occasion models.Occasion
	Now      time.Time
}

func (c Constraints) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

// Suggestion is a scored outfit.
type Suggestion struct {
	Items  []models.ClothingItem `json:"items"`
	Score  int                   `json:"score"`
	Reason string                `json:"reason"`
}

// Score evaluates every rule against the combination.
func Score(c Combination, cons Constraints) Suggestion {
	items := c.Items()
	score := 0
	var reasons []string

	cutoff := cons.now().Add(-RotationWindow)
	for _, it := range items {
		if it.WornSince(cutoff) {
			score += recentlyWornPenalty
			reasons = append(reasons, "Recently worn")
			break
		}
	}

	colorScore := 0
	if len(items) >= 2 {
		colorScore += Harmony(items[0].Colors, items[1].Colors)
		if len(items) > 2 {
			colorScore += Harmony(items[1].Colors, items[2].Colors)
		}
	}
	switch {
	case colorScore > greatHarmonyThreshold:
		score += greatHarmonyBonus
		reasons = append(reasons, "Great color harmony")
	case colorScore > goodHarmonyThreshold:
		score += goodHarmonyBonus
	}

	if cons.Occasion != "" {
		matched := 0
		for _, it := range items {
			if hasOccasion(it, cons.Occasion) {
				matched++
			}
		}
		switch {
		case matched == len(items):
			score += perfectOccasionBonus
			reasons = append(reasons, fmt.Sprintf("Perfect for %s", cons.Occasion))
		case matched > 0:
			score += partialOccasionBonus
		}
	}

	if c.Top != nil && c.Bottom != nil {
		if tags.Has(c.Top.Tags, "oversized") && tags.Has(c.Bottom.Tags, "fitted") {
			score += silhouetteBonus
			reasons = append(reasons, "Balanced silhouette (Volume + Fitted)")
		}
		if tags.Has(c.Top.Tags, "cropped") && tags.Has(c.Bottom.Tags, "high-waist") {
			score += silhouetteBonus
			reasons = append(reasons, "Modern proportions (Crop + High Waist)")
		}
	}

	reason := strings.Join(reasons, ". ")
	if reason == "" {
		reason = defaultReason
	}
	return Suggestion{Items: items, Score: score, Reason: reason}
}

func hasOccasion(it models.ClothingItem, want models.Occasion) bool {
	for _, o := range it.Occasions {
		if o.Matches(want) {
			return true
		}
	}
	return false
}

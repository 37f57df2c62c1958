package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the garment slot an item fills. It never changes after creation.
type Category string

const (
	CategoryTop       Category = "top"
	CategoryBottom    Category = "bottom"
	CategoryDress     Category = "dress"
	CategoryShoes     Category = "shoes"
	CategoryAccessory Category = "accessory"
)

// ParseCategory normalizes a category label.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryTop, CategoryBottom, CategoryDress, CategoryShoes, CategoryAccessory:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Occasion is an event label an item is suitable for.
type Occasion string

const (
	OccasionCasual Occasion = "casual"
	OccasionWork   Occasion = "work"
	OccasionFormal Occasion = "formal"
	OccasionParty  Occasion = "party"
	OccasionSport  Occasion = "sport"
	OccasionDate   Occasion = "date"
)

// ParseOccasion normalizes an occasion label.
func ParseOccasion(s string) (Occasion, error) {
	switch o := Occasion(strings.ToLower(strings.TrimSpace(s))); o {
	case OccasionCasual, OccasionWork, OccasionFormal, OccasionParty, OccasionSport, OccasionDate:
		return o, nil
	}
	return "", fmt.Errorf("unknown occasion %q", s)
}

// Matches compares occasion labels ignoring case and surrounding space.
func (o Occasion) Matches(other Occasion) bool {
	return strings.EqualFold(strings.TrimSpace(string(o)), strings.TrimSpace(string(other)))
}

// ClothingItem is one garment in a user's closet.
type ClothingItem struct {
	ID          string          `json:"id"`
	UserID      int64           `json:"user_id"`
	ImageURL    string          `json:"image_url"`
	Category    Category        `json:"category"`
	Colors      []string        `json:"colors"`
	Occasions   []Occasion      `json:"occasions"`
	Tags        []string        `json:"tags"`
	LastWorn    *time.Time      `json:"last_worn"`
	CostPerWear decimal.Decimal `json:"cost_per_wear"`
	CreatedAt   time.Time       `json:"created_at"`
}

// WornSince reports whether the item was last worn after t.
func (c ClothingItem) WornSince(t time.Time) bool {
	return c.LastWorn != nil && c.LastWorn.After(t)
}

// WearUpdate carries the only fields wear recording is allowed to change.
type WearUpdate struct {
	LastWorn    time.Time
	Tags        []string
	CostPerWear decimal.Decimal
}

// SavedOutfit is a combination of items the user chose to keep.
type SavedOutfit struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	ItemIDs   []string  `json:"items"`
	Occasion  Occasion  `json:"occasion,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

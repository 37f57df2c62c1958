package dto

import "github.com/capsule-closet/capsule-be/internal/outfit"

type CreateItemRequest struct {
	ImageURL  string   `json:"image_url"`
	Category  string   `json:"category"`
	Colors    []string `json:"colors"`
	Occasions []string `json:"occasions"`
	Size      string   `json:"size"`
	Price     string   `json:"price"`
}

type WearRequest struct {
	ItemIDs []string `json:"item_ids"`
}

type SaveOutfitRequest struct {
	ItemIDs  []string `json:"item_ids"`
	Occasion string   `json:"occasion"`
}

type SuggestionsResponse struct {
	Occasion    string              `json:"occasion,omitempty"`
	Suggestions []outfit.Suggestion `json:"suggestions"`
}

package dto

import "github.com/capsule-closet/capsule-be/internal/models"

// CreditStatus is the session view of a user's credits.
type CreditStatus struct {
	Tier             models.Tier `json:"tier"`
	CreditsRemaining int         `json:"credits_remaining"`
	Allotment        int         `json:"allotment"`
	Busy             bool        `json:"busy"`
}

type PurchaseRequest struct {
	ProductID string `json:"product_id"`
}

type SyncResponse struct {
	CreditStatus
	Changed bool `json:"changed"`
}

type TryOnRequest struct {
	ItemID string `json:"item_id"`
	// Photo is the base64 encoded person image.
	Photo string `json:"photo"`
}

type TryOnResponse struct {
	ImageURL string       `json:"image_url"`
	Credits  CreditStatus `json:"credits"`
}

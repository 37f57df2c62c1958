package models

import "time"

// StartingCredits is granted to every account on first sign-in.
const StartingCredits = 3

// CreditAccount is the server-of-record credit state for a user.
type CreditAccount struct {
	UserID           int64     `json:"user_id"`
	Tier             Tier      `json:"tier"`
	CreditsRemaining int       `json:"credits_remaining"`
	CreditsResetDate time.Time `json:"credits_reset_date"`
	TotalGenerations int       `json:"total_generations"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// GenerationType identifies the paid feature a credit was spent on.
type GenerationType string

const (
	GenerationTryOn  GenerationType = "tryon"
	GenerationOutfit GenerationType = "outfit"
)

// GenerationLog is an append-only audit record of a spent credit.
type GenerationLog struct {
	ID        string         `json:"id"`
	UserID    int64          `json:"user_id"`
	Type      GenerationType `json:"type"`
	Cost      int            `json:"cost"`
	CreatedAt time.Time      `json:"created_at"`
}

// CreditReset is one row of a bulk monthly reset.
type CreditReset struct {
	UserID           int64
	CreditsRemaining int
	CreditsResetDate time.Time
}

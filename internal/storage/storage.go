package storage

import (
	"context"
	"errors"
	"time"

	"github.com/capsule-closet/capsule-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrInsufficientCredits indicates a conditional deduction found fewer
// credits than requested.
var ErrInsufficientCredits = errors.New("insufficient credits")

// UserStore captures persistence operations needed by the auth handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error)
}

// AccountStore is the server of record for credit balances.
type AccountStore interface {
	// EnsureAccount creates the account with the given starting balance when
	// it does not exist yet and returns the stored account either way.
	EnsureAccount(ctx context.Context, userID int64, startingCredits int) (models.CreditAccount, error)
	GetAccount(ctx context.Context, userID int64) (models.CreditAccount, error)
	// DeductCredit decrements the balance only when at least cost credits
	// remain, returning ErrInsufficientCredits otherwise.
	DeductCredit(ctx context.Context, userID int64, cost int) (int, error)
	// AdjustCredits atomically adds delta (boosters).
	AdjustCredits(ctx context.Context, userID int64, delta int) (int, error)
	// RefundCredit undoes a DeductCredit: the cost goes back to the balance
	// and the generation no longer counts towards total_generations.
	RefundCredit(ctx context.Context, userID int64, cost int) (int, error)
	AppendLog(ctx context.Context, entry models.GenerationLog) error
	// UpdateTier writes the tier and, when credits is non-nil, also resets the
	// balance and reset date.
	UpdateTier(ctx context.Context, userID int64, tier models.Tier, credits *int, resetDate time.Time) error
	ListPaidAccountsResetBefore(ctx context.Context, cutoff time.Time) ([]models.CreditAccount, error)
	ApplyResets(ctx context.Context, resets []models.CreditReset) error
}

// InventoryStore holds the clothing items of every user.
type InventoryStore interface {
	ListItems(ctx context.Context, userID int64) ([]models.ClothingItem, error)
	GetItem(ctx context.Context, userID int64, itemID string) (models.ClothingItem, error)
	CountItems(ctx context.Context, userID int64) (int, error)
	CreateItem(ctx context.Context, item models.ClothingItem) error
	UpdateWear(ctx context.Context, userID int64, itemID string, update models.WearUpdate) error
}

// OutfitStore keeps the outfits users saved.
type OutfitStore interface {
	SaveOutfit(ctx context.Context, outfit models.SavedOutfit) error
	ListOutfits(ctx context.Context, userID int64) ([]models.SavedOutfit, error)
	CountOutfits(ctx context.Context, userID int64) (int, error)
}

// BlobStore keeps generated images.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignedURL(ctx context.Context, key string) (string, error)
}

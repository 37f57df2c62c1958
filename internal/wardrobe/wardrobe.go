// Package wardrobe manages closet items and saved outfits: ingestion, wear
// recording, suggestions and usage statistics.
package wardrobe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/capsule-closet/capsule-be/internal/metrics"
	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/outfit"
	"github.com/capsule-closet/capsule-be/internal/storage"
	"github.com/capsule-closet/capsule-be/internal/tags"
)

// DefaultItemLimit caps the closet size of free accounts.
const DefaultItemLimit = 30

// UtilizationWindow is how far back a wear counts towards utilization.
const UtilizationWindow = 30 * 24 * time.Hour

// ErrItemLimit is returned when a free account's closet is full.
var ErrItemLimit = errors.New("free tier item limit reached")

// ErrEmptyOutfit is returned when an outfit names no items.
var ErrEmptyOutfit = errors.New("outfit has no items")

// NewItem is the input of AddItem.
type NewItem struct {
	UserID    int64
	ImageURL  string
	Category  models.Category
	Colors    []string
	Occasions []models.Occasion
	Size      string
	Price     string
}

// Stats summarizes a closet.
type Stats struct {
	ItemCount   int `json:"item_count"`
	OutfitCount int `json:"outfit_count"`
	Utilization int `json:"utilization"`
}

// Service is the closet use case layer over an InventoryStore.
type Service struct {
	items     storage.InventoryStore
	outfits   storage.OutfitStore
	logger    *zap.Logger
	metrics   *metrics.Metrics
	itemLimit int
	now       func() time.Time
}

// NewService builds a Service. A non-positive itemLimit selects
// DefaultItemLimit; m may be nil.
func NewService(items storage.InventoryStore, outfits storage.OutfitStore, logger *zap.Logger, m *metrics.Metrics, itemLimit int) *Service {
	if itemLimit <= 0 {
		itemLimit = DefaultItemLimit
	}
	return &Service{
		items:     items,
		outfits:   outfits,
		logger:    logger.Named("wardrobe"),
		metrics:   m,
		itemLimit: itemLimit,
		now:       time.Now,
	}
}

// List returns the user's closet.
func (s *Service) List(ctx context.Context, userID int64) ([]models.ClothingItem, error) {
	return s.items.ListItems(ctx, userID)
}

// Item returns one garment owned by the user.
func (s *Service) Item(ctx context.Context, userID int64, itemID string) (models.ClothingItem, error) {
	return s.items.GetItem(ctx, userID, itemID)
}

// AddItem stores a new garment with its size, price and a zero wear count in
// the tag ledger.
func (s *Service) AddItem(ctx context.Context, tier models.Tier, in NewItem) (models.ClothingItem, error) {
	if !tier.IsPaid() {
		n, err := s.items.CountItems(ctx, in.UserID)
		if err != nil {
			return models.ClothingItem{}, fmt.Errorf("count items: %w", err)
		}
		if n >= s.itemLimit {
			return models.ClothingItem{}, ErrItemLimit
		}
	}

	var itemTags []string
	if size := strings.TrimSpace(in.Size); size != "" {
		itemTags = tags.Set(itemTags, tags.KeySize, size)
	}
	if price, ok := tags.ParseMoney(in.Price); ok {
		itemTags = tags.Set(itemTags, tags.KeyPrice, price.StringFixed(2))
	}
	itemTags = tags.Set(itemTags, tags.KeyWears, "0")

	item := models.ClothingItem{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		Colors:      in.Colors,
		Occasions:   in.Occasions,
		Tags:        itemTags,
		CostPerWear: decimal.Zero,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.items.CreateItem(ctx, item); err != nil {
		return models.ClothingItem{}, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

// RecordWear marks every item as worn now. The wear counter goes up by one
// and, when a price is known, cost per wear becomes price / wears. A repeated
// id counts once. Items are updated one by one: on error the items already
// updated stay worn and are returned alongside the error.
func (s *Service) RecordWear(ctx context.Context, userID int64, itemIDs []string) ([]models.ClothingItem, error) {
	now := s.now().UTC()
	ids := uniqueIDs(itemIDs)
	out := make([]models.ClothingItem, 0, len(ids))
	for _, id := range ids {
		item, err := s.items.GetItem(ctx, userID, id)
		if err != nil {
			return out, fmt.Errorf("item %s: %w", id, err)
		}
		update := wearUpdate(item, now)
		if err := s.items.UpdateWear(ctx, userID, id, update); err != nil {
			return out, fmt.Errorf("record wear %s: %w", id, err)
		}
		item.LastWorn = &update.LastWorn
		item.Tags = update.Tags
		item.CostPerWear = update.CostPerWear
		out = append(out, item)
	}
	s.logger.Debug("wear recorded", zap.Int64("user_id", userID), zap.Int("items", len(out)))
	return out, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func wearUpdate(item models.ClothingItem, now time.Time) models.WearUpdate {
	next, wears := tags.IncrementInt(item.Tags, tags.KeyWears, 1, 0)
	cpw := item.CostPerWear
	if raw, ok := tags.Get(next, tags.KeyPrice); ok && wears > 0 {
		if price, ok := tags.ParseMoney(raw); ok {
			cpw = price.Div(decimal.NewFromInt(int64(wears))).Round(2)
		}
	}
	return models.WearUpdate{LastWorn: now, Tags: next, CostPerWear: cpw}
}

// Suggest ranks outfits from the user's closet. A zero occasion disables the
// occasion bonus.
func (s *Service) Suggest(ctx context.Context, userID int64, occasion models.Occasion) ([]outfit.Suggestion, error) {
	items, err := s.items.ListItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	combos := outfit.Combinations(items)
	s.metrics.CandidatesScored(len(combos))
	return outfit.Rank(combos, outfit.Constraints{Occasion: occasion, Now: s.now()}), nil
}

// SaveOutfit keeps a combination of the user's items. Every item must exist
// in the user's closet; repeated ids are stored once.
func (s *Service) SaveOutfit(ctx context.Context, userID int64, itemIDs []string, occasion models.Occasion) (models.SavedOutfit, error) {
	ids := uniqueIDs(itemIDs)
	if len(ids) == 0 {
		return models.SavedOutfit{}, ErrEmptyOutfit
	}
	for _, id := range ids {
		if _, err := s.items.GetItem(ctx, userID, id); err != nil {
			return models.SavedOutfit{}, fmt.Errorf("item %s: %w", id, err)
		}
	}
	o := models.SavedOutfit{
		ID:        uuid.NewString(),
		UserID:    userID,
		ItemIDs:   ids,
		Occasion:  occasion,
		CreatedAt: s.now().UTC(),
	}
	if err := s.outfits.SaveOutfit(ctx, o); err != nil {
		return models.SavedOutfit{}, fmt.Errorf("save outfit: %w", err)
	}
	s.logger.Debug("outfit saved", zap.Int64("user_id", userID), zap.Int("items", len(ids)))
	return o, nil
}

// Outfits lists the user's saved outfits.
func (s *Service) Outfits(ctx context.Context, userID int64) ([]models.SavedOutfit, error) {
	return s.outfits.ListOutfits(ctx, userID)
}

// Stats counts items and saved outfits, and the share of items worn within
// UtilizationWindow as a rounded percentage.
func (s *Service) Stats(ctx context.Context, userID int64) (Stats, error) {
	items, err := s.items.ListItems(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("list items: %w", err)
	}
	saved, err := s.outfits.CountOutfits(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("count outfits: %w", err)
	}
	if len(items) == 0 {
		return Stats{OutfitCount: saved}, nil
	}
	cutoff := s.now().Add(-UtilizationWindow)
	worn := 0
	for _, it := range items {
		if it.WornSince(cutoff) {
			worn++
		}
	}
	pct := math.Round(float64(worn) / float64(len(items)) * 100)
	return Stats{ItemCount: len(items), OutfitCount: saved, Utilization: int(pct)}, nil
}

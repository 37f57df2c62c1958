package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/storage"
)

const outfitsCollection = "outfits"

var _ storage.OutfitStore = (*OutfitStore)(nil)

// OutfitStore is the Mongo-backed storage.OutfitStore.
type OutfitStore struct {
	outfits *mongo.Collection
}

type outfitDocument struct {
	ID        string    `bson:"_id"`
	UserID    int64     `bson:"user_id"`
	Items     []string  `bson:"items"`
	Occasion  string    `bson:"occasion,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// SaveOutfit inserts a saved outfit.
func (s *OutfitStore) SaveOutfit(ctx context.Context, o models.SavedOutfit) error {
	doc := outfitDocument{
		ID:        o.ID,
		UserID:    o.UserID,
		Items:     o.ItemIDs,
		Occasion:  string(o.Occasion),
		CreatedAt: o.CreatedAt,
	}
	if _, err := s.outfits.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert outfit: %w", err)
	}
	return nil
}

// ListOutfits returns a user's saved outfits, newest first.
func (s *OutfitStore) ListOutfits(ctx context.Context, userID int64) ([]models.SavedOutfit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.outfits.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find outfits: %w", err)
	}
	defer cur.Close(ctx)

	var docs []outfitDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode outfits: %w", err)
	}
	out := make([]models.SavedOutfit, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

// CountOutfits counts a user's saved outfits.
func (s *OutfitStore) CountOutfits(ctx context.Context, userID int64) (int, error) {
	n, err := s.outfits.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count outfits: %w", err)
	}
	return int(n), nil
}

func (d outfitDocument) toModel() models.SavedOutfit {
	return models.SavedOutfit{
		ID:        d.ID,
		UserID:    d.UserID,
		ItemIDs:   d.Items,
		Occasion:  models.Occasion(d.Occasion),
		CreatedAt: d.CreatedAt,
	}
}

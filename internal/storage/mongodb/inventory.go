// Package mongodb keeps clothing items in a MongoDB collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/storage"
)

const itemsCollection = "clothing_items"

var _ storage.InventoryStore = (*InventoryStore)(nil)

// InventoryStore is the Mongo-backed storage.InventoryStore.
type InventoryStore struct {
	client  *mongo.Client
	items   *mongo.Collection
	outfits *OutfitStore
}

// itemDocument is the stored shape of a clothing item. Cost per wear is kept
// as a decimal string so cents survive the round trip.
type itemDocument struct {
	ID          string     `bson:"_id"`
	UserID      int64      `bson:"user_id"`
	ImageURL    string     `bson:"image_url"`
	Category    string     `bson:"category"`
	Colors      []string   `bson:"colors"`
	Occasions   []string   `bson:"occasions"`
	Tags        []string   `bson:"tags"`
	LastWorn    *time.Time `bson:"last_worn,omitempty"`
	CostPerWear string     `bson:"cost_per_wear"`
	CreatedAt   time.Time  `bson:"created_at"`
}

// Connect dials MongoDB, pings it and prepares the items collection.
func Connect(ctx context.Context, uri, database string) (*InventoryStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	s := &InventoryStore{
		client:  client,
		items:   db.Collection(itemsCollection),
		outfits: &OutfitStore{outfits: db.Collection(outfitsCollection)},
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// Close disconnects the client.
func (s *InventoryStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Outfits returns the saved-outfit store sharing this connection.
func (s *InventoryStore) Outfits() *OutfitStore {
	return s.outfits
}

// Ping checks connectivity for the health endpoint.
func (s *InventoryStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *InventoryStore) ensureIndexes(ctx context.Context) error {
	_, err := s.items.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create item index: %w", err)
	}
	_, err = s.outfits.outfits.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create outfit index: %w", err)
	}
	return nil
}

// ListItems returns a user's items, newest first.
func (s *InventoryStore) ListItems(ctx context.Context, userID int64) ([]models.ClothingItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.items.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	defer cur.Close(ctx)

	var docs []itemDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	out := make([]models.ClothingItem, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

// GetItem fetches a single item owned by userID.
func (s *InventoryStore) GetItem(ctx context.Context, userID int64, itemID string) (models.ClothingItem, error) {
	var doc itemDocument
	err := s.items.FindOne(ctx, bson.M{"_id": itemID, "user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ClothingItem{}, storage.ErrNotFound
	}
	if err != nil {
		return models.ClothingItem{}, fmt.Errorf("find item: %w", err)
	}
	return doc.toModel(), nil
}

// CountItems counts a user's items.
func (s *InventoryStore) CountItems(ctx context.Context, userID int64) (int, error) {
	n, err := s.items.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return int(n), nil
}

// CreateItem inserts a new item.
func (s *InventoryStore) CreateItem(ctx context.Context, item models.ClothingItem) error {
	if _, err := s.items.InsertOne(ctx, fromModel(item)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// UpdateWear writes last_worn, tags and cost_per_wear only.
func (s *InventoryStore) UpdateWear(ctx context.Context, userID int64, itemID string, update models.WearUpdate) error {
	res, err := s.items.UpdateOne(ctx,
		bson.M{"_id": itemID, "user_id": userID},
		bson.M{"$set": bson.M{
			"last_worn":     update.LastWorn,
			"tags":          update.Tags,
			"cost_per_wear": update.CostPerWear.StringFixed(2),
		}},
	)
	if err != nil {
		return fmt.Errorf("update item wear: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func fromModel(item models.ClothingItem) itemDocument {
	occasions := make([]string, 0, len(item.Occasions))
	for _, o := range item.Occasions {
		occasions = append(occasions, string(o))
	}
	return itemDocument{
		ID:          item.ID,
		UserID:      item.UserID,
		ImageURL:    item.ImageURL,
		Category:    string(item.Category),
		Colors:      item.Colors,
		Occasions:   occasions,
		Tags:        item.Tags,
		LastWorn:    item.LastWorn,
		CostPerWear: item.CostPerWear.StringFixed(2),
		CreatedAt:   item.CreatedAt,
	}
}

func (d itemDocument) toModel() models.ClothingItem {
	occasions := make([]models.Occasion, 0, len(d.Occasions))
	for _, o := range d.Occasions {
		occasions = append(occasions, models.Occasion(o))
	}
	cpw, err := decimal.NewFromString(d.CostPerWear)
	if err != nil {
		cpw = decimal.Zero
	}
	return models.ClothingItem{
		ID:          d.ID,
		UserID:      d.UserID,
		ImageURL:    d.ImageURL,
		Category:    models.Category(d.Category),
		Colors:      d.Colors,
		Occasions:   occasions,
		Tags:        d.Tags,
		LastWorn:    d.LastWorn,
		CostPerWear: cpw,
		CreatedAt:   d.CreatedAt,
	}
}

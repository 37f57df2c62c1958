// Package cache puts a Redis read-through layer in front of the inventory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/storage"
)

// DefaultTTL matches how long a closet listing may be served stale.
const DefaultTTL = 5 * time.Minute

const keyPrefix = "closet:items:"

var _ storage.InventoryStore = (*InventoryStore)(nil)

// InventoryStore caches ListItems per user and invalidates on writes. Cache
// failures fall through to the wrapped store.
type InventoryStore struct {
	next   storage.InventoryStore
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewInventoryStore wraps next with a Redis cache.
func NewInventoryStore(next storage.InventoryStore, client *redis.Client, ttl time.Duration, logger *zap.Logger) *InventoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InventoryStore{next: next, client: client, ttl: ttl, logger: logger.Named("inventory_cache")}
}

// NewClient dials Redis and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func key(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

// ListItems serves the cached listing when present.
func (c *InventoryStore) ListItems(ctx context.Context, userID int64) ([]models.ClothingItem, error) {
	raw, err := c.client.Get(ctx, key(userID)).Bytes()
	switch {
	case err == nil:
		var items []models.ClothingItem
		if jsonErr := json.Unmarshal(raw, &items); jsonErr == nil {
			return items, nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.Int64("user_id", userID))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	items, err := c.next.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(items); err == nil {
		if err := c.client.Set(ctx, key(userID), payload, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return items, nil
}

// GetItem always reads through.
func (c *InventoryStore) GetItem(ctx context.Context, userID int64, itemID string) (models.ClothingItem, error) {
	return c.next.GetItem(ctx, userID, itemID)
}

// CountItems always reads through.
func (c *InventoryStore) CountItems(ctx context.Context, userID int64) (int, error) {
	return c.next.CountItems(ctx, userID)
}

// CreateItem writes through and drops the cached listing.
func (c *InventoryStore) CreateItem(ctx context.Context, item models.ClothingItem) error {
	if err := c.next.CreateItem(ctx, item); err != nil {
		return err
	}
	c.invalidate(ctx, item.UserID)
	return nil
}

// UpdateWear writes through and drops the cached listing.
func (c *InventoryStore) UpdateWear(ctx context.Context, userID int64, itemID string, update models.WearUpdate) error {
	if err := c.next.UpdateWear(ctx, userID, itemID, update); err != nil {
		return err
	}
	c.invalidate(ctx, userID)
	return nil
}

func (c *InventoryStore) invalidate(ctx context.Context, userID int64) {
	if err := c.client.Del(ctx, key(userID)).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

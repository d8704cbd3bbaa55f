package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sbilibin2017/gw-storefront/internal/logger"
	"github.com/sbilibin2017/gw-storefront/internal/models"
)

// ProductCacheRepository caches product rows in Redis, keyed by product id.
// The cache serves the read path of the products API only. The order line
// manager always reads the store directly so snapshot prices are computed
// from the authoritative unit price.
type ProductCacheRepository struct {
	client *redis.Client
	exp    time.Duration
}

// NewProductCacheRepository creates a new cache repository with the given TTL.
func NewProductCacheRepository(client *redis.Client, expiration time.Duration) *ProductCacheRepository {
	return &ProductCacheRepository{
		client: client,
		exp:    expiration,
	}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// Get returns the cached product, or nil on a cache miss.
func (r *ProductCacheRepository) Get(ctx context.Context, id int64) (*models.ProductDB, error) {
	key := productKey(id)

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		logger.Log.Infow(
			"key", key,
			"error", err,
		)
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var product models.ProductDB
	if err := json.Unmarshal([]byte(val), &product); err != nil {
		logger.Log.Infow(
			"key", key,
			"value", val,
			"error", err,
		)
		return nil, err
	}

	logger.Log.Infow(
		"key", key,
		"result", product.ProductID,
		"error", nil,
	)

	return &product, nil
}

// Set caches a product row with the configured TTL.
func (r *ProductCacheRepository) Set(ctx context.Context, product *models.ProductDB) error {
	key := productKey(product.ProductID)

	data, err := json.Marshal(product)
	if err != nil {
		return err
	}

	err = r.client.Set(ctx, key, data, r.exp).Err()

	logger.Log.Infow(
		"key", key,
		"result", "ok",
		"error", err,
	)

	return err
}

// Invalidate drops the cached row after an update or delete.
func (r *ProductCacheRepository) Invalidate(ctx context.Context, id int64) error {
	key := productKey(id)
	err := r.client.Del(ctx, key).Err()

	logger.Log.Infow(
		"key", key,
		"result", "deleted",
		"error", err,
	)

	return err
}

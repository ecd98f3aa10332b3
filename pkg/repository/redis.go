package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/example/shoppurs/pkg/config"
	"github.com/example/shoppurs/pkg/models"
)

const defaultOrderTTL = 10 * time.Minute

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

// GetJSON reports false on a cache miss.
func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, dest)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func orderKey(orderID uint) string {
	return fmt.Sprintf("order:%d", orderID)
}

// CacheOrder stores the order details with lines and payment.
func (r *RedisRepository) CacheOrder(ctx context.Context, order *models.Order) error {
	ttl := r.config.OrderTTL
	if ttl <= 0 {
		ttl = defaultOrderTTL
	}
	return r.SetJSON(ctx, orderKey(order.ID), order, ttl)
}

// GetOrderCache returns nil without error on a miss.
func (r *RedisRepository) GetOrderCache(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	ok, err := r.GetJSON(ctx, orderKey(orderID), &order)
	if err != nil || !ok {
		return nil, err
	}
	return &order, nil
}

func (r *RedisRepository) InvalidateOrder(ctx context.Context, orderID uint) error {
	return r.Del(ctx, orderKey(orderID))
}

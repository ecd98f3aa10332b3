package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shoppurs/pkg/config"
	"github.com/example/shoppurs/pkg/models"
)

func newRedis(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(&config.RedisConfig{Addr: mr.Addr(), OrderTTL: time.Minute})
	t.Cleanup(func() { _ = repo.Close() })
	return repo, mr
}

func TestOrderCache(t *testing.T) {
	repo, mr := newRedis(t)
	ctx := context.Background()
	require.NoError(t, repo.Ping(ctx))

	got, err := repo.GetOrderCache(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got)

	order := &models.Order{
		ID:          5,
		OrderNumber: "20260101000000-AAAAAAAAAAAA",
		TotalAmount: decimal.RequireFromString("100.50"),
		Status:      models.OrderStatusPending,
		Lines: []models.OrderLine{
			{ID: 1, OrderID: 5, ProductName: "Rice", Quantity: decimal.RequireFromString("1.5")},
		},
	}
	require.NoError(t, repo.CacheOrder(ctx, order))
	assert.True(t, mr.Exists("order:5"))
	assert.Equal(t, time.Minute, mr.TTL("order:5"))

	got, err = repo.GetOrderCache(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)
	assert.True(t, order.TotalAmount.Equal(got.TotalAmount))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "1.5", got.Lines[0].Quantity.String())

	require.NoError(t, repo.InvalidateOrder(ctx, 5))
	got, err = repo.GetOrderCache(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderCache_DefaultTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(&config.RedisConfig{Addr: mr.Addr()})
	defer repo.Close()

	require.NoError(t, repo.CacheOrder(context.Background(), &models.Order{ID: 9}))
	assert.Equal(t, defaultOrderTTL, mr.TTL("order:9"))
}

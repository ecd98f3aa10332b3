package order

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/config"
	"github.com/example/shoppurs/pkg/database/dbtest"
	"github.com/example/shoppurs/pkg/models"
	"github.com/example/shoppurs/pkg/repository"
)

func TestListOrdersAndFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := dbtest.User(t, f.db, "ravi")
	dbtest.Address(t, f.db, other.ID, "2 Hill Rd", true)

	var ids []uint
	for i := 0; i < 3; i++ {
		f.addToCart(t, f.user.ID, f.rice, "1")
		ids = append(ids, f.place(t, "cod").OrderID)
	}
	f.addToCart(t, other.ID, f.dal, "1")
	_, err := f.svc.PlaceOrder(ctx, other.ID, PlaceRequest{PaymentMethod: "cod"}, "")
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(ctx, 1, ids[0], TransitionRequest{Status: "confirmed"})
	require.NoError(t, err)

	page, err := f.svc.ListOrders(ctx, f.user.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, ids[2], page.Orders[0].ID)
	require.NotNil(t, page.Orders[0].Payment)

	page, err = f.svc.ListOrders(ctx, f.user.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, ids[0], page.Orders[0].ID)

	all, err := f.svc.ListAllOrders(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Total)
	assert.Equal(t, defaultPageSize, all.PageSize)

	confirmed := models.OrderStatusConfirmed
	byStatus, err := f.svc.ListAllOrders(ctx, Filter{Status: &confirmed})
	require.NoError(t, err)
	require.Len(t, byStatus.Orders, 1)
	assert.Equal(t, ids[0], byStatus.Orders[0].ID)

	future := time.Now().UTC().Add(time.Hour)
	none, err := f.svc.ListAllOrders(ctx, Filter{From: &future, UserID: &other.ID})
	require.NoError(t, err)
	assert.Zero(t, none.Total)
	assert.NotNil(t, none.Orders)
}

func TestOrderDetails_CachedAndInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := repository.NewRedisRepository(&config.RedisConfig{Addr: mr.Addr(), OrderTTL: time.Minute})
	defer cache.Close()

	f := newFixture(t, WithCache(cache))
	ctx := context.Background()
	stranger := dbtest.User(t, f.db, "stranger")
	f.addToCart(t, f.user.ID, f.rice, "1")
	r := f.place(t, "cod")

	o, err := f.svc.OrderDetails(ctx, f.user.ID, false, r.OrderID)
	require.NoError(t, err)
	require.Len(t, o.Lines, 1)
	assert.True(t, mr.Exists("order:1"))

	// cached copies stay scoped to the owner
	_, err = f.svc.OrderDetails(ctx, stranger.ID, false, r.OrderID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	staffView, err := f.svc.OrderDetails(ctx, stranger.ID, true, r.OrderID)
	require.NoError(t, err)
	assert.Equal(t, r.OrderNumber, staffView.OrderNumber)

	_, err = f.svc.TransitionStatus(ctx, stranger.ID, r.OrderID, TransitionRequest{Status: "shipped"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("order:1"))

	o, err = f.svc.OrderDetails(ctx, f.user.ID, false, r.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, o.Status)

	_, err = f.svc.OrderDetails(ctx, f.user.ID, false, 999)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

// racingCache runs before once, just ahead of the first cache write, to
// let a transition commit between the details load and the write.
type racingCache struct {
	*repository.RedisRepository
	before func()
}

func (c *racingCache) CacheOrder(ctx context.Context, order *models.Order) error {
	if hook := c.before; hook != nil {
		c.before = nil
		hook()
	}
	return c.RedisRepository.CacheOrder(ctx, order)
}

func TestOrderDetails_TransitionDuringCacheFill(t *testing.T) {
	mr := miniredis.RunT(t)
	redisRepo := repository.NewRedisRepository(&config.RedisConfig{Addr: mr.Addr(), OrderTTL: time.Minute})
	defer redisRepo.Close()
	cache := &racingCache{RedisRepository: redisRepo}

	f := newFixture(t, WithCache(cache))
	ctx := context.Background()
	f.addToCart(t, f.user.ID, f.rice, "1")
	r := f.place(t, "cod")

	cache.before = func() {
		_, err := f.svc.TransitionStatus(ctx, 1, r.OrderID, TransitionRequest{Status: "delivered"})
		require.NoError(t, err)
	}

	first, err := f.svc.OrderDetails(ctx, f.user.ID, false, r.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, first.Status)
	assert.False(t, mr.Exists("order:1"))

	again, err := f.svc.OrderDetails(ctx, f.user.ID, false, r.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, again.Status)
	require.NotNil(t, again.InvoicePath)
	assert.True(t, mr.Exists("order:1"))
}

func TestExportOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		f.addToCart(t, f.user.ID, f.rice, "1")
		f.place(t, "cod")
	}

	data, err := f.svc.ExportOrders(ctx, Filter{PageSize: 1})
	require.NoError(t, err)

	book, err := xlsx.OpenBinary(data)
	require.NoError(t, err)
	require.Len(t, book.Sheets, 1)
	rows := book.Sheets[0].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, "Order No", rows[0].Cells[0].Value)
	assert.Equal(t, "pending", rows[1].Cells[3].Value)
	assert.Equal(t, "100.00", rows[1].Cells[7].Value)
	assert.Equal(t, "cod", rows[2].Cells[5].Value)
}

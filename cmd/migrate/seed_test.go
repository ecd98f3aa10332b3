package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shoppurs/pkg/database/dbtest"
	"github.com/example/shoppurs/pkg/models"
)

func TestSeedDemoIsRepeatable(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	first, err := seedDemo(ctx, db)
	require.NoError(t, err)
	require.Len(t, first.Users, 3)
	assert.Equal(t, models.RoleEmployee, first.Users[1].Role)
	require.Len(t, first.Products, len(demoProducts))
	assert.Len(t, first.Products[0].Units, 2)

	second, err := seedDemo(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, first.Users[0].ID, second.Users[0].ID)
	assert.Equal(t, first.Products[1].Units[0].ID, second.Products[1].Units[0].ID)

	var products, units, addrs int64
	require.NoError(t, db.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, db.Model(&models.ProductUnit{}).Count(&units).Error)
	require.NoError(t, db.Model(&models.Address{}).Count(&addrs).Error)
	assert.Equal(t, int64(len(demoProducts)), products)
	assert.Equal(t, int64(7), units)
	assert.Equal(t, int64(1), addrs)
}

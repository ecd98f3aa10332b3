package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shoppurs/pkg/apperr"
	"github.com/example/shoppurs/pkg/database/dbtest"
)

func TestGetActiveUnit(t *testing.T) {
	db := dbtest.Open(t)
	r := NewReader(db)
	ctx := context.Background()

	rice := dbtest.Product(t, db, "Rice", "", dbtest.UnitSpec{Label: "1kg", Step: "1", Rate: "100"},
		dbtest.UnitSpec{Label: "5kg", Step: "5", Rate: "95", Inactive: true})
	dal := dbtest.Product(t, db, "Dal", "", dbtest.UnitSpec{Label: "500g", Step: "0.5", Rate: "80"})

	u, err := r.GetActiveUnit(ctx, rice.ID, rice.Units[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "1kg", u.Label)

	_, err = r.GetActiveUnit(ctx, rice.ID, rice.Units[1].ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// unit of another product
	_, err = r.GetActiveUnit(ctx, rice.ID, dal.Units[0].ID)
	assert.Equal(t, apperr.MsgUnitNotFound, apperr.Message(err))

	_, err = r.GetActiveUnit(ctx, 9999, rice.Units[0].ID)
	assert.Equal(t, apperr.MsgProductNotFound, apperr.Message(err))
}

func TestSmallestActiveUnit(t *testing.T) {
	db := dbtest.Open(t)
	r := NewReader(db)
	ctx := context.Background()

	sugar := dbtest.Product(t, db, "Sugar", "",
		dbtest.UnitSpec{Label: "1kg", Step: "1", Rate: "45"},
		dbtest.UnitSpec{Label: "250g", Step: "0.25", Rate: "50", Inactive: true},
		dbtest.UnitSpec{Label: "500g", Step: "0.5", Rate: "48"},
	)
	u, err := r.SmallestActiveUnit(ctx, sugar.ID)
	require.NoError(t, err)
	assert.Equal(t, "500g", u.Label)

	salt := dbtest.Product(t, db, "Salt", "", dbtest.UnitSpec{Label: "1kg", Step: "1", Rate: "20", Inactive: true})
	_, err = r.SmallestActiveUnit(ctx, salt.ID)
	assert.Equal(t, apperr.MsgNoActiveUnits, apperr.Message(err))

	_, err = r.SmallestActiveUnit(ctx, 4242)
	assert.Equal(t, apperr.MsgProductNotFound, apperr.Message(err))
}

func TestResolveBarcodeAndGetProduct(t *testing.T) {
	db := dbtest.Open(t)
	r := NewReader(db)
	ctx := context.Background()

	oil := dbtest.Product(t, db, "Oil", "8901234567890",
		dbtest.UnitSpec{Label: "1L", Step: "1", Rate: "150"},
		dbtest.UnitSpec{Label: "500ml", Step: "0.5", Rate: "80"},
	)

	id, err := r.ResolveBarcode(ctx, "8901234567890")
	require.NoError(t, err)
	assert.Equal(t, oil.ID, id)

	_, err = r.ResolveBarcode(ctx, "000")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = r.ResolveBarcode(ctx, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	p, err := r.GetProduct(ctx, oil.ID)
	require.NoError(t, err)
	require.Len(t, p.Units, 2)
	assert.Equal(t, "500ml", p.Units[0].Label)
}

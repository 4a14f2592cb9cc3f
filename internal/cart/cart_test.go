package cart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blameja-pos/internal/models"
	"blameja-pos/internal/pricing"
)

func strPtr(s string) *string { return &s }

func stockRow(id string, price, onHand float64) models.ProductStock {
	return models.ProductStock{
		ProductID:    id,
		PLU:          strPtr("10" + id),
		Name:         "Product " + id,
		SellingPrice: price,
		Unit:         models.UnitPiece,
		QtyOnHand:    onHand,
	}
}

func TestAddOrIncrementSameProductTwice(t *testing.T) {
	d := New("c1")

	assert.Nil(t, d.AddOrIncrement(stockRow("a", 160, 10)))
	assert.Nil(t, d.AddOrIncrement(stockRow("a", 160, 10)))

	require.Len(t, d.Lines, 1)
	assert.Equal(t, 2.0, d.Lines[0].Qty)
	assert.Equal(t, "160", d.Lines[0].FinalPrice)
}

func TestAddOrIncrementMovesLineToHead(t *testing.T) {
	d := New("c1")
	d.AddOrIncrement(stockRow("a", 10, 5))
	d.AddOrIncrement(stockRow("b", 20, 5))
	require.Equal(t, "b", d.Lines[0].Product.ID)

	d.AddOrIncrement(stockRow("a", 10, 5))

	require.Len(t, d.Lines, 2)
	assert.Equal(t, "a", d.Lines[0].Product.ID)
	assert.Equal(t, 2.0, d.Lines[0].Qty)
	assert.Equal(t, "b", d.Lines[1].Product.ID)
}

func TestAddOrIncrementWithoutBasePriceLeavesPriceBlank(t *testing.T) {
	d := New("c1")
	d.AddOrIncrement(stockRow("a", 0, 5))
	assert.Equal(t, "", d.Lines[0].FinalPrice)
	assert.Equal(t, 0.0, d.Lines[0].Final())
}

func TestAddOrIncrementWarnsButAdds(t *testing.T) {
	d := New("c1")

	assert.Nil(t, d.AddOrIncrement(stockRow("a", 10, 1)))

	w := d.AddOrIncrement(stockRow("a", 10, 1))
	require.NotNil(t, w)
	assert.Equal(t, 1.0, w.Available)
	assert.Equal(t, 1.0, w.InCart)
	assert.Equal(t, 2.0, d.QtyOf("a"))

	w = d.AddOrIncrement(stockRow("z", 10, -3))
	require.NotNil(t, w)
	assert.Equal(t, 1.0, d.QtyOf("z"))
}

func TestChangeQuantity(t *testing.T) {
	d := New("c1")
	d.AddOrIncrement(stockRow("a", 10, 5))
	kg := stockRow("k", 10, 5)
	kg.Unit = models.UnitKilogram
	d.AddOrIncrement(kg)

	require.NoError(t, d.ChangeQuantity("a", 3.7))
	assert.Equal(t, 3.0, d.QtyOf("a"))

	require.NoError(t, d.ChangeQuantity("a", 0))
	assert.Equal(t, 1.0, d.QtyOf("a"))

	require.NoError(t, d.ChangeQuantity("a", math.NaN()))
	assert.Equal(t, 1.0, d.QtyOf("a"))

	require.NoError(t, d.ChangeQuantity("k", 2.5))
	assert.Equal(t, 2.5, d.QtyOf("k"))

	assert.ErrorIs(t, d.ChangeQuantity("missing", 2), ErrLineNotFound)
}

func TestStep(t *testing.T) {
	d := New("c1")
	kg := stockRow("k", 10, 5)
	kg.Unit = models.UnitKilogram
	d.AddOrIncrement(kg)
	require.NoError(t, d.ChangeQuantity("k", 2.5))

	require.NoError(t, d.Step("k", 1))
	assert.Equal(t, 3.0, d.QtyOf("k"))

	require.NoError(t, d.Step("k", -5))
	assert.Equal(t, 1.0, d.QtyOf("k"))
}

func TestSetFinalPriceClampsToBase(t *testing.T) {
	d := New("c1")
	d.AddOrIncrement(stockRow("a", 160, 10))

	require.NoError(t, d.SetFinalPrice("a", "200"))
	assert.Equal(t, 160.0, d.Lines[0].Final())

	require.NoError(t, d.SetFinalPrice("a", "120"))
	assert.Equal(t, "120", d.Lines[0].FinalPrice)
	require.NoError(t, d.ChangeQuantity("a", 3))

	s := d.Summary()
	require.Len(t, s.Lines, 1)
	assert.Equal(t, 40.0, s.Lines[0].DiscountPerUnit)
	assert.Equal(t, 25.0, s.Lines[0].DiscountPercent)
	assert.Equal(t, 360.0, s.Lines[0].LineTotal)
	assert.Equal(t, pricing.Totals{Subtotal: 480, DiscountTotal: 120, Total: 360}, s.Totals)

	require.NoError(t, d.SetFinalPrice("a", "12,5"))
	assert.Equal(t, 12.5, d.Lines[0].Final())

	require.NoError(t, d.SetFinalPrice("a", ""))
	assert.Equal(t, "", d.Lines[0].FinalPrice)
}

func TestSetDiscountPercent(t *testing.T) {
	d := New("c1")
	d.AddOrIncrement(stockRow("a", 160, 10))
	d.AddOrIncrement(stockRow("b", 0, 10))

	require.NoError(t, d.SetDiscountPercent("a", "25"))
	assert.Equal(t, 120.0, d.Lines[1].Final())

	require.NoError(t, d.SetDiscountPercent("a", "250"))
	assert.Equal(t, 0.0, d.Lines[1].Final())

	require.NoError(t, d.SetDiscountPercent("b", "10"))
	assert.Equal(t, "", d.Lines[0].FinalPrice)
}

func TestRemoveLineAndReset(t *testing.T) {
	d := New("c1")
	d.AddOrIncrement(stockRow("a", 10, 5))
	d.AddOrIncrement(stockRow("b", 20, 5))

	require.NoError(t, d.RemoveLine("a"))
	assert.Len(t, d.Lines, 1)
	assert.ErrorIs(t, d.RemoveLine("a"), ErrLineNotFound)

	d.Reset()
	assert.True(t, d.IsEmpty())
	assert.Equal(t, pricing.Totals{}, d.Totals())
}

func TestProductFromStockNormalizes(t *testing.T) {
	p := ProductFromStock(models.ProductStock{ProductID: "x", Name: "  ", SellingPrice: 9.999, Unit: "bogus"})
	assert.Equal(t, "—", p.Name)
	assert.Equal(t, models.UnitPiece, p.Unit)
	assert.Equal(t, 10.0, p.BasePrice)
}

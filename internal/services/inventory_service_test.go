package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blameja-pos/internal/models"
	"blameja-pos/internal/pricing"
	"blameja-pos/internal/repository"
)

func productByID(p models.Product) func(context.Context, string) (*models.Product, error) {
	return func(_ context.Context, id string) (*models.Product, error) {
		if id != p.ID {
			return nil, repository.ErrNotFound
		}
		cp := p
		return &cp, nil
	}
}

func TestAdjustToTarget(t *testing.T) {
	products := &fakeProducts{getProduct: productByID(models.Product{ID: "p1", PLU: strPtr("1001"), SellingPrice: 90})}
	stock := &fakeStock{onHand: 7}
	inv := &fakeInvalidator{}
	svc := NewInventoryService(products, stock, inv, nil, zap.NewNop())

	out, err := svc.AdjustToTarget(context.Background(), AdjustRequest{ProductID: "p1", Target: "4", Reason: " broken bags "})
	require.NoError(t, err)

	assert.Equal(t, pricing.DirectionMinus, out.Direction)
	assert.Equal(t, 3.0, out.Magnitude)
	assert.Equal(t, "mov-1", out.MovementID)

	require.Len(t, stock.movements, 1)
	assert.Equal(t, models.MovementAdjust, stock.movements[0].Type)
	assert.Equal(t, "broken bags", *stock.movements[0].Note)

	require.Len(t, stock.items, 1)
	item := stock.items[0]
	assert.Equal(t, 3.0, item.Qty)
	assert.Equal(t, 90.0, item.UnitPrice)
	require.NotNil(t, item.AdjustDirection)
	assert.Equal(t, models.AdjustDirection(pricing.DirectionMinus), *item.AdjustDirection)

	assert.Equal(t, []string{"1001"}, inv.codes)
}

func TestAdjustToTargetNoChange(t *testing.T) {
	products := &fakeProducts{getProduct: productByID(models.Product{ID: "p1"})}
	stock := &fakeStock{onHand: 4}
	svc := NewInventoryService(products, stock, nil, nil, zap.NewNop())

	_, err := svc.AdjustToTarget(context.Background(), AdjustRequest{ProductID: "p1", Target: "4.0", Reason: "count"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, pricing.ErrNoChange)
	assert.Empty(t, stock.movements)
}

func TestAdjustToTargetValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   AdjustRequest
		field string
	}{
		{"no product", AdjustRequest{Target: "1", Reason: "x"}, "product_id"},
		{"blank target", AdjustRequest{ProductID: "p1", Reason: "x"}, "target"},
		{"negative target", AdjustRequest{ProductID: "p1", Target: "-2", Reason: "x"}, "target"},
		{"no reason", AdjustRequest{ProductID: "p1", Target: "2", Reason: "  "}, "reason"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewInventoryService(&fakeProducts{}, &fakeStock{}, nil, nil, zap.NewNop())
			_, err := svc.AdjustToTarget(context.Background(), tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestAdjustToTargetUnknownProduct(t *testing.T) {
	products := &fakeProducts{getProduct: productByID(models.Product{ID: "p1"})}
	svc := NewInventoryService(products, &fakeStock{}, nil, nil, zap.NewNop())

	_, err := svc.AdjustToTarget(context.Background(), AdjustRequest{ProductID: "p2", Target: "1", Reason: "x"})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAdjustToTargetPartial(t *testing.T) {
	products := &fakeProducts{getProduct: productByID(models.Product{ID: "p1"})}
	stock := &fakeStock{itemsErr: errors.New("timeout")}
	svc := NewInventoryService(products, stock, nil, nil, zap.NewNop())

	_, err := svc.AdjustToTarget(context.Background(), AdjustRequest{ProductID: "p1", Target: "5", Reason: "found"})

	var perr *PartialSubmissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "mov-1", perr.Committed.MovementID)
}

func TestUpdateProductClearsBlankCodes(t *testing.T) {
	var patch *repository.ProductPatch
	products := &fakeProducts{
		getProduct: productByID(models.Product{ID: "p1", PLU: strPtr("1001"), Barcode: strPtr("5310")}),
		updateProduct: func(_ context.Context, _ string, p *repository.ProductPatch) error {
			patch = p
			return nil
		},
	}
	inv := &fakeInvalidator{}
	svc := NewInventoryService(products, &fakeStock{}, inv, nil, zap.NewNop())

	err := svc.UpdateProduct(context.Background(), "p1", ProductUpdate{Name: "Twine", SellingPrice: "12"})
	require.NoError(t, err)

	plu, set := patch.Value("plu")
	require.True(t, set)
	assert.Nil(t, plu)
	barcode, _ := patch.Value("barcode")
	assert.Nil(t, barcode)
	assert.ElementsMatch(t, []string{"1001", "5310"}, inv.codes)
}

func TestUpdateProductValidation(t *testing.T) {
	svc := NewInventoryService(&fakeProducts{}, &fakeStock{}, nil, nil, zap.NewNop())

	var verr *ValidationError
	err := svc.UpdateProduct(context.Background(), "p1", ProductUpdate{Name: "", SellingPrice: "1"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	err = svc.UpdateProduct(context.Background(), "p1", ProductUpdate{Name: "x", SellingPrice: "-1"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "selling_price", verr.Field)

	err = svc.UpdateProduct(context.Background(), "p1", ProductUpdate{Name: "x", SellingPrice: "1", PLU: "12b"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "plu", verr.Field)
}

func TestDeactivateProduct(t *testing.T) {
	var cleared bool
	products := &fakeProducts{
		getProduct: productByID(models.Product{ID: "p1", Barcode: strPtr("5310")}),
		deactivate: func(_ context.Context, _ string, clearCodes bool) error {
			cleared = clearCodes
			return nil
		},
	}
	inv := &fakeInvalidator{}
	svc := NewInventoryService(products, &fakeStock{}, inv, nil, zap.NewNop())

	require.NoError(t, svc.DeactivateProduct(context.Background(), "p1", true))
	assert.True(t, cleared)
	assert.Equal(t, []string{"5310"}, inv.codes)

	assert.ErrorIs(t, svc.DeactivateProduct(context.Background(), "p2", false), ErrProductNotFound)
}

func TestMovementsRejectsUnknownType(t *testing.T) {
	stock := &fakeStock{}
	svc := NewInventoryService(&fakeProducts{}, stock, nil, nil, zap.NewNop())

	bad := models.MovementType("TRANSFER")
	_, err := svc.Movements(context.Background(), models.MovementFilter{Type: &bad})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	in := models.MovementIn
	_, err = svc.Movements(context.Background(), models.MovementFilter{Type: &in, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 20, stock.filter.Limit)
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blameja-pos/internal/models"
	"blameja-pos/internal/repository"
)

func noExistingProduct(context.Context, string, string) (*models.Product, error) {
	return nil, nil
}

func TestReceiveCreatesProduct(t *testing.T) {
	var created *models.Product
	products := &fakeProducts{
		findActive: noExistingProduct,
		createProduct: func(_ context.Context, p *models.Product) error {
			p.ID = "new-1"
			created = p
			return nil
		},
	}
	stock := &fakeStock{}
	inv := &fakeInvalidator{}
	svc := NewReceiveService(products, &fakeCatalog{}, stock, inv, nil, zap.NewNop())

	out, err := svc.Submit(context.Background(), ReceiveRequest{
		PLU:      " 2040 ",
		Name:     "Copper sulfate",
		Qty:      "12,5",
		TaxGroup: "18",
		Unit:     string(models.UnitKilogram),
		UnitCost: "80",
	})
	require.NoError(t, err)

	assert.True(t, out.Created)
	assert.Equal(t, "new-1", out.ProductID)
	assert.Equal(t, 12.5, out.Qty)

	require.NotNil(t, created)
	assert.Equal(t, "2040", *created.PLU)
	assert.Nil(t, created.Barcode)
	assert.Equal(t, 0.0, created.SellingPrice)
	assert.Equal(t, models.UnitKilogram, created.Unit)
	assert.Equal(t, models.StoreMain, created.StoreNo)

	require.Len(t, stock.movements, 1)
	assert.Equal(t, models.MovementIn, stock.movements[0].Type)
	assert.Equal(t, defaultReceiveNote, *stock.movements[0].Note)
	require.Len(t, stock.items, 1)
	assert.Equal(t, 80.0, stock.items[0].UnitCost)
	assert.Equal(t, 0.0, stock.items[0].UnitPrice)

	assert.Equal(t, []string{"2040"}, inv.codes)
}

func TestReceiveUpdatesExistingKeepingBlankFields(t *testing.T) {
	existing := &models.Product{ID: "p9", PLU: strPtr("2040"), Barcode: strPtr("5310001"), SellingPrice: 150}
	var patch *repository.ProductPatch
	products := &fakeProducts{
		findActive: func(_ context.Context, plu, barcode string) (*models.Product, error) {
			assert.Equal(t, "2040", plu)
			assert.Empty(t, barcode)
			return existing, nil
		},
		updateProduct: func(_ context.Context, id string, p *repository.ProductPatch) error {
			assert.Equal(t, "p9", id)
			patch = p
			return nil
		},
	}
	stock := &fakeStock{}
	svc := NewReceiveService(products, &fakeCatalog{}, stock, &fakeInvalidator{}, nil, zap.NewNop())

	out, err := svc.Submit(context.Background(), ReceiveRequest{
		PLU: "2040", Name: "Copper sulfate", Qty: "3", TaxGroup: "5", Note: "invoice 44",
	})
	require.NoError(t, err)
	assert.False(t, out.Created)

	require.NotNil(t, patch)
	for _, col := range []string{"barcode", "description", "category_id", "selling_price"} {
		_, set := patch.Value(col)
		assert.False(t, set, col)
	}
	active, _ := patch.Value("is_active")
	assert.Equal(t, true, active)

	require.Len(t, stock.items, 1)
	assert.Equal(t, 150.0, stock.items[0].UnitPrice)
	assert.Equal(t, "invoice 44", *stock.movements[0].Note)
}

func TestReceiveNewPriceOverwrites(t *testing.T) {
	existing := &models.Product{ID: "p9", SellingPrice: 150}
	var patch *repository.ProductPatch
	products := &fakeProducts{
		findActive: func(context.Context, string, string) (*models.Product, error) { return existing, nil },
		updateProduct: func(_ context.Context, _ string, p *repository.ProductPatch) error {
			patch = p
			return nil
		},
	}
	stock := &fakeStock{}
	svc := NewReceiveService(products, &fakeCatalog{}, stock, nil, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), ReceiveRequest{
		PLU: "2040", Name: "Copper sulfate", Qty: "1", TaxGroup: "10", SellingPrice: "175.50",
	})
	require.NoError(t, err)

	price, set := patch.Value("selling_price")
	require.True(t, set)
	assert.Equal(t, 175.5, price)
	assert.Equal(t, 175.5, stock.items[0].UnitPrice)
}

func TestReceiveSupplierAddress(t *testing.T) {
	newProduct := func() *fakeProducts {
		return &fakeProducts{
			findActive: noExistingProduct,
			createProduct: func(_ context.Context, p *models.Product) error {
				p.ID = "new-1"
				return nil
			},
		}
	}
	base := ReceiveRequest{PLU: "1", Name: "Twine", Qty: "1", TaxGroup: "18", SupplierID: "s1"}

	t.Run("missing address warns", func(t *testing.T) {
		catalog := &fakeCatalog{suppliers: map[string]models.Supplier{"s1": {ID: "s1", Name: "Agrohem"}}}
		stock := &fakeStock{}
		svc := NewReceiveService(newProduct(), catalog, stock, nil, nil, zap.NewNop())

		out, err := svc.Submit(context.Background(), base)
		require.NoError(t, err)
		assert.Equal(t, []string{"supplier Agrohem has no address"}, out.Warnings)
		require.NotNil(t, stock.movements[0].SupplierID)
		assert.Equal(t, "s1", *stock.movements[0].SupplierID)
	})

	t.Run("new address is saved", func(t *testing.T) {
		catalog := &fakeCatalog{suppliers: map[string]models.Supplier{"s1": {ID: "s1", Name: "Agrohem", Address: strPtr("Old 1")}}}
		svc := NewReceiveService(newProduct(), catalog, &fakeStock{}, nil, nil, zap.NewNop())

		req := base
		req.SupplierAddress = "New 2"
		out, err := svc.Submit(context.Background(), req)
		require.NoError(t, err)
		assert.Empty(t, out.Warnings)
		assert.Equal(t, "New 2", catalog.addressWrites["s1"])
	})

	t.Run("failed address save is a warning", func(t *testing.T) {
		catalog := &fakeCatalog{
			suppliers:  map[string]models.Supplier{"s1": {ID: "s1", Name: "Agrohem"}},
			addressErr: errors.New("read only"),
		}
		svc := NewReceiveService(newProduct(), catalog, &fakeStock{}, nil, nil, zap.NewNop())

		req := base
		req.SupplierAddress = "New 2"
		out, err := svc.Submit(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, []string{"address of supplier Agrohem was not saved"}, out.Warnings)
	})

	t.Run("unknown supplier", func(t *testing.T) {
		svc := NewReceiveService(&fakeProducts{}, &fakeCatalog{}, &fakeStock{}, nil, nil, zap.NewNop())

		_, err := svc.Submit(context.Background(), base)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "supplier_id", verr.Field)
	})
}

func TestReceiveValidation(t *testing.T) {
	valid := ReceiveRequest{PLU: "1", Name: "Twine", Qty: "1", TaxGroup: "18"}
	tests := []struct {
		name   string
		mutate func(r *ReceiveRequest)
		field  string
	}{
		{"blank plu", func(r *ReceiveRequest) { r.PLU = " " }, "plu"},
		{"letters in plu", func(r *ReceiveRequest) { r.PLU = "10a" }, "plu"},
		{"blank name", func(r *ReceiveRequest) { r.Name = "" }, "name"},
		{"zero qty", func(r *ReceiveRequest) { r.Qty = "0" }, "qty"},
		{"text qty", func(r *ReceiveRequest) { r.Qty = "many" }, "qty"},
		{"tax group", func(r *ReceiveRequest) { r.TaxGroup = "7" }, "tax_group"},
		{"negative cost", func(r *ReceiveRequest) { r.UnitCost = "-1" }, "unit_cost"},
		{"bad price", func(r *ReceiveRequest) { r.SellingPrice = "abc" }, "selling_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			svc := NewReceiveService(&fakeProducts{}, &fakeCatalog{}, &fakeStock{}, nil, nil, zap.NewNop())
			_, err := svc.Submit(context.Background(), req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

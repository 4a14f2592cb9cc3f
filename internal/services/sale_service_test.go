package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blameja-pos/internal/cart"
	"blameja-pos/internal/metrics"
	"blameja-pos/internal/models"
)

func fungicideLine() cart.Line {
	return cart.Line{
		Product:    cart.Product{ID: "p1", PLU: strPtr("1001"), Name: "Fungicide", Unit: models.UnitPiece, BasePrice: 120},
		Qty:        3,
		FinalPrice: "120",
	}
}

// fungicideRow is the catalog row behind fungicideLine.
func fungicideRow(onHand float64) models.ProductStock {
	return models.ProductStock{ProductID: "p1", PLU: strPtr("1001"), Name: "Fungicide", Unit: models.UnitPiece, SellingPrice: 120, QtyOnHand: onHand}
}

func TestSaleSubmitRejectsShortCashBeforeWriting(t *testing.T) {
	products := &fakeProducts{stockByIDs: catalogOf(fungicideRow(10))}
	receipts := &fakeReceipts{}
	stock := &fakeStock{}
	svc := NewSaleService(products, receipts, stock, nil, metrics.New(), zap.NewNop())

	_, err := svc.Submit(context.Background(), SaleRequest{
		Lines:        []cart.Line{fungicideLine()},
		Payment:      models.PaymentCash,
		CashTendered: "300",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cash_received", verr.Field)
	assert.Empty(t, receipts.receipts)
	assert.Empty(t, stock.movements)
}

func TestSaleSubmitCash(t *testing.T) {
	products := &fakeProducts{stockByIDs: catalogOf(fungicideRow(1))}
	receipts := &fakeReceipts{}
	stock := &fakeStock{}
	inv := &fakeInvalidator{}
	svc := NewSaleService(products, receipts, stock, inv, nil, zap.NewNop())

	sale, err := svc.Submit(context.Background(), SaleRequest{
		Lines:        []cart.Line{fungicideLine()},
		Payment:      models.PaymentCash,
		CashTendered: "400",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1001), sale.ReceiptNo)
	assert.Equal(t, 360.0, sale.Totals.Total)
	require.NotNil(t, sale.Change)
	assert.Equal(t, 40.0, *sale.Change)
	require.Len(t, sale.Warnings, 1)
	assert.Equal(t, 1.0, sale.Warnings[0].Available)

	require.Len(t, receipts.receipts, 1)
	assert.Equal(t, models.DocSale, receipts.receipts[0].DocType)
	require.NotNil(t, receipts.receipts[0].CashReceived)
	assert.Equal(t, 400.0, *receipts.receipts[0].CashReceived)

	require.Len(t, receipts.items, 1)
	assert.Equal(t, 120.0, receipts.items[0].Price)
	assert.Equal(t, 0.0, receipts.items[0].Discount)

	require.Len(t, stock.movements, 1)
	assert.Equal(t, models.MovementOut, stock.movements[0].Type)
	assert.Equal(t, "Internal sale #1001 (Cash)", *stock.movements[0].Note)
	require.Len(t, stock.items, 1)
	assert.Equal(t, 3.0, stock.items[0].Qty)

	assert.Equal(t, []string{"1001"}, inv.codes)
}

func TestSaleSubmitCardIgnoresCash(t *testing.T) {
	products := &fakeProducts{stockByIDs: catalogOf(fungicideRow(10))}
	line := fungicideLine()
	line.FinalPrice = "100"
	svc := NewSaleService(products, &fakeReceipts{}, &fakeStock{}, nil, nil, zap.NewNop())

	sale, err := svc.Submit(context.Background(), SaleRequest{
		Lines:        []cart.Line{line},
		Payment:      models.PaymentCard,
		CashTendered: "not a number",
	})
	require.NoError(t, err)
	assert.Nil(t, sale.CashReceived)
	assert.Nil(t, sale.Change)
	assert.Empty(t, sale.Warnings)
	assert.Equal(t, 60.0, sale.Totals.DiscountTotal)
}

func TestSaleSubmitValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   SaleRequest
		field string
	}{
		{"empty cart", SaleRequest{Payment: models.PaymentCard}, "lines"},
		{"unknown payment", SaleRequest{Lines: []cart.Line{fungicideLine()}, Payment: "CHEQUE"}, "payment"},
		{"blank cash", SaleRequest{Lines: []cart.Line{fungicideLine()}, Payment: models.PaymentCash}, "cash_received"},
		{"line without product", SaleRequest{Lines: []cart.Line{{Qty: 1}}, Payment: models.PaymentCard}, "lines"},
		{"product not in catalog", SaleRequest{Lines: []cart.Line{{Product: cart.Product{ID: "p404"}, Qty: 1}}, Payment: models.PaymentCard}, "lines"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := &fakeProducts{stockByIDs: catalogOf(fungicideRow(10))}
			svc := NewSaleService(products, &fakeReceipts{}, &fakeStock{}, nil, nil, zap.NewNop())
			_, err := svc.Submit(context.Background(), tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSaleSubmitPartialAfterHeader(t *testing.T) {
	products := &fakeProducts{stockByIDs: catalogOf(fungicideRow(10))}
	receipts := &fakeReceipts{itemsErr: errors.New("connection reset")}
	stock := &fakeStock{}
	svc := NewSaleService(products, receipts, stock, nil, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), SaleRequest{
		Lines:   []cart.Line{fungicideLine()},
		Payment: models.PaymentCard,
	})

	var perr *PartialSubmissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StepItems, perr.Step)
	assert.Equal(t, "rcpt-1", perr.Committed.ReceiptID)
	assert.Equal(t, int64(1001), perr.Committed.ReceiptNo)
	assert.Empty(t, perr.Committed.MovementID)
	assert.Empty(t, stock.movements)
}

func TestSaleSubmitPartialAtMovementItems(t *testing.T) {
	products := &fakeProducts{stockByIDs: catalogOf(fungicideRow(10))}
	stock := &fakeStock{itemsErr: errors.New("timeout")}
	svc := NewSaleService(products, &fakeReceipts{}, stock, nil, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), SaleRequest{
		Lines:   []cart.Line{fungicideLine()},
		Payment: models.PaymentCard,
		Note:    "  counter 2 ",
	})

	var perr *PartialSubmissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StepMovementItems, perr.Step)
	assert.Equal(t, "mov-1", perr.Committed.MovementID)
	assert.Equal(t, "counter 2", *stock.movements[0].Note)
}

func TestSaleSubmitUsesCatalogBasePrice(t *testing.T) {
	products := &fakeProducts{stockByIDs: catalogOf(models.ProductStock{ProductID: "p1", Name: "Seeds", SellingPrice: 160, QtyOnHand: 10})}
	receipts := &fakeReceipts{}
	stock := &fakeStock{}
	svc := NewSaleService(products, receipts, stock, nil, nil, zap.NewNop())

	sale, err := svc.Submit(context.Background(), SaleRequest{
		Lines: []cart.Line{{
			Product:    cart.Product{ID: "p1", Name: "Seeds", BasePrice: 1000},
			Qty:        1,
			FinalPrice: "900",
		}},
		Payment: models.PaymentCard,
	})
	require.NoError(t, err)

	assert.Equal(t, 160.0, sale.Totals.Total)
	assert.Equal(t, 0.0, sale.Totals.DiscountTotal)
	require.Len(t, receipts.items, 1)
	assert.Equal(t, 160.0, receipts.items[0].BasePrice)
	assert.Equal(t, 160.0, receipts.items[0].Price)
	assert.Equal(t, 160.0, stock.items[0].UnitPrice)
}

func TestSaleSubmitBlankCashCoversZeroTotal(t *testing.T) {
	products := &fakeProducts{stockByIDs: catalogOf(fungicideRow(10))}
	line := fungicideLine()
	line.FinalPrice = ""
	svc := NewSaleService(products, &fakeReceipts{}, &fakeStock{}, nil, nil, zap.NewNop())

	sale, err := svc.Submit(context.Background(), SaleRequest{
		Lines:   []cart.Line{line},
		Payment: models.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sale.Totals.Total)
	require.NotNil(t, sale.CashReceived)
	assert.Equal(t, 0.0, *sale.CashReceived)
	assert.Equal(t, 0.0, *sale.Change)
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blameja-pos/internal/dispatchnote"
	"blameja-pos/internal/models"
)

func newTestDispatchService(t *testing.T, products *fakeProducts, receipts *fakeReceipts, stock *fakeStock, inv Invalidator) DispatchService {
	t.Helper()
	r, err := dispatchnote.NewRenderer(dispatchnote.Company{Name: "Blameja"})
	require.NoError(t, err)
	return NewDispatchService(products, receipts, stock, r, inv, nil, zap.NewNop())
}

func seedLine() DispatchLine {
	return DispatchLine{
		ProductID: "p1",
		Row:       dispatchnote.Row{Code: "1001", Name: "Seeds", Unit: models.UnitPiece, Qty: 2, BasePrice: 50, FinalPrice: 60},
	}
}

func TestDispatchSubmit(t *testing.T) {
	products := &fakeProducts{stockByIDs: stockOf(map[string]float64{"p1": 5})}
	receipts := &fakeReceipts{}
	stock := &fakeStock{}
	inv := &fakeInvalidator{}
	svc := newTestDispatchService(t, products, receipts, stock, inv)

	out, err := svc.Submit(context.Background(), DispatchRequest{
		DocNo:   " 17 ",
		DocDate: "2026-03-02",
		Buyer:   "Agro Petrov",
		Lines:   []DispatchLine{seedLine()},
	})
	require.NoError(t, err)

	assert.Equal(t, 100.0, out.Total)
	assert.Empty(t, out.Warnings)

	require.Len(t, receipts.receipts, 1)
	rcpt := receipts.receipts[0]
	assert.Equal(t, models.DocDispatch, rcpt.DocType)
	assert.Nil(t, rcpt.Payment)
	require.NotNil(t, rcpt.ExternalDocNo)
	assert.Equal(t, "17", *rcpt.ExternalDocNo)

	require.Len(t, receipts.items, 1)
	assert.Equal(t, 50.0, receipts.items[0].Price)

	require.Len(t, stock.movements, 1)
	assert.Equal(t, "ИСПРАТНИЦА бр. 17 (2026-03-02)", *stock.movements[0].Note)
	assert.Equal(t, []string{"1001"}, inv.codes)
}

func TestDispatchSubmitRequiresCatalogProduct(t *testing.T) {
	line := seedLine()
	line.ProductID = ""
	receipts := &fakeReceipts{}
	svc := newTestDispatchService(t, &fakeProducts{}, receipts, &fakeStock{}, nil)

	_, err := svc.Submit(context.Background(), DispatchRequest{DocNo: "1", Lines: []DispatchLine{line}})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "lines", verr.Field)
	assert.Empty(t, receipts.receipts)
}

func TestDispatchSubmitWarnsAndPartial(t *testing.T) {
	products := &fakeProducts{stockByIDs: stockOf(map[string]float64{"p1": 1})}
	stock := &fakeStock{movementErr: errors.New("deadlock detected")}
	svc := newTestDispatchService(t, products, &fakeReceipts{}, stock, nil)

	_, err := svc.Submit(context.Background(), DispatchRequest{DocNo: "18", Lines: []DispatchLine{seedLine()}})

	var perr *PartialSubmissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, kindDispatch, perr.Kind)
	assert.Equal(t, StepMovement, perr.Step)
	assert.Equal(t, "rcpt-1", perr.Committed.ReceiptID)
}

func TestDispatchNote(t *testing.T) {
	svc := newTestDispatchService(t, &fakeProducts{}, &fakeReceipts{}, &fakeStock{}, nil)

	body, name, err := svc.Note(DispatchRequest{DocNo: "17/2026", Buyer: "Agro Petrov", Lines: []DispatchLine{seedLine()}})
	require.NoError(t, err)
	assert.Equal(t, "dispatch-17-2026.html", name)
	assert.Contains(t, string(body), "Agro Petrov")
	assert.Contains(t, string(body), "Seeds")
}

package services

import (
	"context"
	"sync"
	"time"

	"blameja-pos/internal/cart"
	"blameja-pos/internal/models"
	"blameja-pos/internal/repository"
)

// Fakes embed the interface so unexpected calls panic loudly.

type fakeProducts struct {
	repository.ProductRepository

	findStockByCode func(ctx context.Context, code string) (*models.ProductStock, error)
	searchStock     func(ctx context.Context, term string, limit int) ([]models.ProductStock, error)
	stockByPLU      func(ctx context.Context, plu string, limit int) ([]models.ProductStock, error)
	stockByIDs      func(ctx context.Context, ids []string) ([]models.ProductStock, error)
	getProduct      func(ctx context.Context, id string) (*models.Product, error)
	findActive      func(ctx context.Context, plu, barcode string) (*models.Product, error)
	createProduct   func(ctx context.Context, p *models.Product) error
	updateProduct   func(ctx context.Context, id string, patch *repository.ProductPatch) error
	deactivate      func(ctx context.Context, id string, clearCodes bool) error
}

func (f *fakeProducts) FindStockByCode(ctx context.Context, code string) (*models.ProductStock, error) {
	return f.findStockByCode(ctx, code)
}

func (f *fakeProducts) SearchStock(ctx context.Context, term string, limit int) ([]models.ProductStock, error) {
	return f.searchStock(ctx, term, limit)
}

func (f *fakeProducts) StockByPLU(ctx context.Context, plu string, limit int) ([]models.ProductStock, error) {
	return f.stockByPLU(ctx, plu, limit)
}

func (f *fakeProducts) StockByIDs(ctx context.Context, ids []string) ([]models.ProductStock, error) {
	return f.stockByIDs(ctx, ids)
}

func (f *fakeProducts) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return f.getProduct(ctx, id)
}

func (f *fakeProducts) FindActiveByPLUOrBarcode(ctx context.Context, plu, barcode string) (*models.Product, error) {
	return f.findActive(ctx, plu, barcode)
}

func (f *fakeProducts) CreateProduct(ctx context.Context, p *models.Product) error {
	return f.createProduct(ctx, p)
}

func (f *fakeProducts) UpdateProduct(ctx context.Context, id string, patch *repository.ProductPatch) error {
	return f.updateProduct(ctx, id, patch)
}

func (f *fakeProducts) DeactivateProduct(ctx context.Context, id string, clearCodes bool) error {
	return f.deactivate(ctx, id, clearCodes)
}

// stockOf answers StockByIDs from a fixed on-hand table.
func stockOf(onHand map[string]float64) func(context.Context, []string) ([]models.ProductStock, error) {
	return func(_ context.Context, ids []string) ([]models.ProductStock, error) {
		var out []models.ProductStock
		for _, id := range ids {
			if q, ok := onHand[id]; ok {
				out = append(out, models.ProductStock{ProductID: id, QtyOnHand: q})
			}
		}
		return out, nil
	}
}

// catalogOf answers StockByIDs from fixed catalog rows.
func catalogOf(rows ...models.ProductStock) func(context.Context, []string) ([]models.ProductStock, error) {
	return func(_ context.Context, ids []string) ([]models.ProductStock, error) {
		var out []models.ProductStock
		for _, id := range ids {
			for _, r := range rows {
				if r.ProductID == id {
					out = append(out, r)
				}
			}
		}
		return out, nil
	}
}

type fakeReceipts struct {
	repository.ReceiptRepository

	receipts []models.SalesReceipt
	items    []models.SalesItem
	itemsErr error
}

func (f *fakeReceipts) CreateReceipt(_ context.Context, r *models.SalesReceipt) error {
	r.ID = "rcpt-1"
	r.ReceiptNo = 1001
	r.CreatedAt = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	f.receipts = append(f.receipts, *r)
	return nil
}

func (f *fakeReceipts) CreateItems(_ context.Context, items []models.SalesItem) error {
	if f.itemsErr != nil {
		return f.itemsErr
	}
	f.items = append(f.items, items...)
	return nil
}

type fakeStock struct {
	repository.StockRepository

	movements   []models.StockMovement
	items       []models.StockMovementItem
	onHand      float64
	movementErr error
	itemsErr    error
	filter      models.MovementFilter
}

func (f *fakeStock) CreateMovement(_ context.Context, m *models.StockMovement) error {
	if f.movementErr != nil {
		return f.movementErr
	}
	m.ID = "mov-1"
	f.movements = append(f.movements, *m)
	return nil
}

func (f *fakeStock) CreateMovementItems(_ context.Context, items []models.StockMovementItem) error {
	if f.itemsErr != nil {
		return f.itemsErr
	}
	f.items = append(f.items, items...)
	return nil
}

func (f *fakeStock) OnHand(context.Context, string) (float64, error) {
	return f.onHand, nil
}

func (f *fakeStock) ListMovements(_ context.Context, filter models.MovementFilter) ([]models.MovementLine, error) {
	f.filter = filter
	return []models.MovementLine{}, nil
}

type fakeCatalog struct {
	repository.CatalogRepository

	suppliers     map[string]models.Supplier
	addressErr    error
	addressWrites map[string]string
	buyers        []models.Buyer
	searchLimit   int
}

func (f *fakeCatalog) GetSupplier(_ context.Context, id string) (*models.Supplier, error) {
	s, ok := f.suppliers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (f *fakeCatalog) UpdateSupplierAddress(_ context.Context, id, address string) error {
	if f.addressErr != nil {
		return f.addressErr
	}
	if f.addressWrites == nil {
		f.addressWrites = map[string]string{}
	}
	f.addressWrites[id] = address
	return nil
}

func (f *fakeCatalog) AllBuyers(context.Context) ([]models.Buyer, error) {
	return f.buyers, nil
}

func (f *fakeCatalog) SearchSuppliers(_ context.Context, _ string, limit int) ([]models.Supplier, error) {
	f.searchLimit = limit
	return []models.Supplier{}, nil
}

type fakeInvalidator struct {
	mu    sync.Mutex
	codes []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, codes ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, codes...)
	return nil
}

type fakeCartStore struct {
	drafts    map[string]*cart.Draft
	locks     map[string]string
	deleteErr error
	deleted   []string
	released  []string
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{drafts: map[string]*cart.Draft{}, locks: map[string]string{}}
}

func (f *fakeCartStore) Get(_ context.Context, id string) (*cart.Draft, error) {
	d, ok := f.drafts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	cp.Lines = append([]cart.Line(nil), d.Lines...)
	return &cp, nil
}

func (f *fakeCartStore) Save(_ context.Context, d *cart.Draft) error {
	f.drafts[d.ID] = d
	return nil
}

func (f *fakeCartStore) Update(ctx context.Context, id string, fn func(d *cart.Draft) error) (*cart.Draft, error) {
	if _, locked := f.locks[id]; locked {
		return nil, repository.ErrCartLocked
	}
	d, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	f.drafts[id] = d
	return d, nil
}

func (f *fakeCartStore) Claim(_ context.Context, id string) (string, error) {
	if _, locked := f.locks[id]; locked {
		return "", repository.ErrCartLocked
	}
	token := "lock-" + id
	f.locks[id] = token
	return token, nil
}

func (f *fakeCartStore) Release(_ context.Context, id, token string) error {
	if f.locks[id] == token {
		delete(f.locks, id)
	}
	f.released = append(f.released, id)
	return nil
}

func (f *fakeCartStore) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	delete(f.drafts, id)
	delete(f.locks, id)
	return nil
}

type fakeFinance struct {
	daily func(from, to time.Time) ([]models.DailySales, error)
	top   []models.TopProduct
}

func (f *fakeFinance) DailySales(_ context.Context, from, to time.Time) ([]models.DailySales, error) {
	return f.daily(from, to)
}

func (f *fakeFinance) TopProducts(context.Context, time.Time, time.Time, int) ([]models.TopProduct, error) {
	return f.top, nil
}

func strPtr(s string) *string { return &s }

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"blameja-pos/internal/models"
	"blameja-pos/internal/pricing"
	"blameja-pos/internal/search"
)

// ProductRepository reads the product_stock view and maintains the products table.
type ProductRepository interface {
	// product_stock view
	FindStockByCode(ctx context.Context, code string) (*models.ProductStock, error)
	SearchStock(ctx context.Context, term string, limit int) ([]models.ProductStock, error)
	StockByPLU(ctx context.Context, plu string, limit int) ([]models.ProductStock, error)
	ListStock(ctx context.Context, term string) ([]models.ProductStock, error)
	StockByIDs(ctx context.Context, ids []string) ([]models.ProductStock, error)
	FrequentProducts(ctx context.Context, limit int) ([]models.ProductStock, error)

	// products table
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	SearchProducts(ctx context.Context, term string, limit int) ([]models.Product, error)
	ProductsByPLU(ctx context.Context, plu string, limit int) ([]models.Product, error)
	FindActiveByPLUOrBarcode(ctx context.Context, plu, barcode string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id string, patch *ProductPatch) error
	DeactivateProduct(ctx context.Context, id string, clearCodes bool) error
}

type productRepository struct {
	db     *sql.DB
	stmts  map[string]*sql.Stmt
	logger *zap.Logger
}

func NewProductRepository(db *sql.DB, logger *zap.Logger) (ProductRepository, error) {
	repo := &productRepository{
		db:     db,
		stmts:  make(map[string]*sql.Stmt),
		logger: logger,
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *productRepository) prepareStatements() error {
	statements := map[string]string{
		// $2 is the PLU candidate or NULL when the code is not all digits.
		// An exact PLU hit wins over a barcode hit.
		"stock_by_code": `
			SELECT ` + productStockColumns + `
			FROM product_stock
			WHERE barcode = $1 OR ($2::text IS NOT NULL AND plu = $2)
			ORDER BY (plu = $2) DESC NULLS LAST
			LIMIT 1
		`,
		"stock_search": `
			SELECT ` + productStockColumns + `
			FROM product_stock
			WHERE barcode ILIKE $1 OR name ILIKE $1 OR plu ILIKE $1
			ORDER BY qty_on_hand DESC NULLS LAST
			LIMIT $2
		`,
		"stock_by_plu": `
			SELECT ` + productStockColumns + `
			FROM product_stock
			WHERE plu = $1
			ORDER BY qty_on_hand DESC NULLS LAST
			LIMIT $2
		`,
		"stock_list": `
			SELECT ` + productStockColumns + `
			FROM product_stock
			WHERE $1::text IS NULL
			   OR barcode ILIKE $1 OR name ILIKE $1 OR plu ILIKE $1
			   OR ($2::text IS NOT NULL AND plu = $2)
			ORDER BY name ASC
		`,
		"stock_by_ids": `
			SELECT ` + productStockColumns + `
			FROM product_stock
			WHERE product_id = ANY($1::uuid[])
		`,
		"stock_frequent": `
			SELECT ` + productStockColumns + `
			FROM product_stock ps
			JOIN (
				SELECT i.product_id AS sold_id, SUM(i.qty) AS sold
				FROM sales_items i
				JOIN sales_receipts r ON r.id = i.receipt_id
				WHERE r.created_at >= NOW() - INTERVAL '30 days'
				GROUP BY i.product_id
			) f ON f.sold_id = ps.product_id
			ORDER BY f.sold DESC
			LIMIT $1
		`,
		"product_get": `
			SELECT ` + productColumns + `
			FROM products
			WHERE id = $1
		`,
		"product_search": `
			SELECT ` + productColumns + `
			FROM products
			WHERE is_active AND (name ILIKE $1 OR plu ILIKE $1 OR barcode ILIKE $1)
			LIMIT $2
		`,
		"product_by_plu": `
			SELECT ` + productColumns + `
			FROM products
			WHERE is_active AND plu = $1
			LIMIT $2
		`,
		"product_by_plu_or_barcode": `
			SELECT ` + productColumns + `
			FROM products
			WHERE is_active AND (plu = $1 OR ($2::text IS NOT NULL AND barcode = $2))
			LIMIT 1
		`,
		"product_create": `
			INSERT INTO products
			(plu, barcode, name, description, unit, selling_price, tax_group, category_id, store_no, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true)
			RETURNING id, created_at, updated_at
		`,
		"product_deactivate": `
			UPDATE products
			SET is_active = false,
			    barcode = CASE WHEN $2 THEN NULL ELSE barcode END,
			    plu = CASE WHEN $2 THEN NULL ELSE plu END,
			    updated_at = NOW()
			WHERE id = $1
		`,
	}

	for name, query := range statements {
		stmt, err := r.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		r.stmts[name] = stmt
	}

	return nil
}

func likePattern(term string) string {
	return "%" + search.EscapeLike(term) + "%"
}

// pluArg is the trimmed code when it is all digits, otherwise NULL.
func pluArg(code string) any {
	if plu := pricing.ParseDigits(code); plu != "" {
		return plu
	}
	return nil
}

// FindStockByCode matches a scanned or typed code exactly against barcode or PLU.
// It returns nil, nil when nothing matches.
func (r *productRepository) FindStockByCode(ctx context.Context, code string) (*models.ProductStock, error) {
	trimmed := strings.TrimSpace(code)
	p, err := scanProductStock(r.stmts["stock_by_code"].QueryRowContext(ctx, trimmed, pluArg(trimmed)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find stock by code %s: %w", trimmed, err)
	}
	return &p, nil
}

func (r *productRepository) SearchStock(ctx context.Context, term string, limit int) ([]models.ProductStock, error) {
	rows, err := r.stmts["stock_search"].QueryContext(ctx, likePattern(term), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search stock: %w", err)
	}
	out, err := collectProductStock(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock rows: %w", err)
	}
	return out, nil
}

func (r *productRepository) StockByPLU(ctx context.Context, plu string, limit int) ([]models.ProductStock, error) {
	rows, err := r.stmts["stock_by_plu"].QueryContext(ctx, plu, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock by plu: %w", err)
	}
	out, err := collectProductStock(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock rows: %w", err)
	}
	return out, nil
}

// ListStock returns the whole stock list ordered by name, optionally filtered.
func (r *productRepository) ListStock(ctx context.Context, term string) ([]models.ProductStock, error) {
	t := strings.TrimSpace(term)
	var pattern any
	if t != "" {
		pattern = likePattern(t)
	}
	rows, err := r.stmts["stock_list"].QueryContext(ctx, pattern, pluArg(t))
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	out, err := collectProductStock(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock rows: %w", err)
	}
	return out, nil
}

func (r *productRepository) StockByIDs(ctx context.Context, ids []string) ([]models.ProductStock, error) {
	if len(ids) == 0 {
		return []models.ProductStock{}, nil
	}
	rows, err := r.stmts["stock_by_ids"].QueryContext(ctx, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get stock by ids: %w", err)
	}
	out, err := collectProductStock(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock rows: %w", err)
	}
	return out, nil
}

// FrequentProducts returns the best sellers of the last 30 days.
func (r *productRepository) FrequentProducts(ctx context.Context, limit int) ([]models.ProductStock, error) {
	rows, err := r.stmts["stock_frequent"].QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get frequent products: %w", err)
	}
	out, err := collectProductStock(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock rows: %w", err)
	}
	return out, nil
}

func (r *productRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := scanProduct(r.stmts["product_get"].QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return &p, nil
}

func (r *productRepository) SearchProducts(ctx context.Context, term string, limit int) ([]models.Product, error) {
	rows, err := r.stmts["product_search"].QueryContext(ctx, likePattern(term), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	out, err := collectProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}
	return out, nil
}

func (r *productRepository) ProductsByPLU(ctx context.Context, plu string, limit int) ([]models.Product, error) {
	rows, err := r.stmts["product_by_plu"].QueryContext(ctx, plu, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get products by plu: %w", err)
	}
	out, err := collectProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}
	return out, nil
}

// FindActiveByPLUOrBarcode returns nil, nil when no active product matches.
func (r *productRepository) FindActiveByPLUOrBarcode(ctx context.Context, plu, barcode string) (*models.Product, error) {
	var barcodeArg any
	if b := strings.TrimSpace(barcode); b != "" {
		barcodeArg = b
	}
	p, err := scanProduct(r.stmts["product_by_plu_or_barcode"].QueryRowContext(ctx, plu, barcodeArg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}
	return &p, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	var taxGroup any
	if p.TaxGroup != nil {
		taxGroup = *p.TaxGroup
	}
	err := r.stmts["product_create"].QueryRowContext(ctx,
		textOrNull(p.PLU), textOrNull(p.Barcode), p.Name, textOrNull(p.Description),
		string(models.ParseUnit(string(p.Unit))), p.SellingPrice, taxGroup,
		textOrNull(p.CategoryID), int(models.ParseStoreNo(int(p.StoreNo))),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	p.IsActive = true
	return nil
}

// UpdateProduct writes only the columns set on the patch.
func (r *productRepository) UpdateProduct(ctx context.Context, id string, patch *ProductPatch) error {
	if patch.Empty() {
		return nil
	}
	query, args := patch.build(id)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) DeactivateProduct(ctx context.Context, id string, clearCodes bool) error {
	result, err := r.stmts["product_deactivate"].ExecContext(ctx, id, clearCodes)
	if err != nil {
		return fmt.Errorf("failed to deactivate product %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

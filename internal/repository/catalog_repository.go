package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"blameja-pos/internal/models"
)

// CatalogRepository serves the lookup lists of the receiving and dispatch
// forms: categories, suppliers, buyers and product choices.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, code, name string) (*models.Category, error)

	SearchSuppliers(ctx context.Context, term string, limit int) ([]models.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*models.Supplier, error)
	UpdateSupplierAddress(ctx context.Context, id, address string) error

	AllBuyers(ctx context.Context) ([]models.Buyer, error)
	ProductChoices(ctx context.Context, categoryID string, storeNo int, term string, limit int) ([]models.ProductChoice, error)
}

type catalogRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

func NewCatalogRepository(db *sql.DB) (CatalogRepository, error) {
	repo := &catalogRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *catalogRepository) prepareStatements() error {
	statements := map[string]string{
		"categories_list": `
			SELECT id, code, name FROM categories ORDER BY name
		`,
		"category_create": `
			INSERT INTO categories (code, name) VALUES ($1, $2)
			RETURNING id, code, name
		`,
		"suppliers_search": `
			SELECT id, name, address FROM suppliers_search($1, $2)
		`,
		"supplier_get": `
			SELECT id, name, address FROM suppliers WHERE id = $1
		`,
		"supplier_update_address": `
			SELECT supplier_update_address($1, $2)
		`,
		"buyers_all": `
			SELECT key, name, address, source FROM buyers_all()
		`,
		"product_choices": `
			SELECT product_id, name, plu, barcode, selling_price, tax_group,
			       category_id, category_name, unit, store_no
			FROM product_choices_search($1, $2, $3, $4)
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

func (r *catalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.stmts["categories_list"].QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCategory stores the code upper-cased.
func (r *catalogRepository) CreateCategory(ctx context.Context, code, name string) (*models.Category, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return nil, fmt.Errorf("category code and name are required")
	}

	var c models.Category
	if err := r.stmts["category_create"].QueryRowContext(ctx, code, name).Scan(&c.ID, &c.Code, &c.Name); err != nil {
		return nil, fmt.Errorf("failed to create category %s: %w", code, err)
	}
	return &c, nil
}

// SearchSuppliers with an empty term browses suppliers by name.
func (r *catalogRepository) SearchSuppliers(ctx context.Context, term string, limit int) ([]models.Supplier, error) {
	rows, err := r.stmts["suppliers_search"].QueryContext(ctx, strings.TrimSpace(term), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search suppliers: %w", err)
	}
	defer rows.Close()

	out := []models.Supplier{}
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *catalogRepository) GetSupplier(ctx context.Context, id string) (*models.Supplier, error) {
	s, err := scanSupplier(r.stmts["supplier_get"].QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier %s: %w", id, err)
	}
	return &s, nil
}

// UpdateSupplierAddress is a no-op for a blank address.
func (r *catalogRepository) UpdateSupplierAddress(ctx context.Context, id, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil
	}
	if _, err := r.stmts["supplier_update_address"].ExecContext(ctx, id, address); err != nil {
		return fmt.Errorf("failed to update address of supplier %s: %w", id, err)
	}
	return nil
}

func (r *catalogRepository) AllBuyers(ctx context.Context) ([]models.Buyer, error) {
	rows, err := r.stmts["buyers_all"].QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load buyers: %w", err)
	}
	defer rows.Close()

	out := []models.Buyer{}
	for rows.Next() {
		b, err := scanBuyer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan buyer: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ProductChoices is scoped by category when categoryID is not blank and by
// store when storeNo is a valid store number.
func (r *catalogRepository) ProductChoices(ctx context.Context, categoryID string, storeNo int, term string, limit int) ([]models.ProductChoice, error) {
	var category, store any
	if c := strings.TrimSpace(categoryID); c != "" {
		category = c
	}
	if models.StoreNo(storeNo).Valid() {
		store = storeNo
	}
	rows, err := r.stmts["product_choices"].QueryContext(ctx, category, store, strings.TrimSpace(term), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search product choices: %w", err)
	}
	defer rows.Close()

	out := []models.ProductChoice{}
	for rows.Next() {
		c, err := scanProductChoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product choice: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

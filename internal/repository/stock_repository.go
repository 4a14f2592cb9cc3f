package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"blameja-pos/internal/models"
)

// StockRepository writes stock movements. On-hand quantities are never stored;
// the product_stock view sums the movement items.
type StockRepository interface {
	CreateMovement(ctx context.Context, m *models.StockMovement) error
	CreateMovementItems(ctx context.Context, items []models.StockMovementItem) error
	ListMovements(ctx context.Context, filter models.MovementFilter) ([]models.MovementLine, error)
	OnHand(ctx context.Context, productID string) (float64, error)
}

type stockRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

func NewStockRepository(db *sql.DB) (StockRepository, error) {
	repo := &stockRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *stockRepository) prepareStatements() error {
	statements := map[string]string{
		"create_movement": `
			INSERT INTO stock_movements (type, note, supplier_id)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`,
		"on_hand": `
			SELECT qty_on_hand FROM product_stock WHERE product_id = $1
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

func (r *stockRepository) CreateMovement(ctx context.Context, m *models.StockMovement) error {
	if !m.Type.Valid() {
		return fmt.Errorf("invalid movement type %q", m.Type)
	}
	err := r.stmts["create_movement"].QueryRowContext(ctx, string(m.Type), textOrNull(m.Note), textOrNull(m.SupplierID)).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create %s movement: %w", m.Type, err)
	}
	return nil
}

// CreateMovementItems inserts all items in one multi-row statement.
func (r *stockRepository) CreateMovementItems(ctx context.Context, items []models.StockMovementItem) error {
	if len(items) == 0 {
		return nil
	}

	const cols = 6
	values := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*cols)
	for i, it := range items {
		n := i * cols
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6))

		var direction any
		if it.AdjustDirection != nil {
			direction = string(*it.AdjustDirection)
		}
		args = append(args, it.MovementID, it.ProductID, it.Qty, it.UnitCost, it.UnitPrice, direction)
	}

	query := `INSERT INTO stock_movement_items (movement_id, product_id, qty, unit_cost, unit_price, adjust_direction) VALUES ` +
		strings.Join(values, ", ")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert %d movement items: %w", len(items), err)
	}
	return nil
}

// ListMovements returns movement items joined with their header, newest first.
func (r *stockRepository) ListMovements(ctx context.Context, filter models.MovementFilter) ([]models.MovementLine, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.Type != nil {
		add("m.type = $%d", string(*filter.Type))
	}
	if filter.ProductID != nil {
		add("i.product_id = $%d", *filter.ProductID)
	}
	if filter.From != nil {
		add("m.created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("m.created_at < $%d", *filter.To)
	}

	query := `
		SELECT m.id, m.type, m.note, m.created_at, i.product_id, p.name,
		       i.qty, i.unit_cost, i.unit_price, i.adjust_direction
		FROM stock_movement_items i
		JOIN stock_movements m ON m.id = i.movement_id
		JOIN products p ON p.id = i.product_id`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit, max(0, filter.Offset))
	query += fmt.Sprintf("\n\t\tORDER BY m.created_at DESC, i.id DESC\n\t\tLIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	out := []models.MovementLine{}
	for rows.Next() {
		l, err := scanMovementLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *stockRepository) OnHand(ctx context.Context, productID string) (float64, error) {
	var qty sql.NullFloat64
	err := r.stmts["on_hand"].QueryRowContext(ctx, productID).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read on-hand for %s: %w", productID, err)
	}
	return number(qty), nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"blameja-pos/internal/models"
)

// ReceiptRepository stores sale and dispatch documents.
type ReceiptRepository interface {
	CreateReceipt(ctx context.Context, rcpt *models.SalesReceipt) error
	CreateItems(ctx context.Context, items []models.SalesItem) error
	GetReceipt(ctx context.Context, id string) (*models.SalesReceipt, []models.SalesItem, error)
}

type receiptRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

func NewReceiptRepository(db *sql.DB) (ReceiptRepository, error) {
	repo := &receiptRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *receiptRepository) prepareStatements() error {
	statements := map[string]string{
		"create_receipt": `
			INSERT INTO sales_receipts (doc_type, external_doc_no, payment, total, cash_received)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, receipt_no, created_at
		`,
		"get_receipt": `
			SELECT id, receipt_no, doc_type, external_doc_no, payment, total, cash_received, created_at
			FROM sales_receipts
			WHERE id = $1
		`,
		"get_items": `
			SELECT receipt_id, product_id, qty, base_price, price, discount
			FROM sales_items
			WHERE receipt_id = $1
			ORDER BY id
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

func (r *receiptRepository) CreateReceipt(ctx context.Context, rcpt *models.SalesReceipt) error {
	var payment any
	if rcpt.Payment != nil {
		payment = string(*rcpt.Payment)
	}
	var cash any
	if rcpt.CashReceived != nil {
		cash = *rcpt.CashReceived
	}
	docType := rcpt.DocType
	if docType == "" {
		docType = models.DocSale
	}

	err := r.stmts["create_receipt"].QueryRowContext(ctx,
		string(docType), textOrNull(rcpt.ExternalDocNo), payment, rcpt.Total, cash,
	).Scan(&rcpt.ID, &rcpt.ReceiptNo, &rcpt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	rcpt.DocType = docType
	return nil
}

// CreateItems inserts all lines in one multi-row statement.
func (r *receiptRepository) CreateItems(ctx context.Context, items []models.SalesItem) error {
	if len(items) == 0 {
		return nil
	}

	const cols = 6
	values := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*cols)
	for i, it := range items {
		n := i * cols
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6))
		args = append(args, it.ReceiptID, it.ProductID, it.Qty, it.BasePrice, it.Price, it.Discount)
	}

	query := `INSERT INTO sales_items (receipt_id, product_id, qty, base_price, price, discount) VALUES ` +
		strings.Join(values, ", ")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert %d sales items: %w", len(items), err)
	}
	return nil
}

func (r *receiptRepository) GetReceipt(ctx context.Context, id string) (*models.SalesReceipt, []models.SalesItem, error) {
	var (
		rcpt        models.SalesReceipt
		docType     string
		externalNo  sql.NullString
		payment     sql.NullString
		total, cash sql.NullFloat64
	)
	err := r.stmts["get_receipt"].QueryRowContext(ctx, id).Scan(
		&rcpt.ID, &rcpt.ReceiptNo, &docType, &externalNo, &payment, &total, &cash, &rcpt.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get receipt %s: %w", id, err)
	}
	rcpt.DocType = models.DocType(docType)
	rcpt.ExternalDocNo = nullableText(externalNo)
	if payment.Valid {
		p := models.PaymentMethod(payment.String)
		rcpt.Payment = &p
	}
	rcpt.Total = number(total)
	if cash.Valid {
		c := number(cash)
		rcpt.CashReceived = &c
	}

	rows, err := r.stmts["get_items"].QueryContext(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get items of receipt %s: %w", id, err)
	}
	defer rows.Close()

	items := []models.SalesItem{}
	for rows.Next() {
		var (
			it                              models.SalesItem
			qty, basePrice, price, discount sql.NullFloat64
		)
		if err := rows.Scan(&it.ReceiptID, &it.ProductID, &qty, &basePrice, &price, &discount); err != nil {
			return nil, nil, fmt.Errorf("failed to scan sales item: %w", err)
		}
		it.Qty = number(qty)
		it.BasePrice = number(basePrice)
		it.Price = number(price)
		it.Discount = number(discount)
		items = append(items, it)
	}
	return &rcpt, items, rows.Err()
}

package repository

import (
	"database/sql"
	"errors"
	"math"
	"strings"

	"blameja-pos/internal/models"
)

var ErrNotFound = errors.New("not found")

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Every read goes through one normalize function per entity: NULL numbers
// become 0, NULL or blank text becomes nil, units and store numbers fall back
// to their defaults.

func nullableText(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	t := strings.TrimSpace(ns.String)
	if t == "" {
		return nil
	}
	return &t
}

func nullableInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func number(nf sql.NullFloat64) float64 {
	if !nf.Valid || math.IsNaN(nf.Float64) || math.IsInf(nf.Float64, 0) {
		return 0
	}
	return nf.Float64
}

func textOrNull(s *string) any {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return strings.TrimSpace(*s)
}

const productStockColumns = `product_id, plu, barcode, name, selling_price, category_name, unit, store_no, qty_on_hand`

func scanProductStock(s rowScanner) (models.ProductStock, error) {
	var (
		id, unit                         string
		plu, barcode, name, categoryName sql.NullString
		price, onHand                    sql.NullFloat64
		storeNo                          sql.NullInt64
	)
	if err := s.Scan(&id, &plu, &barcode, &name, &price, &categoryName, &unit, &storeNo, &onHand); err != nil {
		return models.ProductStock{}, err
	}
	return models.ProductStock{
		ProductID:    id,
		PLU:          nullableText(plu),
		Barcode:      nullableText(barcode),
		Name:         strings.TrimSpace(name.String),
		SellingPrice: number(price),
		CategoryName: nullableText(categoryName),
		Unit:         models.ParseUnit(unit),
		StoreNo:      models.ParseStoreNo(int(storeNo.Int64)),
		QtyOnHand:    number(onHand),
	}, nil
}

func collectProductStock(rows *sql.Rows) ([]models.ProductStock, error) {
	defer rows.Close()

	out := []models.ProductStock{}
	for rows.Next() {
		p, err := scanProductStock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const productColumns = `id, plu, barcode, name, description, unit, selling_price, tax_group, category_id, store_no, is_active, created_at, updated_at`

func scanProduct(s rowScanner) (models.Product, error) {
	var (
		p                                     models.Product
		unit                                  string
		plu, barcode, description, categoryID sql.NullString
		price                                 sql.NullFloat64
		taxGroup, storeNo                     sql.NullInt64
	)
	err := s.Scan(&p.ID, &plu, &barcode, &p.Name, &description, &unit, &price, &taxGroup,
		&categoryID, &storeNo, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Product{}, err
	}
	p.PLU = nullableText(plu)
	p.Barcode = nullableText(barcode)
	p.Name = strings.TrimSpace(p.Name)
	p.Description = nullableText(description)
	p.Unit = models.ParseUnit(unit)
	p.SellingPrice = number(price)
	p.TaxGroup = nullableInt(taxGroup)
	p.CategoryID = nullableText(categoryID)
	p.StoreNo = models.ParseStoreNo(int(storeNo.Int64))
	return p, nil
}

func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	defer rows.Close()

	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProductChoice(s rowScanner) (models.ProductChoice, error) {
	var (
		c                                                  models.ProductChoice
		name, plu, barcode, categoryID, categoryName, unit sql.NullString
		price                                              sql.NullFloat64
		taxGroup, storeNo                                  sql.NullInt64
	)
	err := s.Scan(&c.ProductID, &name, &plu, &barcode, &price, &taxGroup, &categoryID, &categoryName, &unit, &storeNo)
	if err != nil {
		return models.ProductChoice{}, err
	}
	c.Name = strings.TrimSpace(name.String)
	c.PLU = nullableText(plu)
	c.Barcode = nullableText(barcode)
	c.SellingPrice = number(price)
	c.TaxGroup = nullableInt(taxGroup)
	c.CategoryID = nullableText(categoryID)
	c.CategoryName = nullableText(categoryName)
	c.Unit = models.ParseUnit(unit.String)
	c.StoreNo = models.ParseStoreNo(int(storeNo.Int64))
	return c, nil
}

func scanSupplier(s rowScanner) (models.Supplier, error) {
	var (
		sup     models.Supplier
		address sql.NullString
	)
	if err := s.Scan(&sup.ID, &sup.Name, &address); err != nil {
		return models.Supplier{}, err
	}
	sup.Name = strings.TrimSpace(sup.Name)
	sup.Address = nullableText(address)
	return sup, nil
}

func scanBuyer(s rowScanner) (models.Buyer, error) {
	var (
		b       models.Buyer
		address sql.NullString
		source  string
	)
	if err := s.Scan(&b.Key, &b.Name, &address, &source); err != nil {
		return models.Buyer{}, err
	}
	b.Name = strings.TrimSpace(b.Name)
	b.Address = nullableText(address)
	b.Source = models.BuyerPerson
	if models.BuyerSource(source) == models.BuyerSupplier {
		b.Source = models.BuyerSupplier
	}
	return b, nil
}

func scanMovementLine(s rowScanner) (models.MovementLine, error) {
	var (
		l                        models.MovementLine
		note, name, direction    sql.NullString
		qty, unitCost, unitPrice sql.NullFloat64
	)
	err := s.Scan(&l.MovementID, &l.Type, &note, &l.CreatedAt, &l.ProductID, &name,
		&qty, &unitCost, &unitPrice, &direction)
	if err != nil {
		return models.MovementLine{}, err
	}
	l.Note = nullableText(note)
	l.ProductName = strings.TrimSpace(name.String)
	l.Qty = number(qty)
	l.UnitCost = number(unitCost)
	l.UnitPrice = number(unitPrice)
	if direction.Valid {
		d := models.AdjustDirection(direction.String)
		l.AdjustDirection = &d
	}
	return l, nil
}

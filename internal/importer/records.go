package importer

// records.go builds the candidate records that the batch writers persist.
//
// Candidate identifiers are random v4 UUIDs generated at construction time.
// For products the identifier is provisional: the storage-side upsert keeps
// the id already stored for an existing handle, so the candidate id must
// never leak into a variant row. Variants are therefore built only after the
// engine has re-read the authoritative ids from storage.

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// StockStatus classifies a variant by its on-hand quantity.
type StockStatus string

const (
	StatusInStock    StockStatus = "in_stock"
	StatusLowStock   StockStatus = "low_stock"
	StatusOutOfStock StockStatus = "out_of_stock"
)

// StatusForQuantity derives the stock status from a quantity. It is evaluated
// at construction time and again on every update, so the stored status always
// reflects the latest quantity.
func StatusForQuantity(qty int) StockStatus {
	switch {
	case qty > 10:
		return StatusInStock
	case qty > 0:
		return StatusLowStock
	default:
		return StatusOutOfStock
	}
}

// ProductRecord is a not-yet-persisted product candidate.
type ProductRecord struct {
	ID        uuid.UUID
	Handle    string
	Name      string
	Brand     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProductRecord builds a product candidate with a fresh identifier.
//
// The record carries no description: this pipeline always persists
// description as NULL regardless of input. That normalization is deliberate
// and must be preserved.
func NewProductRecord(handle, title, vendor string, now time.Time) ProductRecord {
	return ProductRecord{
		ID:        uuid.New(),
		Handle:    handle,
		Name:      title,
		Brand:     vendor,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// VariantRecord is a not-yet-persisted variant bound to a persisted product.
type VariantRecord struct {
	ID        uuid.UUID
	SKU       string
	ProductID uuid.UUID
	Quantity  int
	Price     pgtype.Numeric
	Barcode   pgtype.Text
	Status    StockStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewVariantRecord builds a variant candidate. productID must be the id
// resolved from storage, never the candidate id generated this run. A blank
// barcode normalizes to NULL.
func NewVariantRecord(sku string, productID uuid.UUID, qty int, price pgtype.Numeric, barcode string, now time.Time) VariantRecord {
	return VariantRecord{
		ID:        uuid.New(),
		SKU:       sku,
		ProductID: productID,
		Quantity:  qty,
		Price:     price,
		Barcode:   toText(barcode),
		Status:    StatusForQuantity(qty),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// columnValues projects the record onto productUpsert.columns, in order.
func (p ProductRecord) columnValues() []any {
	return []any{p.ID, p.Handle, p.Name, pgtype.Text{}, p.Brand, p.CreatedAt, p.UpdatedAt}
}

// columnValues projects the record onto variantUpsert.columns, in order.
func (v VariantRecord) columnValues() []any {
	return []any{v.ID, v.SKU, v.ProductID, v.Quantity, v.Price, v.Barcode, string(v.Status), v.CreatedAt, v.UpdatedAt}
}

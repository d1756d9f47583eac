package importer

// schema.go declares the expected shape of the catalog export.
//
// The format is fixed: seven columns, exact header names, first record is the
// header. The table below is the single source of truth for validation; there
// is no runtime schema document to load or parse.

// ExpectedColumnCount is the number of columns in a well-formed export.
const ExpectedColumnCount = 7

// Column names as they appear in the export header.
const (
	colHandle  = "Handle"
	colTitle   = "Title"
	colVendor  = "Vendor"
	colSKU     = "Variant SKU"
	colQty     = "Variant Inventory Qty"
	colPrice   = "Variant Price"
	colBarcode = "Variant Barcode"
)

// FieldKind is the expected data type for a column.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldInteger
	FieldDecimal
)

// FieldSpec declares the constraints for a single column.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool // value must be non-empty after trimming

	// NonNegative rejects values below zero for FieldInteger columns. A
	// negative quantity would still derive a valid out_of_stock status,
	// but the accepted input contract treats it as corrupted.
	NonNegative bool
}

// fieldSpecs is ordered to match the canonical header.
var fieldSpecs = [ExpectedColumnCount]FieldSpec{
	{Name: colHandle, Kind: FieldText, Required: true},
	{Name: colTitle, Kind: FieldText},
	{Name: colVendor, Kind: FieldText},
	{Name: colSKU, Kind: FieldText, Required: true},
	{Name: colQty, Kind: FieldInteger, Required: true, NonNegative: true},
	{Name: colPrice, Kind: FieldDecimal, Required: true},
	{Name: colBarcode, Kind: FieldText},
}

// ExpectedHeader returns the canonical column names in order.
func ExpectedHeader() []string {
	names := make([]string, len(fieldSpecs))
	for i, spec := range fieldSpecs {
		names[i] = spec.Name
	}
	return names
}

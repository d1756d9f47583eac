package importer

import "testing"

func validHeader() []string {
	return []string{"Handle", "Title", "Vendor", "Variant SKU", "Variant Inventory Qty", "Variant Price", "Variant Barcode"}
}

func TestValidateRejectsColumnCountMismatch(t *testing.T) {
	v := NewRowValidator(validHeader())

	tests := []struct {
		name string
		row  []string
	}{
		{
			name: "missing column",
			row:  []string{"product-2", "Product 2", "BrandY", "Sku2", "5", "49.99"},
		},
		{
			name: "extra column",
			row:  []string{"product-3", "Product 3", "BrandZ", "Sku3", "15", "149.99", "456789123", "extra"},
		},
		{
			name: "empty row",
			row:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.row)
			if res.OK() {
				t.Fatal("expected rejection, row was accepted")
			}
			if res.Reason != RejectionColumnCount {
				t.Errorf("reason = %v, want %v", res.Reason, RejectionColumnCount)
			}
		})
	}
}

func TestValidateRejectsKeyMismatch(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{
			name:   "mislabeled column",
			header: []string{"Handle", "Title", "Vendor", "SKU", "Variant Inventory Qty", "Variant Price", "Variant Barcode"},
		},
		{
			name:   "duplicate column name",
			header: []string{"Handle", "Handle", "Vendor", "Variant SKU", "Variant Inventory Qty", "Variant Price", "Variant Barcode"},
		},
	}

	row := []string{"product-1", "Product 1", "BrandX", "Sku1", "10", "99.99", "123456789"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewRowValidator(tt.header)
			res := v.Validate(row)
			if res.Reason != RejectionKeyMismatch {
				t.Errorf("reason = %v, want %v", res.Reason, RejectionKeyMismatch)
			}
		})
	}
}

func TestValidateReorderedHeaderAccepted(t *testing.T) {
	// Reordered but correctly labeled headers zip onto the expected key
	// set, so the row is accepted with values keyed by name.
	header := []string{"Title", "Handle", "Vendor", "Variant SKU", "Variant Inventory Qty", "Variant Price", "Variant Barcode"}
	v := NewRowValidator(header)

	res := v.Validate([]string{"Product 1", "product-1", "BrandX", "Sku1", "10", "99.99", ""})
	if !res.OK() {
		t.Fatalf("expected acceptance, got %v", res.Reason)
	}
	if res.Values[colHandle] != "product-1" {
		t.Errorf("handle = %q, want %q", res.Values[colHandle], "product-1")
	}
	if res.Values[colTitle] != "Product 1" {
		t.Errorf("title = %q, want %q", res.Values[colTitle], "Product 1")
	}
}

func TestValidateFieldConstraints(t *testing.T) {
	v := NewRowValidator(validHeader())

	tests := []struct {
		name      string
		row       []string
		wantOK    bool
		wantField string
	}{
		{
			name:   "valid row",
			row:    []string{"product-1", "Product 1", "BrandX", "Sku1", "10", "99.99", "123456789"},
			wantOK: true,
		},
		{
			name:   "blank barcode allowed",
			row:    []string{"product-1", "Product 1", "BrandX", "Sku1", "10", "99.99", ""},
			wantOK: true,
		},
		{
			name:   "zero quantity allowed",
			row:    []string{"product-1", "Product 1", "BrandX", "Sku1", "0", "99.99", ""},
			wantOK: true,
		},
		{
			name:      "non-numeric price",
			row:       []string{"product-2", "Product 2", "BrandY", "Sku2", "10", "INVALID_PRICE", "987654321"},
			wantField: colPrice,
		},
		{
			name:      "non-numeric quantity",
			row:       []string{"product-2", "Product 2", "BrandY", "Sku2", "many", "49.99", "987654321"},
			wantField: colQty,
		},
		{
			name:      "negative quantity",
			row:       []string{"product-3", "Product 3", "BrandZ", "Sku3", "-5", "79.99", "555555555"},
			wantField: colQty,
		},
		{
			name:      "fractional quantity",
			row:       []string{"product-3", "Product 3", "BrandZ", "Sku3", "1.5", "79.99", ""},
			wantField: colQty,
		},
		{
			name:      "empty handle",
			row:       []string{"", "Product 1", "BrandX", "Sku1", "10", "99.99", ""},
			wantField: colHandle,
		},
		{
			name:      "empty sku",
			row:       []string{"product-1", "Product 1", "BrandX", "", "10", "99.99", ""},
			wantField: colSKU,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.row)
			if tt.wantOK {
				if !res.OK() {
					t.Fatalf("expected acceptance, got %v: %v", res.Reason, res.Fields)
				}
				return
			}
			if res.Reason != RejectionSchema {
				t.Fatalf("reason = %v, want %v", res.Reason, RejectionSchema)
			}
			found := false
			for _, fe := range res.Fields {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("no field error for %q in %v", tt.wantField, res.Fields)
			}
		})
	}
}

func TestValidateTrimsValues(t *testing.T) {
	v := NewRowValidator(validHeader())

	res := v.Validate([]string{"  product-1  ", " Product 1", "BrandX ", "Sku1", " 10 ", " 99.99 ", " "})
	if !res.OK() {
		t.Fatalf("expected acceptance, got %v: %v", res.Reason, res.Fields)
	}
	if res.Values[colHandle] != "product-1" {
		t.Errorf("handle = %q, want trimmed %q", res.Values[colHandle], "product-1")
	}
	if res.Values[colBarcode] != "" {
		t.Errorf("barcode = %q, want empty after trim", res.Values[colBarcode])
	}
}

func TestValidateIsStateless(t *testing.T) {
	v := NewRowValidator(validHeader())
	bad := []string{"product-1", "Product 1", "BrandX", "Sku1", "x", "99.99", ""}
	good := []string{"product-1", "Product 1", "BrandX", "Sku1", "10", "99.99", ""}

	if res := v.Validate(bad); res.OK() {
		t.Fatal("bad row accepted")
	}
	if res := v.Validate(good); !res.OK() {
		t.Fatalf("good row rejected after bad row: %v", res.Reason)
	}
}

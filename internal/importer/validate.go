package importer

// validate.go checks raw rows against the declared column table before any
// record is built.
//
// Three rejection classes, checked in order:
//  1. Column count: the raw row must have exactly as many cells as the header.
//  2. Key shape: the header names must cover the expected field set. With a
//     single well-formed header this is redundant with the count check, but it
//     catches reordered or mislabeled headers.
//  3. Field constraints: type, range, and required-value checks per column.
//
// All rejections are row-level and recoverable; the engine counts the row as
// corrupted and moves on.

import (
	"fmt"
	"strconv"
	"strings"
)

// RejectionReason classifies why a data row was skipped.
type RejectionReason int

const (
	RejectionNone RejectionReason = iota
	RejectionColumnCount
	RejectionKeyMismatch
	RejectionSchema
)

func (r RejectionReason) String() string {
	switch r {
	case RejectionNone:
		return "none"
	case RejectionColumnCount:
		return "column count mismatch"
	case RejectionKeyMismatch:
		return "schema key mismatch"
	case RejectionSchema:
		return "schema validation failed"
	default:
		return "unknown"
	}
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string
	Value   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RowResult is the outcome of validating one raw row.
// When the row is accepted, Values holds the trimmed cells keyed by their
// canonical column name.
type RowResult struct {
	Reason RejectionReason
	Fields []FieldError // populated for RejectionSchema
	Values map[string]string
}

// OK reports whether the row was accepted.
func (r RowResult) OK() bool { return r.Reason == RejectionNone }

// RowValidator validates raw rows against the declared field table for one
// header. It holds no per-row state and is safe to call concurrently.
type RowValidator struct {
	header      []string
	keyMismatch bool
}

// NewRowValidator builds a validator for the given header row.
//
// Whether the header names zip onto the expected field set is decided once
// here: with a fixed header the key-shape outcome is identical for every row.
func NewRowValidator(header []string) *RowValidator {
	v := &RowValidator{header: append([]string(nil), header...)}

	seen := make(map[string]bool, len(header))
	for _, name := range header {
		seen[strings.TrimSpace(name)] = true
	}
	for _, spec := range fieldSpecs {
		if !seen[spec.Name] {
			v.keyMismatch = true
		}
	}
	if len(seen) != len(fieldSpecs) {
		v.keyMismatch = true
	}
	return v
}

// Validate checks a single raw row. It never touches storage.
func (v *RowValidator) Validate(raw []string) RowResult {
	if len(raw) != len(v.header) {
		return RowResult{Reason: RejectionColumnCount}
	}
	if v.keyMismatch {
		return RowResult{Reason: RejectionKeyMismatch}
	}

	values := make(map[string]string, len(raw))
	for i, name := range v.header {
		values[strings.TrimSpace(name)] = strings.TrimSpace(raw[i])
	}

	var fieldErrs []FieldError
	for _, spec := range fieldSpecs {
		val := values[spec.Name]
		if val == "" {
			if spec.Required {
				fieldErrs = append(fieldErrs, FieldError{
					Field:   spec.Name,
					Message: "required field is empty",
				})
			}
			continue
		}

		switch spec.Kind {
		case FieldInteger:
			n, err := strconv.Atoi(val)
			if err != nil {
				fieldErrs = append(fieldErrs, FieldError{
					Field:   spec.Name,
					Value:   val,
					Message: "not an integer",
				})
			} else if spec.NonNegative && n < 0 {
				fieldErrs = append(fieldErrs, FieldError{
					Field:   spec.Name,
					Value:   val,
					Message: "must not be negative",
				})
			}
		case FieldDecimal:
			if !toNumeric(val).Valid {
				fieldErrs = append(fieldErrs, FieldError{
					Field:   spec.Name,
					Value:   val,
					Message: "not a valid decimal",
				})
			}
		}
	}

	if len(fieldErrs) > 0 {
		return RowResult{Reason: RejectionSchema, Fields: fieldErrs}
	}
	return RowResult{Values: values}
}

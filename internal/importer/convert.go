package importer

// convert.go coerces cell text into pgtype values for storage.
//
// Empty input maps to an invalid pgtype value, which pgx sends as NULL. That
// is how an absent barcode ends up as NULL rather than an empty string.

import (
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// decimalRegex matches plain decimals: integers, fractions, optional sign.
// Scientific notation and currency formatting are not part of the export
// format and fail validation rather than being silently coerced.
var decimalRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// toText converts a cell to pgtype.Text, NULL for blank input.
func toText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toNumeric parses a plain decimal into pgtype.Numeric.
// Returns an invalid Numeric for blank or malformed input.
func toNumeric(s string) pgtype.Numeric {
	s = strings.TrimSpace(s)
	if s == "" || !decimalRegex.MatchString(s) {
		return pgtype.Numeric{}
	}
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{}
	}
	return n
}

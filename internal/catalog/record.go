package catalog

import (
	"strconv"
	"strings"
)

// Draft is one accepted row after validation, coercion and name cleaning.
type Draft struct {
	Class        string
	Name         string
	Code         string
	Presentation string
	Stock        int
	Image        string
}

// verifiedValues is the truthy set for the verified column, compared after
// trimming and lowercasing. Sheets export checkboxes as TRUE/FALSE; the rest
// come from hand-typed cells.
var verifiedValues = map[string]bool{
	"true":      true,
	"verdadero": true,
	"1":         true,
	"sí":        true,
	"si":        true,
}

// IsVerified reports whether a raw verified cell counts as checked.
func IsVerified(raw string) bool {
	return verifiedValues[strings.ToLower(trimSpace(raw))]
}

// ParseStock reads the leading integer of raw: "12", "12 pzas" and "12.5"
// all give 12. Anything without a leading integer, and any negative value,
// gives 0.
func ParseStock(raw string) int {
	s := trimSpace(raw)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// DeriveRow builds a Draft from a data row. It returns false when the row
// must be skipped: empty code, empty description, or not verified.
func DeriveRow(row []string, idx HeaderIndex) (Draft, bool) {
	code := idx.Cell(row, FieldCode)
	desc := idx.Cell(row, FieldDescription)
	if code == "" || desc == "" {
		return Draft{}, false
	}
	if !IsVerified(idx.Cell(row, FieldVerified)) {
		return Draft{}, false
	}

	return Draft{
		Class:        strings.ToLower(idx.Cell(row, FieldClass)),
		Name:         CleanName(desc),
		Code:         code,
		Presentation: ExtractPresentation(desc),
		Stock:        ParseStock(idx.Cell(row, FieldStock)),
		Image:        idx.Cell(row, FieldImage),
	}, true
}

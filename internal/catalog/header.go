package catalog

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Field is a logical column of the catalog export.
type Field int

const (
	FieldClass Field = iota
	FieldCode
	FieldDescription
	FieldStock
	FieldImage
	FieldVerified

	fieldCount
)

// fieldHeaders holds the expected (lowercase) header name for each Field.
var fieldHeaders = [fieldCount]string{
	FieldClass:       "cse_prod",
	FieldCode:        "cve_prod",
	FieldDescription: "desc_prod",
	FieldStock:       "existencias",
	FieldImage:       "cve_image",
	FieldVerified:    "verificado",
}

// Fields returns every logical field in column-definition order.
func Fields() []Field {
	fields := make([]Field, fieldCount)
	for i := range fields {
		fields[i] = Field(i)
	}
	return fields
}

// Header returns the header name the export uses for f.
func (f Field) Header() string {
	if f < 0 || f >= fieldCount {
		return ""
	}
	return fieldHeaders[f]
}

func (f Field) String() string {
	if h := f.Header(); h != "" {
		return h
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ExpectedHeader returns the header row a well-formed export starts with.
func ExpectedHeader() []string {
	out := make([]string, fieldCount)
	copy(out, fieldHeaders[:])
	return out
}

// ErrColumnMismatch is the schema error: the header row lacks one or more
// required columns. Match it with errors.Is; the concrete error is a
// *ColumnMismatchError.
var ErrColumnMismatch = errors.New("column mismatch")

// ColumnMismatchError lists the required headers that were not found.
type ColumnMismatchError struct {
	Missing []string
}

func (e *ColumnMismatchError) Error() string {
	return fmt.Sprintf("column mismatch: missing required column(s) %s", strings.Join(e.Missing, ", "))
}

// Is reports whether target is ErrColumnMismatch.
func (e *ColumnMismatchError) Is(target error) bool {
	return target == ErrColumnMismatch
}

// HeaderIndex maps each logical field to its zero-based column position.
type HeaderIndex map[Field]int

// ResolveHeader locates every logical field in a header row. Header cells
// are trimmed and lowercased before an exact comparison; when a name
// appears twice the first position wins.
func ResolveHeader(header []string) (HeaderIndex, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(trimSpace(h))
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	idx := make(HeaderIndex, fieldCount)
	var missing []string
	for _, f := range Fields() {
		pos, ok := positions[f.Header()]
		if !ok {
			missing = append(missing, f.Header())
			continue
		}
		idx[f] = pos
	}

	if len(missing) > 0 {
		return nil, &ColumnMismatchError{Missing: missing}
	}
	return idx, nil
}

// Cell returns the trimmed value of f in row, or "" when the row is too
// short or f is unresolved.
func (idx HeaderIndex) Cell(row []string, f Field) string {
	pos, ok := idx[f]
	if !ok || pos < 0 || pos >= len(row) {
		return ""
	}
	return trimSpace(row[pos])
}

// trimSpace trims Unicode whitespace and U+FEFF, so a BOM left on the
// first header cell does not hide cse_prod.
func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

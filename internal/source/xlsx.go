package source

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheets is returned for a workbook without any worksheet.
var ErrNoSheets = errors.New("invalid xlsx: workbook has no sheets")

// ReadXLSX returns the rows of the first worksheet. Cells are read as
// displayed text, so a checkbox column comes through as TRUE/FALSE just
// like the CSV export. Trailing empty cells are not returned, which the
// catalog build treats as empty fields.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

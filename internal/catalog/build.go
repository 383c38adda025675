package catalog

import (
	"errors"

	"github.com/JonMunkholm/catalog/internal/csv"
)

// ErrEmptyInput means the export had no rows at all, not even a header.
var ErrEmptyInput = errors.New("empty file: no header row")

// Stats are the per-build counts. They are reported, never acted on.
type Stats struct {
	TotalRows int `json:"total_rows"` // data rows, header excluded
	ValidRows int `json:"valid_rows"` // rows that passed the filter
	Products  int `json:"products"`   // distinct grouped products
}

// Catalog is the result of a successful build.
type Catalog struct {
	Products []Product `json:"products"`
	Stats    Stats     `json:"stats"`
}

// Build runs header resolution, row derivation and grouping over
// tokenized rows. The first row is the header.
//
// It returns ErrEmptyInput when rows is empty and a *ColumnMismatchError
// (matching ErrColumnMismatch) when required columns are missing. A
// catalog with zero products is a success. Input with no header row at
// all is reported as ErrEmptyInput rather than as an empty catalog, so
// a blank download never replaces the published one.
func Build(rows [][]string) (Catalog, error) {
	if len(rows) == 0 {
		return Catalog{}, ErrEmptyInput
	}

	idx, err := ResolveHeader(rows[0])
	if err != nil {
		return Catalog{}, err
	}

	data := rows[1:]
	drafts := make([]Draft, 0, len(data))
	for _, row := range data {
		if d, ok := DeriveRow(row, idx); ok {
			drafts = append(drafts, d)
		}
	}

	products := Group(drafts)

	return Catalog{
		Products: products,
		Stats: Stats{
			TotalRows: len(data),
			ValidRows: len(drafts),
			Products:  len(products),
		},
	}, nil
}

// Parse tokenizes text and builds the catalog.
func Parse(text string) (Catalog, error) {
	return Build(csv.Parse(text))
}

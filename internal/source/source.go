// Package source retrieves raw catalog exports and turns them into rows.
//
// Exports arrive three ways: the published spreadsheet URL (CSV over HTTP),
// a file upload, or a local file. CSV bytes go through the project's own
// tokenizer; .xlsx workbooks are read with excelize and yield the same
// [][]string rows, so the catalog build does not care where rows came from.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/catalog/internal/csv"
)

// Format is the encoding of an export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// zipMagic starts every .xlsx file (it is a zip archive).
var zipMagic = []byte("PK\x03\x04")

// DetectFormat picks a format from the file name, falling back to
// sniffing the first bytes. Anything unrecognized is treated as CSV.
func DetectFormat(name string, head []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".csv", ".txt":
		return FormatCSV
	}
	if bytes.HasPrefix(head, zipMagic) {
		return FormatXLSX
	}
	return FormatCSV
}

// ReadRows reads an export of any supported format from r. name is used
// only for format detection. limit caps the bytes read (0 = unlimited).
func ReadRows(name string, r io.Reader, limit int64) ([][]string, error) {
	data, err := io.ReadAll(csv.NewCountingReader(r, limit))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", displayName(name), err)
	}

	switch DetectFormat(name, data) {
	case FormatXLSX:
		return ReadXLSX(bytes.NewReader(data))
	default:
		return csv.ParseReader(bytes.NewReader(data))
	}
}

// ReadFile reads a local export.
func ReadFile(path string, limit int64) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	return ReadRows(filepath.Base(path), f, limit)
}

func displayName(name string) string {
	if name == "" {
		return "export"
	}
	return name
}

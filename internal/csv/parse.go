// Package csv tokenizes comma-separated catalog exports.
//
// The tokenizer is a single left-to-right scan with one byte of lookahead
// and a single quote-state flag. It never fails: any input string produces
// a (possibly empty, possibly ragged) sequence of rows. Type conversion is
// left to callers; every field is returned as the raw string.
//
// Quoting follows the usual spreadsheet export rules:
//
//   - A double quote outside a field's quoted section opens quote mode.
//   - Inside quote mode, "" is a literal quote and a lone " closes it.
//   - Commas and newlines inside quote mode are field content.
//   - Carriage returns outside quote mode are dropped, so CRLF files parse
//     the same as LF files.
//
// An unterminated quote runs to end of input.
package csv

import (
	"fmt"
	"io"
	"strings"
)

// Parse splits text into rows of fields.
// Returns nil for empty input.
func Parse(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		cur      strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inQuotes {
			switch {
			case c == '"' && i+1 < len(text) && text[i+1] == '"':
				cur.WriteByte('"')
				i++
			case c == '"':
				inQuotes = false
			default:
				cur.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"':
			inQuotes = true
		case ',':
			row = append(row, cur.String())
			cur.Reset()
		case '\n':
			row = append(row, cur.String())
			cur.Reset()
			rows = append(rows, row)
			row = nil
		case '\r':
			// dropped
		default:
			cur.WriteByte(c)
		}
	}

	// No trailing newline: flush whatever is pending.
	if cur.Len() > 0 || len(row) > 0 {
		row = append(row, cur.String())
		rows = append(rows, row)
	}

	return rows
}

// ParseReader reads r to EOF through WrapForStreaming and tokenizes the
// decoded text. A leading UTF-8 BOM is removed and invalid UTF-8 bytes are
// replaced with '?'.
func ParseReader(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(WrapForStreaming(r, 0))
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return Parse(string(data)), nil
}

// Format serializes rows back to text with commas and newlines.
// Fields containing a comma, quote, CR or LF are quoted with embedded
// quotes doubled, so Parse(Format(rows)) returns rows unchanged for any
// row that has at least one field.
func Format(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			if strings.ContainsAny(field, ",\"\r\n") {
				b.WriteByte('"')
				b.WriteString(strings.ReplaceAll(field, `"`, `""`))
				b.WriteByte('"')
			} else {
				b.WriteString(field)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

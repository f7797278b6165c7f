// Package table holds the uploaded listing sheet: an ordered, 0-indexed
// sequence of rows addressed by column name.
package table

import (
	"strings"
)

// Table is a parsed sheet. Rows are identified by their position; every row
// has exactly len(Headers) cells.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// missingMarkers are cell values treated as absent, mirroring what
// spreadsheet tooling writes for empty numeric cells.
var missingMarkers = map[string]bool{
	"nan":  true,
	"na":   true,
	"n/a":  true,
	"#n/a": true,
	"null": true,
	"none": true,
	"<na>": true,
}

// IsAbsent reports whether a raw cell value represents missing data.
func IsAbsent(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	return missingMarkers[strings.ToLower(v)]
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Raw returns the cell text exactly as loaded. Out of range rows and unknown
// columns yield "".
func (t *Table) Raw(row int, column string) string {
	col := t.ColumnIndex(column)
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][col]
}

// Value returns the trimmed cell text, or "" when the cell is absent.
func (t *Table) Value(row int, column string) string {
	v := t.Raw(row, column)
	if IsAbsent(v) {
		return ""
	}
	return strings.TrimSpace(v)
}

// WithColumn returns a copy of the table with the named column set to values.
// An existing column of that name is overwritten in place, otherwise the
// column is appended. Missing values are written as "".
func (t *Table) WithColumn(name string, values []string) *Table {
	headers := append([]string(nil), t.Headers...)
	col := t.ColumnIndex(name)
	if col < 0 {
		headers = append(headers, name)
		col = len(headers) - 1
	}

	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]string, len(headers))
		copy(row, r)
		if i < len(values) {
			row[col] = values[i]
		} else {
			row[col] = ""
		}
		rows[i] = row
	}
	return &Table{Headers: headers, Rows: rows}
}

package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

const (
	// MatchColumn is the column appended on export.
	MatchColumn = "MATCH"
	// ExportFileName is the suggested download name.
	ExportFileName = "output_with_match.csv"
)

// Verdicts supplies the operator's MATCH decision per row index.
type Verdicts interface {
	Get(row int) bool
}

// WriteCSV serializes the table as comma-delimited UTF-8 with a header row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WithMatches returns a copy of t with the MATCH column filled for every row
// index 0..Len()-1. Rows without a verdict are False.
func WithMatches(t *Table, v Verdicts) *Table {
	values := make([]string, t.Len())
	for i := range values {
		values[i] = formatBool(v != nil && v.Get(i))
	}
	return t.WithColumn(MatchColumn, values)
}

// Export writes the table plus the MATCH column as CSV.
func Export(w io.Writer, t *Table, v Verdicts) error {
	return WriteCSV(w, WithMatches(t, v))
}

// ExportBytes is Export into memory. The output depends only on the table and
// the verdicts, so repeated calls return identical bytes.
func ExportBytes(t *Table, v Verdicts) ([]byte, error) {
	var buf bytes.Buffer
	if err := Export(&buf, t, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

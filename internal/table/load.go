package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnparsable is returned when the upload cannot be read as a table.
	ErrUnparsable = errors.New("unparsable table")
	// ErrNoHeader is returned for input without a header row.
	ErrNoHeader = errors.New("missing header row")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadFile picks the reader by file extension: .xlsx goes through LoadXLSX,
// everything else is treated as delimited text.
func LoadFile(name string, r io.Reader) (*Table, error) {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return LoadXLSX(r)
	}
	return Load(r)
}

// Load parses a comma-delimited table, retrying with a semicolon delimiter
// when the comma parse fails.
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	t, commaErr := parse(data, ',')
	if commaErr == nil {
		return t, nil
	}

	t, semiErr := parse(data, ';')
	if semiErr == nil {
		return t, nil
	}

	return nil, fmt.Errorf("%w: comma: %v; semicolon: %v", ErrUnparsable, commaErr, semiErr)
}

func parse(data []byte, comma rune) (*Table, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	// Inch marks in titles (27" LED) are literal quotes, not field quoting.
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, err
	}
	t := &Table{Headers: uniqueHeaders(header)}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(rec))
		}
		t.Rows = append(t.Rows, pad(rec, len(header)))
	}
	// A semicolon file read with commas usually "succeeds" as one wide column.
	if comma == ',' && len(header) == 1 && strings.Contains(header[0], ";") && anyContains(t.Rows, ";") {
		return nil, fmt.Errorf("single column header %q looks semicolon-delimited", header[0])
	}
	return t, nil
}

func anyContains(rows [][]string, sub string) bool {
	for _, rec := range rows {
		if strings.Contains(rec[0], sub) {
			return true
		}
	}
	return false
}

// LoadXLSX reads the first worksheet of an Excel workbook. The first row is
// the header.
func LoadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnparsable)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	header := rows[0]
	t := &Table{Headers: uniqueHeaders(header)}
	for _, rec := range rows[1:] {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("%w: row has %d cells, header has %d", ErrUnparsable, len(rec), len(header))
		}
		if isBlank(rec) {
			continue
		}
		t.Rows = append(t.Rows, pad(rec, len(header)))
	}
	return t, nil
}

func pad(rec []string, n int) []string {
	if len(rec) == n {
		return rec
	}
	out := make([]string, n)
	copy(out, rec)
	return out
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// uniqueHeaders names blank headers "Unnamed: <i>" and suffixes repeated
// names with ".1", ".2", ... so every column is addressable.
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	suffix := make(map[string]int)
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for used[name] {
			suffix[h]++
			name = fmt.Sprintf("%s.%d", h, suffix[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

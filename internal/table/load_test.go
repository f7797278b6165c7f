package table

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoad_Comma(t *testing.T) {
	tbl, err := Load(strings.NewReader("ASIN,IMG,Price\nB001,http://x/a.jpg,9.99\nB002,,\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"ASIN", "IMG", "Price"}, tbl.Headers)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "B001", tbl.Value(0, "ASIN"))
	assert.Equal(t, "http://x/a.jpg", tbl.Value(0, "IMG"))
	assert.Equal(t, "", tbl.Value(1, "IMG"))
}

func TestLoad_FallsBackToSemicolon(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"single wide column", "ASIN;IMG\nB001;a.jpg\nB002;b.jpg\n"},
		{"commas inside values", "ASIN;Price;IMG\nB001;1,5;a.jpg\nB002;2,25,1;b.jpg\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Load(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, "ASIN", tbl.Headers[0])
			assert.Equal(t, 2, tbl.Len())
			assert.Equal(t, "B002", tbl.Value(1, "ASIN"))
		})
	}
}

func TestLoad_FailsWhenBothDelimitersFail(t *testing.T) {
	// The row is wider than the header whichever delimiter is used.
	_, err := Load(strings.NewReader("a,b\n1,2,3;4;5\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnparsable))
}

func TestLoad_BareQuoteInField(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"comma", "ASIN,Title,IMG\nB001,Monitor 27\" LED,a.jpg\n"},
		{"semicolon", "ASIN;Title;IMG\nB001;Monitor 27\" LED;a.jpg\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Load(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, []string{"ASIN", "Title", "IMG"}, tbl.Headers)
			assert.Equal(t, `Monitor 27" LED`, tbl.Value(0, "Title"))
			assert.Equal(t, "a.jpg", tbl.Value(0, "IMG"))
		})
	}
}

func TestLoad_SingleColumnWithSemicolonInHeader(t *testing.T) {
	tbl, err := Load(strings.NewReader("Notes; misc\nhello\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Notes; misc"}, tbl.Headers)
	assert.Equal(t, "hello", tbl.Value(0, "Notes; misc"))
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnparsable))
}

func TestLoad_StripsBOMAndPadsShortRows(t *testing.T) {
	tbl, err := Load(strings.NewReader("\ufeffASIN,IMG,Note\nB001\n"))
	require.NoError(t, err)

	assert.Equal(t, "ASIN", tbl.Headers[0])
	require.Len(t, tbl.Rows[0], 3)
	assert.Equal(t, "", tbl.Raw(0, "Note"))
}

func TestLoad_DuplicateAndBlankHeaders(t *testing.T) {
	tbl, err := Load(strings.NewReader("a,a,,a\n1,2,3,4\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "a.2"}, tbl.Headers)
	assert.Equal(t, "4", tbl.Value(0, "a.2"))
}

func TestValue_TreatsMissingMarkersAsAbsent(t *testing.T) {
	tbl, err := Load(strings.NewReader("ASIN,Note\nNaN,  hello \nN/A,null\n"))
	require.NoError(t, err)

	assert.Equal(t, "", tbl.Value(0, "ASIN"))
	assert.Equal(t, "hello", tbl.Value(0, "Note"))
	assert.Equal(t, "", tbl.Value(1, "Note"))
	assert.Equal(t, "N/A", tbl.Raw(1, "ASIN"))
	assert.Equal(t, "", tbl.Value(5, "ASIN"))
	assert.Equal(t, "", tbl.Value(0, "missing"))
}

func TestLoadFile_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"ASIN", "IMG"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"B001", "a.jpg"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"B002"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := LoadFile("listings.XLSX", buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"ASIN", "IMG"}, tbl.Headers)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "a.jpg", tbl.Value(0, "IMG"))
	assert.Equal(t, "", tbl.Value(1, "IMG"))
}

func TestLoadFile_CSVByDefault(t *testing.T) {
	tbl, err := LoadFile("listings.csv", strings.NewReader("ASIN\nB001\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
}

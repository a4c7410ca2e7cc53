package parser_test

import (
	"errors"
	"math"
	"testing"

	"github.com/KaramelBytes/edareport/internal/parser"
	"github.com/KaramelBytes/edareport/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCSV_InfersStorageKinds(t *testing.T) {
	content := "age,city,score,joined,active\n" +
		"25,NY,88.5,2024-08-10,true\n" +
		"30,LA,91.0,2024-08-12,false\n" +
		",NY,79.0,2024-08-15,true\n"

	tbl, err := parser.Parse("people.csv", []byte(content), parser.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, tbl.Validate())

	assert.Equal(t, "people.csv", tbl.Name)
	assert.Equal(t, 3, tbl.Rows)
	assert.Equal(t, []string{"age", "city", "score", "joined", "active"}, tbl.ColumnNames())

	kinds := map[string]table.Kind{}
	for _, c := range tbl.Columns {
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, table.KindInt, kinds["age"])
	assert.Equal(t, table.KindString, kinds["city"])
	assert.Equal(t, table.KindFloat, kinds["score"])
	assert.Equal(t, table.KindTime, kinds["joined"])
	assert.Equal(t, table.KindBool, kinds["active"])

	age, _ := tbl.Column("age")
	assert.Equal(t, []bool{false, false, true}, age.Null)
	assert.True(t, math.IsNaN(age.Values[2]))
}

func TestParseCSV_HeaderOnlyYieldsEmptyTable(t *testing.T) {
	tbl, err := parser.Parse("empty.csv", []byte("a,b,c\n"), parser.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Rows)
	assert.Equal(t, []string{"a", "b", "c"}, tbl.ColumnNames())
}

func TestParseCSV_RaggedRowIsParseError(t *testing.T) {
	_, err := parser.Parse("bad.csv", []byte("a,b\n1,2\n3\n"), parser.DefaultOptions())
	require.Error(t, err)

	var pe *parser.ParseError
	require.True(t, errors.As(err, &pe), "expected ParseError, got %T", err)
	assert.Equal(t, parser.FormatCSV, pe.Format)
	assert.Equal(t, 3, pe.Line)
}

func TestParseCSV_EmptyInputIsParseError(t *testing.T) {
	_, err := parser.Parse("none.csv", nil, parser.DefaultOptions())
	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "missing header")
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, err := parser.Parse("data.json", []byte("{}"), parser.DefaultOptions())
	var ue *parser.UnsupportedFormatError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ".json", ue.Ext)
	assert.Contains(t, err.Error(), ".xlsx")

	_, err = parser.DetectFormat("noext")
	require.ErrorAs(t, err, &ue)
}

func TestDetectFormat(t *testing.T) {
	for name, want := range map[string]parser.Format{
		"a.csv":  parser.FormatCSV,
		"A.CSV":  parser.FormatCSV,
		"b.tsv":  parser.FormatCSV,
		"c.xlsx": parser.FormatXLSX,
	} {
		got, err := parser.DetectFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestParseCSV_LocaleSeparatorsAndLimits(t *testing.T) {
	content := "Group;Amount;Note\nA;1.000,5;x\nB;2.000,25;y\nC;3,0;z\n"
	opt := parser.DefaultOptions()
	opt.Delimiter = ';'
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	opt.MaxRows = 2

	tbl, err := parser.Parse("metrics.csv", []byte(content), opt)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Rows)
	assert.Equal(t, 3, tbl.TotalRows)
	assert.True(t, tbl.Truncated())

	amount, ok := tbl.Column("Amount")
	require.True(t, ok)
	assert.Equal(t, table.KindFloat, amount.Kind)
	assert.Equal(t, []float64{1000.5, 2000.25}, amount.Values)

	opt.MaxColumns = 2
	_, err = parser.Parse("metrics.csv", []byte(content), opt)
	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParseCSV_DuplicateAndBlankHeaders(t *testing.T) {
	tbl, err := parser.Parse("dups.csv", []byte("a,a,,a.1,a\n1,2,3,4,5\n"), parser.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "a.1.1", "a.2"}, tbl.ColumnNames())
}

func TestParseXLSX_SheetSelection(t *testing.T) {
	content := writeWorkbook(t)

	tbl, err := parser.Parse("book.xlsx", content, parser.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"note"}, tbl.ColumnNames())

	opt := parser.DefaultOptions()
	opt.SheetName = "data"
	tbl, err = parser.Parse("book.xlsx", content, opt)
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "city", "score"}, tbl.ColumnNames())
	assert.Equal(t, 3, tbl.Rows)

	city, _ := tbl.Column("city")
	assert.Equal(t, table.KindString, city.Kind)
	score, _ := tbl.Column("score")
	assert.Equal(t, table.KindFloat, score.Kind)
	age, _ := tbl.Column("age")
	assert.Equal(t, table.KindInt, age.Kind)
	assert.True(t, age.Null[2], "blank xlsx cells are missing")

	opt = parser.DefaultOptions()
	opt.SheetIndex = 2
	byIndex, err := parser.Parse("book.xlsx", content, opt)
	require.NoError(t, err)
	assert.Equal(t, tbl.ColumnNames(), byIndex.ColumnNames())

	opt.SheetName = "missing"
	_, err = parser.Parse("book.xlsx", content, opt)
	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "available sheets")
}

func TestParseXLSX_GarbageIsParseError(t *testing.T) {
	_, err := parser.Parse("broken.xlsx", []byte("not a zip"), parser.DefaultOptions())
	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, parser.FormatXLSX, pe.Format)
}

func writeWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"note"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"cover sheet"}))

	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	rows := [][]interface{}{
		{"age", "city", "score"},
		{25, "NY", 88.5},
		{30, "LA", 91.0},
		{nil, "NY", 79.0},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Data", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/KaramelBytes/edareport/internal/table"
	"github.com/xuri/excelize/v2"
)

type xlsxParser struct{}

func (xlsxParser) Format() Format { return FormatXLSX }

func (xlsxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Parse reads one worksheet. If SheetName is empty the sheet at SheetIndex
// (1-based, default 1) is used.
func (xlsxParser) Parse(name string, content []byte, opt Options) (*table.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opt)
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Err: err}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &ParseError{Format: FormatXLSX, Err: fmt.Errorf("sheet %q has no header row", sheet)}
	}
	header := rows[0]
	ncol := len(header)
	if opt.MaxColumns > 0 && ncol > opt.MaxColumns {
		return nil, &ParseError{Format: FormatXLSX, Line: 1, Err: fmt.Errorf("%d columns exceed the limit of %d", ncol, opt.MaxColumns)}
	}

	var records [][]string
	total := 0
	for i, row := range rows[1:] {
		// excelize trims trailing empty cells, so short rows are padded. Cells
		// beyond the header are only an error when they hold data.
		for j := ncol; j < len(row); j++ {
			if strings.TrimSpace(row[j]) != "" {
				return nil, &ParseError{Format: FormatXLSX, Line: i + 2, Err: fmt.Errorf("row has %d cells, header has %d", len(row), ncol)}
			}
		}
		total++
		if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
			continue
		}
		rec := make([]string, ncol)
		copy(rec, row)
		records = append(records, rec)
	}
	return buildTable(name, header, records, total, opt), nil
}

func pickSheet(sheets []string, opt Options) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found; available sheets: %s", opt.SheetName, strings.Join(sheets, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", idx, len(sheets))
	}
	return sheets[idx-1], nil
}

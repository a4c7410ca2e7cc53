package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/edareport/internal/table"
)

type csvParser struct{}

func (csvParser) Format() Format { return FormatCSV }

func (csvParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

// Parse reads delimited text. Rows whose field count differs from the header are
// rejected rather than padded.
func (csvParser) Parse(name string, content []byte, opt Options) (*table.Table, error) {
	format := FormatCSV
	delim := opt.Delimiter
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		format = FormatTSV
		if delim == 0 {
			delim = '\t'
		}
	}
	if delim == 0 {
		delim = ','
	}
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = delim
	r.TrimLeadingSpace = true
	r.ReuseRecord = false

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Format: format, Err: errors.New("missing header row")}
		}
		return nil, csvError(format, err)
	}
	if opt.MaxColumns > 0 && len(header) > opt.MaxColumns {
		return nil, &ParseError{Format: format, Line: 1, Err: fmt.Errorf("%d columns exceed the limit of %d", len(header), opt.MaxColumns)}
	}

	var records [][]string
	total := 0
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, csvError(format, err)
		}
		total++
		if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
			continue
		}
		records = append(records, rec)
	}
	return buildTable(name, header, records, total, opt), nil
}

func csvError(format Format, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Format: format, Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Format: format, Err: err}
}

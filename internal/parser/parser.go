package parser

import (
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/edareport/internal/table"
)

// Format identifies a supported tabular input format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// Options controls ingestion behavior.
type Options struct {
	// Delimiter for delimited text. If 0, it is chosen from the extension.
	Delimiter rune
	// SheetName selects an XLSX sheet by name; SheetIndex (1-based) is used when empty.
	SheetName  string
	SheetIndex int
	// Numeric parsing locale. Zero values mean plain Go float syntax.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// MaxRows limits data rows kept; 0 means unlimited.
	MaxRows int
	// MaxColumns rejects wider inputs; 0 means unlimited.
	MaxColumns int
}

// DefaultOptions returns reasonable defaults for ingestion.
func DefaultOptions() Options {
	return Options{
		SheetIndex: 1,
		MaxRows:    1_000_000,
		MaxColumns: 500,
	}
}

// Parser turns file content into a Table.
type Parser interface {
	Format() Format
	CanParse(filename string) bool
	Parse(name string, content []byte, opt Options) (*table.Table, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// Lookup returns the parser responsible for filename.
func Lookup(filename string) (Parser, error) {
	for _, p := range registry {
		if p.CanParse(filename) {
			return p, nil
		}
	}
	return nil, &UnsupportedFormatError{Name: filepath.Base(filename), Ext: strings.ToLower(filepath.Ext(filename))}
}

// DetectFormat infers the input format from the filename extension.
func DetectFormat(filename string) (Format, error) {
	p, err := Lookup(filename)
	if err != nil {
		return "", err
	}
	return p.Format(), nil
}

// Parse selects a parser by filename and returns the parsed table.
func Parse(name string, content []byte, opt Options) (*table.Table, error) {
	p, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return p.Parse(filepath.Base(name), content, opt)
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
}

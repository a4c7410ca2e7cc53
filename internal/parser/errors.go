package parser

import (
	"fmt"
	"strings"
)

// supportedExtensions is listed in user-facing errors.
var supportedExtensions = []string{".csv", ".tsv", ".xlsx"}

// UnsupportedFormatError indicates the filename extension maps to no parser.
type UnsupportedFormatError struct {
	Name string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	ext := e.Ext
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("unsupported file format %s for %q: upload one of %s",
		ext, e.Name, strings.Join(supportedExtensions, ", "))
}

// ParseError indicates malformed tabular content. Line is 1-based when known.
type ParseError struct {
	Format Format
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s (line %d): %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

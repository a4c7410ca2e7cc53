package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/edareport/internal/table"
)

// buildTable transposes row records into typed columns. Records must already be
// header-width.
func buildTable(name string, header []string, records [][]string, total int, opt Options) *table.Table {
	names := uniqueHeader(header)
	t := &table.Table{Name: name, Rows: len(records), TotalRows: total, Columns: make([]*table.Column, len(names))}
	for j, colName := range names {
		text := make([]string, len(records))
		null := make([]bool, len(records))
		for i, rec := range records {
			v := ""
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			text[i] = v
			null[i] = table.IsMissingToken(v)
		}
		kind, values := inferKind(text, null, opt)
		t.Columns[j] = &table.Column{Name: colName, Kind: kind, Values: values, Text: text, Null: null}
	}
	return t
}

// uniqueHeader trims header names, names blank headers by position and suffixes
// duplicates with ".N" so every column stays addressable by name.
func uniqueHeader(header []string) []string {
	out := make([]string, len(header))
	used := map[string]bool{}
	next := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		base := h
		for used[h] {
			next[base]++
			h = fmt.Sprintf("%s.%d", base, next[base])
		}
		used[h] = true
		out[i] = h
	}
	return out
}

// inferKind decides a storage kind from the non-missing cells. Numeric kinds win
// only when every present cell parses; a column with no present cells is float,
// matching an all-NaN column.
func inferKind(text []string, null []bool, opt Options) (table.Kind, []float64) {
	values := make([]float64, len(text))
	allInt, allNum, allBool, allTime := true, true, true, true
	present := 0
	for i, v := range text {
		if null[i] {
			values[i] = math.NaN()
			continue
		}
		present++
		if allNum {
			x, isInt, ok := parseNumeric(v, opt)
			if !ok {
				allNum = false
			} else {
				values[i] = x
				if !isInt {
					allInt = false
				}
			}
		}
		if allBool {
			if _, ok := parseBool(v); !ok {
				allBool = false
			}
		}
		if allTime {
			if _, ok := parseTimeMaybe(v); !ok {
				allTime = false
			}
		}
		if !allNum && !allBool && !allTime {
			break
		}
	}
	switch {
	case present == 0:
		return table.KindFloat, values
	case allNum && allInt:
		return table.KindInt, values
	case allNum:
		return table.KindFloat, values
	case allBool:
		return table.KindBool, nil
	case allTime:
		return table.KindTime, nil
	default:
		return table.KindString, nil
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumeric parses s as a number. With no separators configured it accepts Go
// float syntax only; otherwise thousands separators are stripped and the decimal
// separator normalized to '.'. isInt reports an integral literal.
func parseNumeric(s string, opt Options) (x float64, isInt bool, ok bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec != 0 || thou != 0 {
		if dec == 0 {
			dec = '.'
		}
		if thou != 0 && thou != dec {
			raw = strings.ReplaceAll(raw, string(thou), "")
		}
		if dec != '.' {
			raw = strings.ReplaceAll(raw, string(dec), ".")
		}
	}
	if raw == "" {
		return 0, false, false
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return float64(i), true, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false, false
	}
	return f, false, true
}

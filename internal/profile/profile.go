// Package profile classifies table columns into semantic types. Its output is the
// only place semantic types are decided; later stages filter profiles instead of
// re-inspecting columns.
package profile

import (
	"math"
	"regexp"
	"strings"

	"github.com/KaramelBytes/edareport/internal/table"
)

// Type is the analytical role of a column.
type Type string

const (
	Numeric     Type = "numeric"
	Categorical Type = "categorical"
	Datetime    Type = "datetime"
	Text        Type = "text"
)

// Options tunes the categorical/text split for string columns.
type Options struct {
	// CategoryRatio is the fraction of rows a string column's distinct count may
	// reach while still counting as categorical.
	CategoryRatio float64
	// MinCategoryLimit keeps small tables categorical regardless of the ratio.
	MinCategoryLimit int
}

// DefaultOptions returns the classification thresholds used by the CLI.
func DefaultOptions() Options {
	return Options{CategoryRatio: 0.5, MinCategoryLimit: 20}
}

// ColumnProfile is the derived, read-only description of one column.
type ColumnProfile struct {
	Name     string
	Index    int
	Storage  table.Kind
	Type     Type
	Distinct int
	Missing  int
	Rows     int
	// Unit is a hint parsed from the header, e.g. "g/L" from "Concentration (g/L)".
	Unit string
}

// NonMissing returns the count of present cells.
func (p ColumnProfile) NonMissing() int { return p.Rows - p.Missing }

// Profile returns one profile per column in table order.
func Profile(t *table.Table, opt Options) []ColumnProfile {
	out := make([]ColumnProfile, len(t.Columns))
	for i, c := range t.Columns {
		distinct := distinctCount(c)
		_, unit := splitUnits(c.Name)
		out[i] = ColumnProfile{
			Name:     c.Name,
			Index:    i,
			Storage:  c.Kind,
			Type:     Classify(c.Kind, distinct, t.Rows, opt),
			Distinct: distinct,
			Missing:  c.MissingCount(),
			Rows:     t.Rows,
			Unit:     unit,
		}
	}
	return out
}

// Classify is a pure function of storage kind, distinct count and row count.
func Classify(kind table.Kind, distinct, rows int, opt Options) Type {
	switch kind {
	case table.KindInt, table.KindFloat:
		return Numeric
	case table.KindTime:
		return Datetime
	case table.KindBool:
		return Categorical
	}
	limit := int(math.Floor(opt.CategoryRatio * float64(rows)))
	if opt.MinCategoryLimit > limit {
		limit = opt.MinCategoryLimit
	}
	if distinct <= limit {
		return Categorical
	}
	return Text
}

// distinctCount counts distinct present values. Numeric columns compare parsed
// values so "1" and "1.0" collapse like they do in a float column.
func distinctCount(c *table.Column) int {
	if c.Kind.IsNumeric() {
		seen := make(map[float64]struct{})
		for i, v := range c.Values {
			if !c.Null[i] {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	}
	seen := make(map[string]struct{})
	for i, v := range c.Text {
		if !c.Null[i] {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// NumericProfiles returns the numeric profiles in table order.
func NumericProfiles(ps []ColumnProfile) []ColumnProfile { return filter(ps, Numeric) }

// CategoricalProfiles returns the categorical profiles in table order.
func CategoricalProfiles(ps []ColumnProfile) []ColumnProfile { return filter(ps, Categorical) }

// Names projects profiles to column names.
func Names(ps []ColumnProfile) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

// TotalMissing sums missing cells across all columns.
func TotalMissing(ps []ColumnProfile) int {
	n := 0
	for _, p := range ps {
		n += p.Missing
	}
	return n
}

func filter(ps []ColumnProfile, typ Type) []ColumnProfile {
	var out []ColumnProfile
	for _, p := range ps {
		if p.Type == typ {
			out = append(out, p)
		}
	}
	return out
}

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., Alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., Mass [mg/L]
	{regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|Brix|%|ppm|ppb)$`), 2},
}

func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}

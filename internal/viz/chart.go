// Package viz decides which charts apply to a profiled table. Every chart
// carries only the slice of data it draws so charts can be rendered
// independently.
package viz

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/KaramelBytes/edareport/internal/analysis"
)

// Kind identifies a chart variant.
type Kind string

const (
	KindMissingHeatmap Kind = "heatmap-missing"
	KindCorrHeatmap    Kind = "heatmap-correlation"
	KindBox            Kind = "box"
	KindHistogram      Kind = "histogram"
	KindCount          Kind = "count"
	KindPairGrid       Kind = "pair-grid"
)

// PerColumn reports whether the kind has one candidate per column.
func (k Kind) PerColumn() bool {
	return k == KindBox || k == KindHistogram || k == KindCount
}

// Series is the non-missing values of one numeric column.
type Series struct {
	Name   string
	Values []float64
}

// CategoryCount is one bar of a count plot.
type CategoryCount struct {
	Value string
	Count int
}

// Mask is the row-by-column missingness grid of the whole table.
type Mask struct {
	Columns []string
	Missing [][]bool // Missing[row][col]
}

// Grid is the numeric sub-table used by the pair grid. Missing cells are NaN.
type Grid struct {
	Columns []string
	Values  [][]float64 // Values[col][row]
}

// Chart is a renderable chart descriptor. Only the field matching Kind is set.
type Chart struct {
	Kind Kind
	// Column is the source column for per-column charts, empty otherwise.
	Column string
	// Index is the source column position, -1 for table-wide charts.
	Index int

	Series *Series
	Counts []CategoryCount
	Mask   *Mask
	Corr   *analysis.CorrMatrix
	Grid   *Grid
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// ID is stable for a given table and safe to use in file names and URLs.
func (c Chart) ID() string {
	if c.Index < 0 {
		return string(c.Kind)
	}
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(c.Column), "-"), "-")
	if slug == "" {
		return fmt.Sprintf("%s-%d", c.Kind, c.Index)
	}
	return fmt.Sprintf("%s-%d-%s", c.Kind, c.Index, slug)
}

// Title is the report section heading for the chart.
func (c Chart) Title() string {
	switch c.Kind {
	case KindMissingHeatmap:
		return "Missing Values Heatmap"
	case KindCorrHeatmap:
		return analysis.CorrelationSection
	case KindBox:
		return "Box Plot for " + c.Column
	case KindHistogram:
		return "Histogram for " + c.Column
	case KindCount:
		return "Count Plot for " + c.Column
	case KindPairGrid:
		return PairGridSection
	}
	return string(c.Kind)
}

// PairGridSection is the heading of the pair grid section.
const PairGridSection = "Pair Plot"

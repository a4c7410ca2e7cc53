package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/edareport/internal/analysis"
	"github.com/KaramelBytes/edareport/internal/profile"
	"github.com/KaramelBytes/edareport/internal/table"
)

// Order is the fixed order in which chart kinds appear in a selection.
var Order = []Kind{KindMissingHeatmap, KindBox, KindHistogram, KindCount, KindPairGrid, KindCorrHeatmap}

// Notice explains why a chart kind was not applicable.
type Notice struct {
	Kind    Kind
	Section string
	Message string
}

// Selection is the ordered set of charts chosen for a table.
type Selection struct {
	Charts  []Chart
	Notices []Notice
}

// Entry is either a chart or a notice, in report order.
type Entry struct {
	Chart  *Chart
	Notice *Notice
}

// Select picks the applicable charts. The result depends only on the table
// and its profiles.
func Select(t *table.Table, profiles []profile.ColumnProfile) Selection {
	var sel Selection
	numeric := profile.NumericProfiles(profiles)
	categorical := profile.CategoricalProfiles(profiles)

	if profile.TotalMissing(profiles) > 0 {
		sel.Charts = append(sel.Charts, Chart{Kind: KindMissingHeatmap, Index: -1, Mask: missingMask(t)})
	}

	if len(numeric) == 0 {
		sel.notice(KindBox, "Box Plot", "no numerical columns to plot")
		sel.notice(KindHistogram, "Histogram", "no numerical columns to plot")
	}
	for _, p := range numeric {
		sel.Charts = append(sel.Charts, Chart{Kind: KindBox, Column: p.Name, Index: p.Index, Series: seriesOf(t.Columns[p.Index])})
	}
	for _, p := range numeric {
		sel.Charts = append(sel.Charts, Chart{Kind: KindHistogram, Column: p.Name, Index: p.Index, Series: seriesOf(t.Columns[p.Index])})
	}

	if len(categorical) == 0 {
		sel.notice(KindCount, "Count Plot", "no categorical columns to plot")
	}
	for _, p := range categorical {
		sel.Charts = append(sel.Charts, Chart{Kind: KindCount, Column: p.Name, Index: p.Index, Counts: CountValues(t.Columns[p.Index])})
	}

	if len(numeric) >= 2 {
		sel.Charts = append(sel.Charts,
			Chart{Kind: KindPairGrid, Index: -1, Grid: numericGrid(t, numeric)},
			Chart{Kind: KindCorrHeatmap, Index: -1},
		)
	} else {
		sel.notice(KindPairGrid, PairGridSection, "Not enough numerical columns for a pair plot.")
		sel.notice(KindCorrHeatmap, analysis.CorrelationSection, "Not enough numerical columns for a correlation heatmap.")
	}
	return sel
}

func (s *Selection) notice(k Kind, section, msg string) {
	s.Notices = append(s.Notices, Notice{Kind: k, Section: section, Message: msg})
}

// WithCorrelation attaches the correlation matrix to the correlation heatmap.
// When the matrix is absent the chart is replaced by a notice carrying err.
func (s Selection) WithCorrelation(m *analysis.CorrMatrix, err error) Selection {
	out := Selection{Notices: append([]Notice(nil), s.Notices...)}
	for _, c := range s.Charts {
		if c.Kind != KindCorrHeatmap {
			out.Charts = append(out.Charts, c)
			continue
		}
		if m == nil {
			msg := "correlation matrix unavailable"
			if err != nil {
				msg = err.Error()
			}
			out.notice(KindCorrHeatmap, analysis.CorrelationSection, msg)
			continue
		}
		c.Corr = m
		out.Charts = append(out.Charts, c)
	}
	return out
}

// Entries interleaves charts and notices by Order, keeping chart order within
// a kind.
func (s Selection) Entries() []Entry {
	var out []Entry
	for _, k := range Order {
		for i := range s.Charts {
			if s.Charts[i].Kind == k {
				out = append(out, Entry{Chart: &s.Charts[i]})
			}
		}
		for i := range s.Notices {
			if s.Notices[i].Kind == k {
				out = append(out, Entry{Notice: &s.Notices[i]})
			}
		}
	}
	return out
}

// Candidates returns the charts of one kind, in table order.
func (s Selection) Candidates(k Kind) []Chart {
	var out []Chart
	for _, c := range s.Charts {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// Chart finds a chart by ID.
func (s Selection) Chart(id string) (Chart, bool) {
	for _, c := range s.Charts {
		if c.ID() == id {
			return c, true
		}
	}
	return Chart{}, false
}

// Choose picks a candidate by column name. An empty name is allowed only when
// there is exactly one candidate.
func Choose(candidates []Chart, column string) (Chart, error) {
	if len(candidates) == 0 {
		return Chart{}, fmt.Errorf("no chart candidates to choose from")
	}
	if column == "" {
		if len(candidates) == 1 {
			return candidates[0], nil
		}
		return Chart{}, &SelectionRequiredError{Kind: candidates[0].Kind, Options: columnsOf(candidates)}
	}
	for _, c := range candidates {
		if c.Column == column {
			return c, nil
		}
	}
	return Chart{}, fmt.Errorf("%s: column %q is not a candidate (choose one of %s)",
		candidates[0].Kind, column, strings.Join(columnsOf(candidates), ", "))
}

// Narrow keeps only the picked chart for every kind named in picks. Kinds
// without a pick keep all of their candidates.
func (s Selection) Narrow(picks map[Kind]string) (Selection, error) {
	chosen := make(map[Kind]string)
	for k, col := range picks {
		if col == "" {
			continue
		}
		if !k.PerColumn() {
			return Selection{}, fmt.Errorf("chart kind %s does not take a column", k)
		}
		c, err := Choose(s.Candidates(k), col)
		if err != nil {
			return Selection{}, err
		}
		chosen[k] = c.ID()
	}
	out := Selection{Notices: s.Notices}
	for _, c := range s.Charts {
		if id, ok := chosen[c.Kind]; ok && id != c.ID() {
			continue
		}
		out.Charts = append(out.Charts, c)
	}
	return out, nil
}

// CountValues counts present values, most frequent first. Ties keep the order
// in which values first appear.
func CountValues(c *table.Column) []CategoryCount {
	pos := make(map[string]int)
	var out []CategoryCount
	for i, v := range c.Text {
		if c.Null[i] {
			continue
		}
		if j, ok := pos[v]; ok {
			out[j].Count++
			continue
		}
		pos[v] = len(out)
		out = append(out, CategoryCount{Value: v, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func seriesOf(c *table.Column) *Series {
	return &Series{Name: c.Name, Values: c.NonMissing()}
}

func missingMask(t *table.Table) *Mask {
	m := &Mask{Columns: t.ColumnNames(), Missing: make([][]bool, t.Rows)}
	for r := 0; r < t.Rows; r++ {
		row := make([]bool, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = c.Null[r]
		}
		m.Missing[r] = row
	}
	return m
}

func numericGrid(t *table.Table, numeric []profile.ColumnProfile) *Grid {
	g := &Grid{Columns: profile.Names(numeric), Values: make([][]float64, len(numeric))}
	for i, p := range numeric {
		g.Values[i] = t.Columns[p.Index].Values
	}
	return g
}

func columnsOf(cs []Chart) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Column
	}
	return out
}

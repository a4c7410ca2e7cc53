package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/edareport/internal/profile"
	"github.com/KaramelBytes/edareport/internal/table"
	"gonum.org/v1/gonum/stat"
)

// CorrelationSection is the report section that depends on the matrix.
const CorrelationSection = "Correlation Heatmap"

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
	// Notes lists pairs whose coefficient was undefined and recorded as 0.
	Notes []string
}

// At returns the coefficient for two column names.
func (m *CorrMatrix) At(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, c := range m.Columns {
		if c == a {
			ia = i
		}
		if c == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return m.Values[ia][ib], true
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// TopPairs lists off-diagonal pairs ordered by |r|, largest first.
func (m *CorrMatrix) TopPairs(k int) []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].R) > math.Abs(pairs[j].R)
	})
	if k > 0 && len(pairs) > k {
		pairs = pairs[:k]
	}
	return pairs
}

// Correlate builds the Pearson matrix over numeric columns using pairwise-complete
// rows. With fewer than two numeric columns it returns an InsufficientDataError.
func Correlate(t *table.Table, profiles []profile.ColumnProfile) (*CorrMatrix, error) {
	numeric := profile.NumericProfiles(profiles)
	if len(numeric) < 2 {
		return nil, &InsufficientDataError{
			Section: CorrelationSection,
			Reason:  fmt.Sprintf("needs at least 2 numeric columns, found %d", len(numeric)),
		}
	}
	n := len(numeric)
	m := &CorrMatrix{Columns: profile.Names(numeric), Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for a := 0; a < n; a++ {
		ca := t.Columns[numeric[a].Index]
		for b := a + 1; b < n; b++ {
			cb := t.Columns[numeric[b].Index]
			r, ok := pearson(ca, cb)
			if !ok {
				m.Notes = append(m.Notes, fmt.Sprintf("%s ~ %s: undefined (constant or fewer than 2 shared rows), shown as 0", ca.Name, cb.Name))
				r = 0
			}
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m, nil
}

func pearson(x, y *table.Column) (float64, bool) {
	xs := make([]float64, 0, x.Len())
	ys := make([]float64, 0, y.Len())
	for i := range x.Values {
		if x.Null[i] || y.Null[i] {
			continue
		}
		xs = append(xs, x.Values[i])
		ys = append(ys, y.Values[i])
	}
	if len(xs) < 2 {
		return 0, false
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

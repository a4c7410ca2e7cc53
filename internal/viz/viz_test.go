package viz

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/edareport/internal/analysis"
	"github.com/KaramelBytes/edareport/internal/parser"
	"github.com/KaramelBytes/edareport/internal/profile"
	"github.com/KaramelBytes/edareport/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, content string) (*table.Table, []profile.ColumnProfile) {
	t.Helper()
	tbl, err := parser.Parse("data.csv", []byte(content), parser.DefaultOptions())
	require.NoError(t, err)
	return tbl, profile.Profile(tbl, profile.DefaultOptions())
}

func kinds(cs []Chart) []Kind {
	out := make([]Kind, len(cs))
	for i, c := range cs {
		out[i] = c.Kind
	}
	return out
}

func ids(s Selection) []string {
	out := make([]string, len(s.Charts))
	for i, c := range s.Charts {
		out[i] = c.ID()
	}
	return out
}

const people = "age,city,score\n25,NY,88.5\n30,LA,91.0\n,NY,79.0\n"

func TestSelect_PeopleOrder(t *testing.T) {
	tbl, ps := load(t, people)
	sel := Select(tbl, ps)

	assert.Equal(t, []Kind{
		KindMissingHeatmap,
		KindBox, KindBox,
		KindHistogram, KindHistogram,
		KindCount,
		KindPairGrid,
		KindCorrHeatmap,
	}, kinds(sel.Charts))
	assert.Empty(t, sel.Notices)

	box := sel.Candidates(KindBox)
	assert.Equal(t, "age", box[0].Column)
	assert.Equal(t, []float64{25, 30}, box[0].Series.Values)
	assert.Equal(t, "box-0-age", box[0].ID())

	count := sel.Candidates(KindCount)[0]
	assert.Equal(t, []CategoryCount{{"NY", 2}, {"LA", 1}}, count.Counts)
	assert.Equal(t, "Count Plot for city", count.Title())

	grid := sel.Candidates(KindPairGrid)[0].Grid
	assert.Equal(t, []string{"age", "score"}, grid.Columns)

	mask := sel.Charts[0].Mask
	require.Len(t, mask.Missing, 3)
	assert.Equal(t, []bool{true, false, false}, mask.Missing[2])
}

func TestSelect_ChartsReferenceTableColumns(t *testing.T) {
	tbl, ps := load(t, people)
	for _, c := range Select(tbl, ps).Charts {
		if c.Index < 0 {
			continue
		}
		col, ok := tbl.Column(c.Column)
		require.True(t, ok, c.ID())
		assert.Same(t, tbl.Columns[c.Index], col)
	}
}

func TestSelect_NoMissingNoHeatmap(t *testing.T) {
	tbl, ps := load(t, "a,b\n1,2\n3,4\n")
	sel := Select(tbl, ps)
	assert.Empty(t, sel.Candidates(KindMissingHeatmap))
	require.Len(t, sel.Notices, 1)
	assert.Equal(t, KindCount, sel.Notices[0].Kind)
}

func TestSelect_SingleNumericDegrades(t *testing.T) {
	tbl, ps := load(t, "age,city\n1,NY\n2,LA\n")
	sel := Select(tbl, ps)
	assert.Empty(t, sel.Candidates(KindPairGrid))
	assert.Empty(t, sel.Candidates(KindCorrHeatmap))

	var sections []string
	for _, n := range sel.Notices {
		sections = append(sections, n.Section)
	}
	assert.Equal(t, []string{PairGridSection, analysis.CorrelationSection}, sections)
	assert.Contains(t, sel.Notices[1].Message, "Not enough numerical columns")
}

func TestSelect_Deterministic(t *testing.T) {
	tbl, ps := load(t, people)
	a := Select(tbl, ps)
	b := Select(tbl, ps)
	assert.Equal(t, ids(a), ids(b))
	assert.Equal(t, a.Notices, b.Notices)
}

func TestWithCorrelation(t *testing.T) {
	tbl, ps := load(t, people)
	sel := Select(tbl, ps)
	m, err := analysis.Correlate(tbl, ps)
	require.NoError(t, err)

	attached := sel.WithCorrelation(m, nil)
	c := attached.Candidates(KindCorrHeatmap)
	require.Len(t, c, 1)
	assert.Same(t, m, c[0].Corr)
	assert.Nil(t, sel.Candidates(KindCorrHeatmap)[0].Corr, "original selection is untouched")

	dropped := sel.WithCorrelation(nil, errors.New("boom"))
	assert.Empty(t, dropped.Candidates(KindCorrHeatmap))
	require.Len(t, dropped.Notices, 1)
	assert.Equal(t, "boom", dropped.Notices[0].Message)
}

func TestEntries_FollowOrder(t *testing.T) {
	tbl, ps := load(t, "age,city\n1,NY\n,LA\n")
	entries := Select(tbl, ps).Entries()
	var got []Kind
	for _, e := range entries {
		if e.Chart != nil {
			got = append(got, e.Chart.Kind)
		} else {
			got = append(got, e.Notice.Kind)
		}
	}
	assert.Equal(t, []Kind{KindMissingHeatmap, KindBox, KindHistogram, KindCount, KindPairGrid, KindCorrHeatmap}, got)
}

func TestChoose(t *testing.T) {
	tbl, ps := load(t, people)
	box := Select(tbl, ps).Candidates(KindBox)

	_, err := Choose(box, "")
	var sre *SelectionRequiredError
	require.True(t, errors.As(err, &sre))
	assert.Equal(t, []string{"age", "score"}, sre.Options)

	c, err := Choose(box, "score")
	require.NoError(t, err)
	assert.Equal(t, "score", c.Column)

	_, err = Choose(box, "city")
	assert.Error(t, err)

	only, err := Choose(box[:1], "")
	require.NoError(t, err)
	assert.Equal(t, "age", only.Column)

	_, err = Choose(nil, "age")
	assert.Error(t, err)
}

func TestNarrow(t *testing.T) {
	tbl, ps := load(t, people)
	sel := Select(tbl, ps)

	n, err := sel.Narrow(map[Kind]string{KindBox: "score", KindHistogram: ""})
	require.NoError(t, err)
	box := n.Candidates(KindBox)
	require.Len(t, box, 1)
	assert.Equal(t, "score", box[0].Column)
	assert.Len(t, n.Candidates(KindHistogram), 2, "no pick keeps all candidates")

	_, err = sel.Narrow(map[Kind]string{KindCount: "age"})
	assert.Error(t, err)

	_, err = sel.Narrow(map[Kind]string{KindPairGrid: "age"})
	assert.Error(t, err)

	same, err := sel.Narrow(nil)
	require.NoError(t, err)
	assert.Equal(t, ids(sel), ids(same))
}

func TestCountValues_TiesKeepFirstSeen(t *testing.T) {
	col := &table.Column{
		Name: "c",
		Text: []string{"b", "a", "", "a", "b", "c"},
		Null: []bool{false, false, true, false, false, false},
	}
	assert.Equal(t, []CategoryCount{{"b", 2}, {"a", 2}, {"c", 1}}, CountValues(col))
}

func TestChartID(t *testing.T) {
	assert.Equal(t, "histogram-3-mass-mg-l", Chart{Kind: KindHistogram, Column: "Mass [mg/L]", Index: 3}.ID())
	assert.Equal(t, "count-1", Chart{Kind: KindCount, Column: "§§", Index: 1}.ID())
	assert.Equal(t, "pair-grid", Chart{Kind: KindPairGrid, Index: -1}.ID())
}

package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMissingToken(t *testing.T) {
	for _, s := range []string{"", "  ", "NA", "n/a", "NaN", "null", "None", "#N/A", "<NA>"} {
		assert.True(t, IsMissingToken(s), "%q should be missing", s)
	}
	for _, s := range []string{"0", "NY", "nana", "-"} {
		assert.False(t, IsMissingToken(s), "%q should not be missing", s)
	}
}

func TestColumnNonMissingAndHead(t *testing.T) {
	age := &Column{
		Name:   "age",
		Kind:   KindInt,
		Values: []float64{25, 30, math.NaN()},
		Text:   []string{"25", "30", ""},
		Null:   []bool{false, false, true},
	}
	city := &Column{
		Name: "city",
		Kind: KindString,
		Text: []string{"NY", "LA", "NY"},
		Null: []bool{false, false, false},
	}
	tbl := &Table{Name: "people.csv", Rows: 3, Columns: []*Column{age, city}}
	require.NoError(t, tbl.Validate())

	assert.Equal(t, []float64{25, 30}, age.NonMissing())
	assert.Nil(t, city.NonMissing())
	assert.Equal(t, 1, age.MissingCount())

	head := tbl.Head(5)
	require.Len(t, head, 3)
	assert.Equal(t, []string{"NaN", "NY"}, head[2])

	c, ok := tbl.Column("city")
	require.True(t, ok)
	assert.Same(t, city, c)
	assert.Equal(t, []string{"age", "city"}, tbl.ColumnNames())
}

func TestValidateRejectsRaggedColumns(t *testing.T) {
	tbl := &Table{Rows: 2, Columns: []*Column{{Name: "x", Text: []string{"1"}, Null: []bool{false}}}}
	assert.Error(t, tbl.Validate())
}

// Package analysis computes descriptive statistics for the numeric columns named
// by the schema profiler. Each column is summarized over its own non-missing
// values; nothing is imputed and rows are never dropped across columns.
package analysis

import (
	"context"
	"math"
	"sort"

	"github.com/KaramelBytes/edareport/internal/profile"
	"github.com/KaramelBytes/edareport/internal/table"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// OutlierThreshold is the robust |z| cut-off used for outlier counts.
const OutlierThreshold = 3.5

// minOutlierSample is the smallest sample for which MAD outliers are reported.
const minOutlierSample = 8

// NumericSummary is the describe()-style summary of one numeric column.
// Mean..Max are NaN when Count is 0; Std is NaN when Count < 2.
type NumericSummary struct {
	Column  string
	Count   int
	Missing int
	Mean    float64
	Std     float64
	Min     float64
	Q1      float64
	Median  float64
	Q3      float64
	Max     float64
	// Skewness and Kurtosis (excess) are nil when undefined for the sample.
	Skewness *float64
	Kurtosis *float64
	// Outliers counts values with robust |z| above OutlierThreshold; only
	// meaningful when OutliersChecked.
	Outliers        int
	OutliersChecked bool
}

// Result bundles everything the statistics stage produces for one table.
type Result struct {
	Summaries []NumericSummary
	Corr      *CorrMatrix
	// CorrErr is an *InsufficientDataError when no correlation matrix applies.
	CorrErr error
}

// Summary looks up the summary for a column.
func (r *Result) Summary(column string) (NumericSummary, bool) {
	for _, s := range r.Summaries {
		if s.Column == column {
			return s, true
		}
	}
	return NumericSummary{}, false
}

// Compute summarizes every numeric column and builds the correlation matrix.
func Compute(ctx context.Context, t *table.Table, profiles []profile.ColumnProfile) (*Result, error) {
	sums, err := Summarize(ctx, t, profiles)
	if err != nil {
		return nil, err
	}
	corr, corrErr := Correlate(t, profiles)
	return &Result{Summaries: sums, Corr: corr, CorrErr: corrErr}, nil
}

// Summarize returns one NumericSummary per numeric profile, in table order.
func Summarize(ctx context.Context, t *table.Table, profiles []profile.ColumnProfile) ([]NumericSummary, error) {
	numeric := profile.NumericProfiles(profiles)
	out := make([]NumericSummary, 0, len(numeric))
	for _, p := range numeric {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, summarizeColumn(t.Columns[p.Index]))
	}
	return out, nil
}

func summarizeColumn(c *table.Column) NumericSummary {
	vals := c.NonMissing()
	s := NumericSummary{
		Column:  c.Name,
		Count:   len(vals),
		Missing: c.Len() - len(vals),
		Mean:    math.NaN(),
		Std:     math.NaN(),
		Min:     math.NaN(),
		Q1:      math.NaN(),
		Median:  math.NaN(),
		Q3:      math.NaN(),
		Max:     math.NaN(),
	}
	if len(vals) == 0 {
		return s
	}
	s.Mean, _ = stats.Mean(vals)
	s.Min, _ = stats.Min(vals)
	s.Max, _ = stats.Max(vals)
	if len(vals) >= 2 {
		s.Std, _ = stats.StandardDeviationSample(vals)
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	s.Q1 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.5)
	s.Q3 = quantile(sorted, 0.75)

	// Skewness needs three points and kurtosis four; a constant column has
	// neither.
	if len(vals) >= 3 && s.Std > 0 {
		sk := stat.Skew(vals, nil)
		if !math.IsNaN(sk) && !math.IsInf(sk, 0) {
			s.Skewness = &sk
		}
	}
	if len(vals) >= 4 && s.Std > 0 {
		ku := stat.ExKurtosis(vals, nil)
		if !math.IsNaN(ku) && !math.IsInf(ku, 0) {
			s.Kurtosis = &ku
		}
	}

	if len(vals) >= minOutlierSample {
		s.OutliersChecked = true
		median, mad := medianMAD(sorted)
		if mad > 0 {
			for _, v := range vals {
				if math.Abs(0.6745*(v-median)/mad) > OutlierThreshold {
					s.Outliers++
				}
			}
		}
	}
	return s
}

// medianMAD computes median and MAD (median absolute deviation) of sorted values.
func medianMAD(sorted []float64) (median, mad float64) {
	if len(sorted) == 0 {
		return 0, 0
	}
	median = quantile(sorted, 0.5)
	dev := make([]float64, len(sorted))
	for i, v := range sorted {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between the order statistics around
// q*(n-1).
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

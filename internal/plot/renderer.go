// Package plot rasterizes chart descriptors to PNG with gonum/plot.
package plot

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/KaramelBytes/edareport/internal/viz"
	"github.com/montanaflynn/stats"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Backend turns one chart into PNG bytes.
type Backend interface {
	Render(ctx context.Context, c viz.Chart) ([]byte, error)
}

// Limits on how much of a chart is drawn.
const (
	maxCountBars    = 30
	maxPairColumns  = 6
	maxMaskBands    = 200
	maxAnnotatedDim = 10
	kdePoints       = 100
)

// Renderer is the gonum/plot Backend.
type Renderer struct {
	Width      vg.Length
	Height     vg.Length
	CorrHeight vg.Length
}

// NewRenderer returns a renderer whose images match the 400x150 and 400x300
// point boxes of the PDF layout.
func NewRenderer() *Renderer {
	return &Renderer{Width: 8 * vg.Inch, Height: 3 * vg.Inch, CorrHeight: 6 * vg.Inch}
}

var (
	barColor  = color.RGBA{R: 76, G: 114, B: 176, A: 255}
	kdeColor  = color.RGBA{R: 221, G: 132, B: 82, A: 255}
	maskColor = color.RGBA{R: 253, G: 231, B: 37, A: 255}
	fillColor = color.RGBA{R: 68, G: 1, B: 84, A: 255}
)

// Render draws c according to its kind.
func (r *Renderer) Render(ctx context.Context, c viz.Chart) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		p   *gplot.Plot
		err error
		h   = r.Height
	)
	switch c.Kind {
	case viz.KindBox:
		p, err = boxPlot(c)
	case viz.KindHistogram:
		p, err = histogram(c)
	case viz.KindCount:
		p, err = countPlot(c)
	case viz.KindMissingHeatmap:
		p, err = missingHeatmap(c)
	case viz.KindCorrHeatmap:
		p, err = corrHeatmap(c)
		h = r.CorrHeight
	case viz.KindPairGrid:
		return r.pairGrid(c)
	default:
		return nil, fmt.Errorf("plot: unsupported chart kind %q", c.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("plot %s: %w", c.ID(), err)
	}
	return encode(p, r.Width, h)
}

func encode(p *gplot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// placeholder is drawn for charts whose column has no values.
func placeholder(title string) *gplot.Plot {
	p := gplot.New()
	p.Title.Text = title + " (no data)"
	p.HideAxes()
	return p
}

func boxPlot(c viz.Chart) (*gplot.Plot, error) {
	if c.Series == nil || len(c.Series.Values) == 0 {
		return placeholder(c.Title()), nil
	}
	p := gplot.New()
	p.Title.Text = c.Title()
	p.X.Label.Text = c.Column
	b, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(c.Series.Values))
	if err != nil {
		return nil, err
	}
	b.Horizontal = true
	b.FillColor = barColor
	p.Add(b)
	p.NominalY("")
	return p, nil
}

func histogram(c viz.Chart) (*gplot.Plot, error) {
	if c.Series == nil || len(c.Series.Values) == 0 {
		return placeholder(c.Title()), nil
	}
	vals := c.Series.Values
	p := gplot.New()
	p.Title.Text = c.Title()
	p.X.Label.Text = c.Column
	p.Y.Label.Text = "Density"
	h, err := newHist(vals)
	if err != nil {
		return nil, err
	}
	h.Normalize(1)
	p.Add(h)

	if xys := kde(vals); xys != nil {
		l, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		l.Color = kdeColor
		l.Width = vg.Points(1.5)
		p.Add(l)
	}
	return p, nil
}

// histBins is Sturges' rule, never less than one bin.
func histBins(n int) int {
	if n < 2 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// newHist bins vals with Sturges' rule. A sample without spread becomes one
// unit-wide bin centred on its value.
func newHist(vals []float64) (*plotter.Histogram, error) {
	lo, _ := stats.Min(vals)
	hi, _ := stats.Max(vals)
	if lo == hi {
		return &plotter.Histogram{
			Bins:      []plotter.HistogramBin{{Min: lo - 0.5, Max: lo + 0.5, Weight: float64(len(vals))}},
			Width:     1,
			FillColor: barColor,
			LineStyle: plotter.DefaultLineStyle,
		}, nil
	}
	h, err := plotter.NewHist(plotter.Values(vals), histBins(len(vals)))
	if err != nil {
		return nil, err
	}
	h.FillColor = barColor
	return h, nil
}

// kde evaluates a Gaussian kernel density estimate with Scott's bandwidth. It
// returns nil when the sample has no spread.
func kde(vals []float64) plotter.XYs {
	if len(vals) < 2 {
		return nil
	}
	sd, err := stats.StandardDeviationSample(vals)
	if err != nil || sd == 0 || math.IsNaN(sd) {
		return nil
	}
	n := float64(len(vals))
	bw := sd * math.Pow(n, -0.2)
	lo, _ := stats.Min(vals)
	hi, _ := stats.Max(vals)
	lo -= 3 * bw
	hi += 3 * bw
	step := (hi - lo) / float64(kdePoints-1)
	norm := 1 / (n * bw * math.Sqrt(2*math.Pi))
	xys := make(plotter.XYs, kdePoints)
	for i := range xys {
		x := lo + float64(i)*step
		var sum float64
		for _, v := range vals {
			z := (x - v) / bw
			sum += math.Exp(-0.5 * z * z)
		}
		xys[i].X = x
		xys[i].Y = sum * norm
	}
	return xys
}

func countPlot(c viz.Chart) (*gplot.Plot, error) {
	if len(c.Counts) == 0 {
		return placeholder(c.Title()), nil
	}
	counts := c.Counts
	title := c.Title()
	if len(counts) > maxCountBars {
		counts = counts[:maxCountBars]
		title += fmt.Sprintf(" (top %d)", maxCountBars)
	}
	// NominalY puts the first label at the bottom; reverse so the most
	// frequent value is drawn on top.
	n := len(counts)
	vals := make(plotter.Values, n)
	labels := make([]string, n)
	for i, cc := range counts {
		vals[n-1-i] = float64(cc.Count)
		labels[n-1-i] = cc.Value
	}
	p := gplot.New()
	p.Title.Text = title
	p.X.Label.Text = "count"
	width := vg.Points(math.Max(4, 100/float64(n)))
	bars, err := plotter.NewBarChart(vals, width)
	if err != nil {
		return nil, err
	}
	bars.Horizontal = true
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(labels...)
	return p, nil
}

// matrixGrid adapts a dense matrix to plotter.GridXYZ. Row 0 of the data is
// drawn at the top.
type matrixGrid struct {
	z [][]float64 // z[row][col]
}

func (g matrixGrid) Dims() (c, r int) {
	if len(g.z) == 0 {
		return 0, 0
	}
	return len(g.z[0]), len(g.z)
}
func (g matrixGrid) Z(c, r int) float64 { return g.z[len(g.z)-1-r][c] }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

type fixedPalette []color.Color

func (p fixedPalette) Colors() []color.Color { return p }

func missingHeatmap(c viz.Chart) (*gplot.Plot, error) {
	if c.Mask == nil || len(c.Mask.Missing) == 0 || len(c.Mask.Columns) == 0 {
		return placeholder(c.Title()), nil
	}
	z := maskBands(c.Mask)
	hm := plotter.NewHeatMap(matrixGrid{z: z}, fixedPalette{fillColor, maskColor})
	hm.Min, hm.Max = 0, 1
	p := gplot.New()
	p.Title.Text = c.Title()
	p.Add(hm)
	p.NominalX(c.Mask.Columns...)
	p.Y.Label.Text = "rows"
	p.HideY()
	return p, nil
}

// maskBands folds rows into at most maxMaskBands bands; each cell holds the
// fraction of missing values in its band.
func maskBands(m *viz.Mask) [][]float64 {
	rows := len(m.Missing)
	bands := rows
	if bands > maxMaskBands {
		bands = maxMaskBands
	}
	cols := len(m.Columns)
	z := make([][]float64, bands)
	for b := range z {
		z[b] = make([]float64, cols)
		start := b * rows / bands
		end := (b + 1) * rows / bands
		for r := start; r < end; r++ {
			for j := 0; j < cols; j++ {
				if m.Missing[r][j] {
					z[b][j]++
				}
			}
		}
		for j := range z[b] {
			z[b][j] /= float64(end - start)
		}
	}
	return z
}

func corrHeatmap(c viz.Chart) (*gplot.Plot, error) {
	if c.Corr == nil || len(c.Corr.Columns) == 0 {
		return placeholder(c.Title()), nil
	}
	m := c.Corr
	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	hm := plotter.NewHeatMap(matrixGrid{z: m.Values}, cm.Palette(255))
	hm.Min, hm.Max = -1, 1

	p := gplot.New()
	p.Title.Text = c.Title()
	p.Add(hm)

	n := len(m.Columns)
	if n <= maxAnnotatedDim {
		labels := plotter.XYLabels{XYs: make(plotter.XYs, 0, n*n)}
		for r := 0; r < n; r++ {
			for col := 0; col < n; col++ {
				labels.XYs = append(labels.XYs, plotter.XY{X: float64(col), Y: float64(n - 1 - r)})
				labels.Labels = append(labels.Labels, strconv.FormatFloat(m.Values[r][col], 'f', 2, 64))
			}
		}
		l, err := plotter.NewLabels(labels)
		if err != nil {
			return nil, err
		}
		p.Add(l)
	}
	p.NominalX(m.Columns...)
	ylabels := make([]string, n)
	for i, name := range m.Columns {
		ylabels[n-1-i] = name
	}
	p.NominalY(ylabels...)
	return p, nil
}

func (r *Renderer) pairGrid(c viz.Chart) ([]byte, error) {
	if c.Grid == nil || len(c.Grid.Columns) < 2 {
		p := placeholder(c.Title())
		return encode(p, r.Width, r.CorrHeight)
	}
	g := c.Grid
	n := len(g.Columns)
	if n > maxPairColumns {
		n = maxPairColumns
	}
	plots := make([][]*gplot.Plot, n)
	for i := 0; i < n; i++ {
		plots[i] = make([]*gplot.Plot, n)
		for j := 0; j < n; j++ {
			p := gplot.New()
			if i == n-1 {
				p.X.Label.Text = g.Columns[j]
			}
			if j == 0 {
				p.Y.Label.Text = g.Columns[i]
			}
			if i == j {
				vals := present(g.Values[i])
				if len(vals) > 0 {
					h, err := newHist(vals)
					if err != nil {
						return nil, err
					}
					p.Add(h)
				}
			} else {
				xys := pairs(g.Values[j], g.Values[i])
				if len(xys) > 0 {
					s, err := plotter.NewScatter(xys)
					if err != nil {
						return nil, err
					}
					s.GlyphStyle.Radius = vg.Points(1.5)
					s.GlyphStyle.Color = barColor
					p.Add(s)
				}
			}
			plots[i][j] = p
		}
	}

	img := vgimg.New(r.Width, r.CorrHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: n, Cols: n,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(4), PadBottom: vg.Points(4),
		PadLeft: vg.Points(4), PadRight: vg.Points(4),
	}
	canvases := gplot.Align(plots, tiles, dc)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			plots[i][j].Draw(canvases[i][j])
		}
	}
	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func present(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func pairs(xs, ys []float64) plotter.XYs {
	var out plotter.XYs
	for k := range xs {
		if math.IsNaN(xs[k]) || math.IsNaN(ys[k]) {
			continue
		}
		out = append(out, plotter.XY{X: xs[k], Y: ys[k]})
	}
	return out
}

var _ palette.Palette = fixedPalette(nil)

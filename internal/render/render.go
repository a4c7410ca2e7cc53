// Package render lays a report document onto fixed-size pages. It places text
// lines and chart images at explicit coordinates and starts a new page when
// the next block would not fit.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/edareport/internal/report"
	"github.com/KaramelBytes/edareport/internal/viz"
)

const (
	// FileName is the download name of the generated document.
	FileName = "Enhanced_EDA_Report.pdf"
	// MediaType is the content type of the generated document.
	MediaType = "application/pdf"
)

// Font selects a face and size for a text line.
type Font struct {
	Family string
	Bold   bool
	Size   float64
}

// Writer is a page-oriented drawing surface. Coordinates are points from the
// top-left corner of the current page.
type Writer interface {
	PageSize() (w, h float64)
	AddPage()
	Text(x, y float64, font Font, s string)
	Image(id string, png []byte, x, y, w, h float64)
	Finish() ([]byte, error)
}

// ImageSource supplies rendered chart images by chart ID.
type ImageSource interface {
	Image(chartID string) ([]byte, bool)
}

// Images is a map-backed ImageSource.
type Images map[string][]byte

func (m Images) Image(id string) ([]byte, bool) {
	b, ok := m[id]
	return b, ok
}

// Layout holds page geometry and typography.
type Layout struct {
	Margin      float64
	TitleFont   Font
	HeadingFont Font
	BodyFont    Font
	// LineHeight is a multiple of the font size.
	LineHeight float64
	// ImageX is the left edge of chart images.
	ImageX       float64
	ImageWidth   float64
	ImageHeight  float64
	CorrHeight   float64
	SectionSpace float64
	// MaxLineRunes wraps longer text lines.
	MaxLineRunes int
}

// DefaultLayout matches a Letter page with Helvetica text and 400x150 point
// chart boxes.
func DefaultLayout() Layout {
	return Layout{
		Margin:       30,
		TitleFont:    Font{Family: "Helvetica", Bold: true, Size: 16},
		HeadingFont:  Font{Family: "Helvetica", Size: 12},
		BodyFont:     Font{Family: "Courier", Size: 9},
		LineHeight:   1.25,
		ImageX:       100,
		ImageWidth:   400,
		ImageHeight:  150,
		CorrHeight:   300,
		SectionSpace: 10,
		MaxLineRunes: 100,
	}
}

// MissingAssetError reports a chart section whose image was not rendered.
type MissingAssetError struct {
	Section string
	ChartID string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("missing chart image %q for section %q", e.ChartID, e.Section)
}

// Render draws doc onto w and returns the finished bytes. Chart images must be
// present in images; nothing is emitted otherwise.
func Render(doc *report.Document, images ImageSource, w Writer, opt Layout) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("render: document is required")
	}
	if images == nil {
		images = Images(nil)
	}
	// Check every asset before drawing so a failure leaves no partial output.
	for _, s := range doc.Sections {
		if cb, ok := s.Body.(report.ChartBody); ok {
			if _, found := images.Image(cb.ChartID); !found {
				return nil, &MissingAssetError{Section: s.Title, ChartID: cb.ChartID}
			}
		}
	}

	p := newPager(w, opt)
	p.line(opt.TitleFont, opt.ImageX, doc.Title)
	p.space()
	for _, s := range doc.Sections {
		if body, ok := s.Body.(report.ChartBody); ok {
			png, _ := images.Image(body.ChartID)
			h := opt.ImageHeight
			if body.Kind == viz.KindCorrHeatmap {
				h = opt.CorrHeight
			}
			// A chart heading moves to the next page together with its image.
			iw, ih := p.fit(opt.ImageWidth, h)
			p.ensure(p.headingHeight() + ih)
			p.heading(s.Title)
			p.image(body.ChartID, png, iw, ih)
			p.space()
			continue
		}
		p.heading(s.Title)
		switch body := s.Body.(type) {
		case report.PreviewBody:
			p.lines(tableLines(body.Header, body.Rows))
		case report.KeyValueBody:
			p.lines(tableLines(body.Header, body.Rows))
		case report.TextBody:
			p.lines(strings.Split(body.Text, "\n"))
		}
		p.space()
	}
	if len(doc.Notes) > 0 {
		p.heading("Notes")
		for _, n := range doc.Notes {
			p.lines([]string{"- " + n})
		}
	}
	return w.Finish()
}

// pager tracks the cursor on the current page.
type pager struct {
	w     Writer
	opt   Layout
	pageH float64
	y     float64
}

func newPager(w Writer, opt Layout) *pager {
	_, h := w.PageSize()
	p := &pager{w: w, opt: opt, pageH: h}
	p.newPage()
	return p
}

func (p *pager) newPage() {
	p.w.AddPage()
	p.y = p.opt.Margin
}

func (p *pager) usable() float64 { return p.pageH - 2*p.opt.Margin }

func (p *pager) remaining() float64 { return p.pageH - p.opt.Margin - p.y }

// ensure starts a new page unless h points fit below the cursor. A fresh page
// always accepts the block.
func (p *pager) ensure(h float64) {
	if h > p.remaining() && p.y > p.opt.Margin {
		p.newPage()
	}
}

func (p *pager) line(f Font, x float64, s string) {
	h := f.Size * p.opt.LineHeight
	p.ensure(h)
	p.y += f.Size
	p.w.Text(x, p.y, f, s)
	p.y += h - f.Size
}

func (p *pager) headingHeight() float64 { return p.opt.HeadingFont.Size * p.opt.LineHeight }

// fit scales an image box down so it fits on one page below its heading.
func (p *pager) fit(w, h float64) (float64, float64) {
	if limit := p.usable() - p.headingHeight(); h > limit && limit > 0 {
		w = w * limit / h
		h = limit
	}
	return w, h
}

func (p *pager) heading(s string) {
	// Keep a heading on the same page as at least one body line.
	need := p.headingHeight() + p.opt.BodyFont.Size*p.opt.LineHeight
	p.ensure(need)
	p.line(p.opt.HeadingFont, p.opt.Margin, s+":")
}

func (p *pager) lines(ls []string) {
	for _, l := range ls {
		for _, part := range wrap(l, p.opt.MaxLineRunes) {
			p.line(p.opt.BodyFont, p.opt.Margin, part)
		}
	}
}

func (p *pager) image(id string, png []byte, w, h float64) {
	if limit := p.usable(); h > limit {
		w = w * limit / h
		h = limit
	}
	p.ensure(h)
	p.w.Image(id, png, p.opt.ImageX, p.y, w, h)
	p.y += h
}

func (p *pager) space() {
	p.y += p.opt.SectionSpace
}

// tableLines formats rows as fixed-width text columns.
func tableLines(header []string, rows [][]string) []string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len([]rune(h))
	}
	for _, r := range rows {
		for i := range header {
			if i < len(r) && len([]rune(r[i])) > widths[i] {
				widths[i] = len([]rune(r[i]))
			}
		}
	}
	format := func(cells []string) string {
		var b strings.Builder
		for i := range header {
			if i > 0 {
				b.WriteString("  ")
			}
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			b.WriteString(v)
			b.WriteString(strings.Repeat(" ", widths[i]-len([]rune(v))))
		}
		return strings.TrimRight(b.String(), " ")
	}
	out := []string{format(header)}
	for _, r := range rows {
		out = append(out, format(r))
	}
	return out
}

func wrap(s string, n int) []string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return []string{s}
	}
	var out []string
	for len(r) > n {
		out = append(out, string(r[:n]))
		r = r[n:]
	}
	return append(out, string(r))
}

// Package pdf implements render.Writer on top of fpdf.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/KaramelBytes/edareport/internal/render"
	"github.com/go-pdf/fpdf"
)

// Writer draws onto US Letter pages measured in points.
type Writer struct {
	doc        *fpdf.Fpdf
	tr         func(string) string
	registered map[string]bool
}

// New returns an empty Letter-sized document.
func New(title string) *Writer {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetAutoPageBreak(false, 0)
	doc.SetTitle(title, true)
	doc.SetCreator("edareport", true)
	return &Writer{
		doc:        doc,
		tr:         doc.UnicodeTranslatorFromDescriptor(""),
		registered: make(map[string]bool),
	}
}

// Factory returns a render.Writer per call, for callers that render many
// documents.
func Factory(title string) func() render.Writer {
	return func() render.Writer { return New(title) }
}

func (w *Writer) PageSize() (float64, float64) {
	return w.doc.GetPageSize()
}

func (w *Writer) AddPage() { w.doc.AddPage() }

func (w *Writer) Text(x, y float64, font render.Font, s string) {
	style := ""
	if font.Bold {
		style = "B"
	}
	w.doc.SetFont(font.Family, style, font.Size)
	w.doc.Text(x, y, w.tr(s))
}

func (w *Writer) Image(id string, png []byte, x, y, width, height float64) {
	opt := fpdf.ImageOptions{ImageType: "PNG"}
	if !w.registered[id] {
		w.doc.RegisterImageOptionsReader(id, opt, bytes.NewReader(png))
		w.registered[id] = true
	}
	w.doc.ImageOptions(id, x, y, width, height, false, opt, 0, "")
}

// Finish serializes the document. Any drawing error recorded by fpdf is
// returned here.
func (w *Writer) Finish() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var _ render.Writer = (*Writer)(nil)

package render

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/KaramelBytes/edareport/internal/report"
	"github.com/KaramelBytes/edareport/internal/viz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type op struct {
	page int
	kind string
	text string
	x, y float64
	h    float64
}

// fakeWriter records drawing operations on a Letter-sized page.
type fakeWriter struct {
	w, h  float64
	pages int
	ops   []op
}

func newFake() *fakeWriter { return &fakeWriter{w: 612, h: 792} }

func (f *fakeWriter) PageSize() (float64, float64) { return f.w, f.h }
func (f *fakeWriter) AddPage()                      { f.pages++ }
func (f *fakeWriter) Text(x, y float64, font Font, s string) {
	f.ops = append(f.ops, op{page: f.pages, kind: "text", text: s, x: x, y: y, h: font.Size})
}
func (f *fakeWriter) Image(id string, png []byte, x, y, w, h float64) {
	f.ops = append(f.ops, op{page: f.pages, kind: "image", text: id, x: x, y: y, h: h})
}
func (f *fakeWriter) Finish() ([]byte, error) { return []byte(fmt.Sprintf("%d pages", f.pages)), nil }

func longDoc() (*report.Document, Images) {
	doc := &report.Document{Title: report.DefaultTitle}
	images := Images{}
	rows := make([][]string, 60)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("row%d", i), "x"}
	}
	doc.Sections = append(doc.Sections, report.Section{Title: report.SectionPreview, Body: report.PreviewBody{Header: []string{"a", "b"}, Rows: rows}})
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("box-%d-c", i)
		images[id] = []byte("png")
		doc.Sections = append(doc.Sections, report.Section{Title: fmt.Sprintf("Box Plot for c%d", i), Body: report.ChartBody{ChartID: id, Kind: viz.KindBox}})
	}
	images["heatmap-correlation"] = []byte("png")
	doc.Sections = append(doc.Sections, report.Section{Title: "Correlation Heatmap", Body: report.ChartBody{ChartID: "heatmap-correlation", Kind: viz.KindCorrHeatmap}})
	return doc, images
}

func TestRender_PaginatesWithoutOverflow(t *testing.T) {
	doc, images := longDoc()
	w := newFake()
	opt := DefaultLayout()
	out, err := Render(doc, images, w, opt)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, w.pages, 2)
	assert.Equal(t, fmt.Sprintf("%d pages", w.pages), string(out))

	for _, o := range w.ops {
		top := o.y
		bottom := o.y
		if o.kind == "image" {
			bottom = o.y + o.h
		} else {
			top = o.y - o.h
		}
		assert.GreaterOrEqual(t, top, opt.Margin-1e-9, "%s on page %d", o.text, o.page)
		assert.LessOrEqual(t, bottom, w.h-opt.Margin+1e-9, "%s on page %d", o.text, o.page)
	}
}

func TestRender_EachSectionOnce(t *testing.T) {
	doc, images := longDoc()
	w := newFake()
	_, err := Render(doc, images, w, DefaultLayout())
	require.NoError(t, err)

	seen := map[string]int{}
	for _, o := range w.ops {
		if o.kind == "text" && strings.HasSuffix(o.text, ":") {
			seen[strings.TrimSuffix(o.text, ":")]++
		}
	}
	for _, s := range doc.Sections {
		assert.Equal(t, 1, seen[s.Title], s.Title)
	}

	var imgs []string
	for _, o := range w.ops {
		if o.kind == "image" {
			imgs = append(imgs, o.text)
			if o.text == "heatmap-correlation" {
				assert.Equal(t, 300.0, o.h)
			} else {
				assert.Equal(t, 150.0, o.h)
			}
		}
	}
	assert.Equal(t, doc.ChartIDs(), imgs)
}

func TestRender_ChartHeadingStaysWithImage(t *testing.T) {
	// Vary the preview length so the cursor lands at every offset near the
	// foot of the first page.
	for n := 1; n <= 70; n++ {
		rows := make([][]string, n)
		for i := range rows {
			rows[i] = []string{fmt.Sprintf("row%d", i)}
		}
		doc := &report.Document{Title: "t", Sections: []report.Section{
			{Title: report.SectionPreview, Body: report.PreviewBody{Header: []string{"a"}, Rows: rows}},
			{Title: "Box Plot for a", Body: report.ChartBody{ChartID: "box-0-a", Kind: viz.KindBox}},
		}}
		w := newFake()
		_, err := Render(doc, Images{"box-0-a": []byte("png")}, w, DefaultLayout())
		require.NoError(t, err)

		headingPage, imagePage := -1, -2
		for _, o := range w.ops {
			switch {
			case o.kind == "text" && o.text == "Box Plot for a:":
				headingPage = o.page
			case o.kind == "image":
				imagePage = o.page
			}
		}
		assert.Equal(t, headingPage, imagePage, "preview rows=%d", n)
	}
}

func TestRender_TallImageIsScaled(t *testing.T) {
	doc := &report.Document{Title: "t", Sections: []report.Section{
		{Title: "big", Body: report.ChartBody{ChartID: "big", Kind: viz.KindBox}},
	}}
	opt := DefaultLayout()
	opt.ImageHeight = 5000
	w := newFake()
	_, err := Render(doc, Images{"big": []byte("png")}, w, opt)
	require.NoError(t, err)
	var found bool
	for _, o := range w.ops {
		if o.kind == "image" {
			found = true
			assert.LessOrEqual(t, o.y+o.h, w.h-opt.Margin+1e-9)
		}
	}
	assert.True(t, found, "oversized image is drawn, not dropped")
}

func TestRender_MissingAsset(t *testing.T) {
	doc, images := longDoc()
	delete(images, "box-2-c")
	w := newFake()
	out, err := Render(doc, images, w, DefaultLayout())
	assert.Nil(t, out)

	var mae *MissingAssetError
	require.True(t, errors.As(err, &mae))
	assert.Equal(t, "box-2-c", mae.ChartID)
	assert.Equal(t, "Box Plot for c2", mae.Section)
	assert.Zero(t, w.pages, "nothing is drawn")
}

func TestRender_TextOnly(t *testing.T) {
	doc := &report.Document{Title: "t", Sections: []report.Section{
		{Title: "Correlation Heatmap", Body: report.TextBody{Text: "Not enough numerical columns for a correlation heatmap."}},
	}}
	w := newFake()
	_, err := Render(doc, nil, w, DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, 1, w.pages)
}

func TestTableLines(t *testing.T) {
	lines := tableLines([]string{"", "age"}, [][]string{{"count", "2"}, {"mean", "27.5"}})
	assert.Equal(t, []string{
		"       age",
		"count  2",
		"mean   27.5",
	}, lines)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "g"}, wrap("abcdefg", 3))
	assert.Equal(t, []string{"ab"}, wrap("ab", 3))
}

package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteText prints the document as boxed terminal tables.
func WriteText(w io.Writer, doc *Document) error {
	if _, err := fmt.Fprintf(w, "%s\n%s: %d rows x %d columns\n", doc.Title, displayName(doc.Dataset.Name), doc.Dataset.Rows, doc.Dataset.Columns); err != nil {
		return err
	}
	for _, s := range doc.Sections {
		if _, err := fmt.Fprintf(w, "\n== %s ==\n", s.Title); err != nil {
			return err
		}
		switch body := s.Body.(type) {
		case PreviewBody:
			renderTable(w, body.Header, body.Rows)
		case KeyValueBody:
			renderTable(w, body.Header, body.Rows)
		case ChartBody:
			_, _ = fmt.Fprintf(w, "[chart %s]\n", body.ChartID)
		case TextBody:
			_, _ = fmt.Fprintln(w, body.Text)
		}
	}
	for _, n := range doc.Notes {
		_, _ = fmt.Fprintf(w, "⚠ %s\n", n)
	}
	return nil
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		t.AppendRow(row)
	}
	t.Render()
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}

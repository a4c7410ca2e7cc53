package report

import (
	"fmt"
	"strings"
)

// ImageURL maps a chart ID to the image reference used in Markdown output.
type ImageURL func(chartID string) string

// Markdown renders the document for terminals, files and the HTML view. When
// imageURL is nil charts link to "<id>.png".
func Markdown(doc *Document, imageURL ImageURL) string {
	if imageURL == nil {
		imageURL = func(id string) string { return id + ".png" }
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", doc.Title))
	b.WriteString("[DATASET SUMMARY]\n")
	if doc.Dataset.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", doc.Dataset.Name))
	}
	if doc.Dataset.TotalRows > doc.Dataset.Rows {
		b.WriteString(fmt.Sprintf("Rows: ~%d (processed %d)\n", doc.Dataset.TotalRows, doc.Dataset.Rows))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", doc.Dataset.Rows))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n", doc.Dataset.Columns))

	for _, s := range doc.Sections {
		b.WriteString(fmt.Sprintf("\n## %s\n\n", s.Title))
		switch body := s.Body.(type) {
		case PreviewBody:
			writeTable(&b, body.Header, body.Rows)
		case KeyValueBody:
			writeTable(&b, body.Header, body.Rows)
		case ChartBody:
			b.WriteString(fmt.Sprintf("![%s](%s)\n", safeVal(s.Title), imageURL(body.ChartID)))
		case TextBody:
			b.WriteString(body.Text)
			b.WriteString("\n")
		}
	}
	if len(doc.Notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range doc.Notes {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// truncateCell shortens cells longer than 80 characters, counting runes.
func truncateCell(val string) string {
	r := []rune(val)
	if len(r) <= 80 {
		return val
	}
	return string(r[:77]) + "..."
}

func writeTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| ")
	for i, h := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeName(h))
	}
	b.WriteString(" |\n| ")
	for i := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			b.WriteString(safeVal(truncateCell(val)))
		}
		b.WriteString(" |\n")
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return " "
	}
	return safeVal(s)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

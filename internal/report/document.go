// Package report assembles profiles, statistics and chart selections into one
// ordered, read-only document. It computes nothing itself.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/KaramelBytes/edareport/internal/analysis"
	"github.com/KaramelBytes/edareport/internal/profile"
	"github.com/KaramelBytes/edareport/internal/table"
	"github.com/KaramelBytes/edareport/internal/viz"
)

// DefaultTitle heads every generated report unless overridden.
const DefaultTitle = "Enhanced Data Discovery Report"

// Section titles that are always present.
const (
	SectionPreview    = "Data Preview"
	SectionTypes      = "Data Types and Unique Counts"
	SectionStatistics = "Basic Statistics"
	SectionMissing    = "Missing Values"
)

// Document is the finished report.
type Document struct {
	Title    string    `json:"title"`
	Dataset  Dataset   `json:"dataset"`
	Sections []Section `json:"sections"`
	// Notes collects non-fatal remarks such as truncated input or undefined
	// correlation pairs.
	Notes []string `json:"notes,omitempty"`
}

// Dataset describes the analysed table.
type Dataset struct {
	Name      string `json:"name"`
	Rows      int    `json:"rows"`
	TotalRows int    `json:"total_rows"`
	Columns   int    `json:"columns"`
}

// Section is one titled block of the report.
type Section struct {
	Title string
	Body  Body
}

// Body is one of PreviewBody, KeyValueBody, ChartBody or TextBody.
type Body interface {
	body()
}

// PreviewBody is the first rows of the table.
type PreviewBody struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// KeyValueBody is a small statistics table.
type KeyValueBody struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// ChartBody references a chart by its ID.
type ChartBody struct {
	ChartID string   `json:"chart_id"`
	Kind    viz.Kind `json:"kind"`
}

// TextBody is free text, used for "not applicable" notices.
type TextBody struct {
	Text string `json:"text"`
}

// MarshalJSON tags the body with its variant name.
func (s Section) MarshalJSON() ([]byte, error) {
	var typ string
	switch s.Body.(type) {
	case PreviewBody:
		typ = "preview"
	case KeyValueBody:
		typ = "key_value"
	case ChartBody:
		typ = "chart"
	case TextBody:
		typ = "text"
	}
	return json.Marshal(struct {
		Title string `json:"title"`
		Type  string `json:"type"`
		Body  Body   `json:"body"`
	}{s.Title, typ, s.Body})
}

func (PreviewBody) body()  {}
func (KeyValueBody) body() {}
func (ChartBody) body()    {}
func (TextBody) body()     {}

// Options controls presentation details of the built document.
type Options struct {
	Title       string
	PreviewRows int
}

// DefaultOptions mirrors the CLI defaults.
func DefaultOptions() Options {
	return Options{Title: DefaultTitle, PreviewRows: 5}
}

// Input is everything upstream stages produced for one run.
type Input struct {
	Table     *table.Table
	Profiles  []profile.ColumnProfile
	Stats     *analysis.Result
	Selection *viz.Selection
	Options   Options
}

// Build orders the upstream results into a Document. It fails only when an
// upstream result is missing.
func Build(in Input) (*Document, error) {
	switch {
	case in.Table == nil:
		return nil, errors.New("report: table is required")
	case in.Profiles == nil && len(in.Table.Columns) > 0:
		return nil, errors.New("report: profiles are required")
	case in.Stats == nil:
		return nil, errors.New("report: statistics are required")
	case in.Selection == nil:
		return nil, errors.New("report: chart selection is required")
	}
	opt := in.Options
	if opt.Title == "" {
		opt.Title = DefaultTitle
	}
	if opt.PreviewRows <= 0 {
		opt.PreviewRows = DefaultOptions().PreviewRows
	}

	t := in.Table
	doc := &Document{
		Title: opt.Title,
		Dataset: Dataset{
			Name:      t.Name,
			Rows:      t.Rows,
			TotalRows: t.TotalRows,
			Columns:   len(t.Columns),
		},
	}
	if t.Truncated() {
		doc.Notes = append(doc.Notes, fmt.Sprintf("input truncated to the first %d of %d rows", t.Rows, t.TotalRows))
	}

	doc.add(SectionPreview, PreviewBody{Header: t.ColumnNames(), Rows: t.Head(opt.PreviewRows)})
	doc.add(SectionTypes, typesBody(in.Profiles))
	doc.add(SectionStatistics, statisticsBody(in.Stats.Summaries))
	doc.add(SectionMissing, missingBody(in.Profiles))

	for _, e := range in.Selection.Entries() {
		if e.Chart != nil {
			doc.add(e.Chart.Title(), ChartBody{ChartID: e.Chart.ID(), Kind: e.Chart.Kind})
			if e.Chart.Corr != nil {
				doc.Notes = append(doc.Notes, e.Chart.Corr.Notes...)
			}
			continue
		}
		doc.add(e.Notice.Section, TextBody{Text: e.Notice.Message})
	}
	return doc, nil
}

func (d *Document) add(title string, b Body) {
	d.Sections = append(d.Sections, Section{Title: title, Body: b})
}

// Section returns the first section with the given title.
func (d *Document) Section(title string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Title == title {
			return s, true
		}
	}
	return Section{}, false
}

// ChartIDs lists the chart references in section order.
func (d *Document) ChartIDs() []string {
	var out []string
	for _, s := range d.Sections {
		if cb, ok := s.Body.(ChartBody); ok {
			out = append(out, cb.ChartID)
		}
	}
	return out
}

func typesBody(ps []profile.ColumnProfile) Body {
	kv := KeyValueBody{Header: []string{"Column", "Data Type", "Unique Values", "Role"}}
	for _, p := range ps {
		role := string(p.Type)
		if p.Unit != "" {
			role += " [" + p.Unit + "]"
		}
		kv.Rows = append(kv.Rows, []string{p.Name, p.Storage.String(), strconv.Itoa(p.Distinct), role})
	}
	return kv
}

func statisticsBody(sums []analysis.NumericSummary) Body {
	if len(sums) == 0 {
		return TextBody{Text: "No numerical columns to summarize."}
	}
	header := []string{""}
	for _, s := range sums {
		header = append(header, s.Column)
	}
	rows := [][]string{
		statRow("count", sums, func(s analysis.NumericSummary) string { return strconv.Itoa(s.Count) }),
		statRow("mean", sums, func(s analysis.NumericSummary) string { return FormatFloat(s.Mean) }),
		statRow("std", sums, func(s analysis.NumericSummary) string { return FormatFloat(s.Std) }),
		statRow("min", sums, func(s analysis.NumericSummary) string { return FormatFloat(s.Min) }),
		statRow("25%", sums, func(s analysis.NumericSummary) string { return FormatFloat(s.Q1) }),
		statRow("50%", sums, func(s analysis.NumericSummary) string { return FormatFloat(s.Median) }),
		statRow("75%", sums, func(s analysis.NumericSummary) string { return FormatFloat(s.Q3) }),
		statRow("max", sums, func(s analysis.NumericSummary) string { return FormatFloat(s.Max) }),
		statRow("skew", sums, func(s analysis.NumericSummary) string { return formatPtr(s.Skewness) }),
		statRow("kurtosis", sums, func(s analysis.NumericSummary) string { return formatPtr(s.Kurtosis) }),
		statRow("outliers", sums, func(s analysis.NumericSummary) string {
			if !s.OutliersChecked {
				return "n/a"
			}
			return strconv.Itoa(s.Outliers)
		}),
	}
	return KeyValueBody{Header: header, Rows: rows}
}

func statRow(label string, sums []analysis.NumericSummary, f func(analysis.NumericSummary) string) []string {
	row := []string{label}
	for _, s := range sums {
		row = append(row, f(s))
	}
	return row
}

func missingBody(ps []profile.ColumnProfile) Body {
	kv := KeyValueBody{Header: []string{"Column", "Missing"}}
	for _, p := range ps {
		if p.Missing > 0 {
			kv.Rows = append(kv.Rows, []string{p.Name, strconv.Itoa(p.Missing)})
		}
	}
	if len(kv.Rows) == 0 {
		return TextBody{Text: "No missing values."}
	}
	return kv
}

// FormatFloat prints a statistic with six significant digits; NaN prints as
// "n/a".
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func formatPtr(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return FormatFloat(*v)
}

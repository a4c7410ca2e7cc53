// Package pipeline runs one analysis end to end: ingest, profile, statistics
// and chart selection, then the report document. PDF rendering is a separate
// step so a rendering failure never loses the analysis.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KaramelBytes/edareport/internal/analysis"
	"github.com/KaramelBytes/edareport/internal/config"
	"github.com/KaramelBytes/edareport/internal/logging"
	"github.com/KaramelBytes/edareport/internal/parser"
	"github.com/KaramelBytes/edareport/internal/plot"
	"github.com/KaramelBytes/edareport/internal/profile"
	"github.com/KaramelBytes/edareport/internal/render"
	"github.com/KaramelBytes/edareport/internal/report"
	"github.com/KaramelBytes/edareport/internal/table"
	"github.com/KaramelBytes/edareport/internal/viz"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options gathers the per-stage settings.
type Options struct {
	Parse   parser.Options
	Profile profile.Options
	Report  report.Options
	// Picks narrows per-column charts to one column per kind.
	Picks         map[viz.Kind]string
	RenderWorkers int
	Layout        render.Layout
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Parse:         parser.DefaultOptions(),
		Profile:       profile.DefaultOptions(),
		Report:        report.DefaultOptions(),
		RenderWorkers: 4,
		Layout:        render.DefaultLayout(),
	}
}

// FromConfig derives stage settings from the loaded configuration.
func FromConfig(c *config.Global) Options {
	opt := DefaultOptions()
	if c == nil {
		return opt
	}
	opt.Parse.MaxRows = c.MaxRows
	opt.Parse.MaxColumns = c.MaxColumns
	opt.Profile.CategoryRatio = c.CategoryRatio
	opt.Profile.MinCategoryLimit = c.MinCategoryLimit
	opt.Report.PreviewRows = c.PreviewRows
	opt.RenderWorkers = c.RenderWorkers
	return opt
}

// Input is one uploaded file.
type Input struct {
	Name    string
	Content []byte
	Options Options
}

// AnalysisRun is the immutable result of Run.
type AnalysisRun struct {
	ID        string
	Name      string
	Table     *table.Table
	Profiles  []profile.ColumnProfile
	Stats     *analysis.Result
	Selection viz.Selection
	Document  *report.Document
	CreatedAt time.Time

	opt Options
}

// Run analyses one file. Ingestion errors are returned before any other stage
// runs.
func Run(ctx context.Context, in Input) (*AnalysisRun, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	t, err := parser.Parse(in.Name, in.Content, in.Options.Parse)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", in.Name, err)
	}
	logger.Debug("table ingested", "file", t.Name, "rows", t.Rows, "columns", len(t.Columns))

	profiles := profile.Profile(t, in.Options.Profile)

	var (
		stats *analysis.Result
		sel   viz.Selection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = analysis.Compute(gctx, t, profiles)
		return err
	})
	g.Go(func() error {
		sel = viz.Select(t, profiles)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyse %s: %w", t.Name, err)
	}

	sel, err = sel.Narrow(in.Options.Picks)
	if err != nil {
		return nil, err
	}
	sel = sel.WithCorrelation(stats.Corr, stats.CorrErr)
	var ide *analysis.InsufficientDataError
	if errors.As(stats.CorrErr, &ide) {
		logger.Debug("section not applicable", "section", ide.Section, "reason", ide.Reason)
	}

	doc, err := report.Build(report.Input{
		Table:     t,
		Profiles:  profiles,
		Stats:     stats,
		Selection: &sel,
		Options:   in.Options.Report,
	})
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	run := &AnalysisRun{
		ID:        uuid.NewString(),
		Name:      t.Name,
		Table:     t,
		Profiles:  profiles,
		Stats:     stats,
		Selection: sel,
		Document:  doc,
		CreatedAt: time.Now().UTC(),
		opt:       in.Options,
	}
	logger.Info("analysis complete",
		"run", run.ID,
		"file", run.Name,
		"sections", len(doc.Sections),
		"charts", len(sel.Charts),
		"elapsed", time.Since(start))
	return run, nil
}

// RenderCharts rasterizes every selected chart into a fresh cache.
func (r *AnalysisRun) RenderCharts(ctx context.Context, backend plot.Backend) (*plot.Cache, error) {
	cache := plot.NewCache()
	if err := cache.RenderAll(ctx, backend, r.Selection.Charts, r.opt.RenderWorkers); err != nil {
		return nil, err
	}
	return cache, nil
}

// RenderPDF renders the charts and lays the document out with a writer from
// newWriter.
func (r *AnalysisRun) RenderPDF(ctx context.Context, backend plot.Backend, newWriter func() render.Writer) ([]byte, error) {
	cache, err := r.RenderCharts(ctx, backend)
	if err != nil {
		return nil, err
	}
	layout := r.opt.Layout
	if layout.BodyFont.Size == 0 {
		layout = render.DefaultLayout()
	}
	out, err := render.Render(r.Document, cache, newWriter(), layout)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("pdf rendered", "run", r.ID, "bytes", len(out))
	return out, nil
}

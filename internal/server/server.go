// Package server serves the interactive report: upload a file, browse the
// analysis as HTML and download it as PDF.
package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/KaramelBytes/edareport/internal/logging"
	"github.com/KaramelBytes/edareport/internal/pdf"
	"github.com/KaramelBytes/edareport/internal/pipeline"
	"github.com/KaramelBytes/edareport/internal/plot"
	"github.com/KaramelBytes/edareport/internal/render"
	"github.com/KaramelBytes/edareport/internal/report"
	"github.com/KaramelBytes/edareport/internal/viz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	mdparser "github.com/gomarkdown/markdown/parser"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxUpload caps the accepted upload size.
const DefaultMaxUpload = 64 << 20

// Config holds server dependencies and limits.
type Config struct {
	Options   pipeline.Options
	Backend   plot.Backend
	NewWriter func() render.Writer
	Logger    *slog.Logger
	MaxRuns   int
	MaxUpload int64
}

// Server is the HTTP front end.
type Server struct {
	router *chi.Mux
	store  *Store
	cfg    Config
	logger *slog.Logger
}

// New wires routes and middleware.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	if cfg.Backend == nil {
		cfg.Backend = plot.NewRenderer()
	}
	if cfg.NewWriter == nil {
		cfg.NewWriter = pdf.Factory(report.DefaultTitle)
	}
	s := &Server{
		router: chi.NewRouter(),
		store:  NewStore(cfg.MaxRuns),
		cfg:    cfg,
		logger: cfg.Logger,
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/", s.handleIndex)
	s.router.Post("/runs", s.handleUpload)
	s.router.Get("/runs/{id}", s.handleRun)
	s.router.Get("/runs/{id}/charts/{chart}.png", s.handleChart)
	s.router.Get("/runs/{id}/report.pdf", s.handlePDF)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Store exposes the run store.
func (s *Server) Store() *Store { return s.store }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>Enhanced Automated Data Discovery</h1>
<p>Upload a CSV, TSV or Excel file to start exploring your data.</p>
<form method="post" action="/runs" enctype="multipart/form-data">
<p><input type="file" name="file" accept=".csv,.tsv,.xlsx" required></p>
<p>Box plot column <input name="box"> Histogram column <input name="hist"> Count plot column <input name="count"></p>
<p><button type="submit">Submit</button></p>
</form>
</body></html>
`))

var runTmpl = template.Must(template.New("run").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>body{font-family:sans-serif;max-width:960px;margin:auto}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:2px 6px}img{max-width:100%}</style>
</head><body>
<p><a href="/runs/{{.ID}}/report.pdf">Download Enhanced EDA Report as PDF</a> | <a href="/">New upload</a></p>
{{.Body}}
</body></html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexTmpl.Execute(w, map[string]string{"Title": report.DefaultTitle})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	if err := r.ParseMultipartForm(s.cfg.MaxUpload); err != nil {
		http.Error(w, fmt.Sprintf("read upload: %v", err), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("read upload: %v", err), http.StatusBadRequest)
		return
	}

	opt := s.cfg.Options
	opt.Picks = map[viz.Kind]string{
		viz.KindBox:       r.FormValue("box"),
		viz.KindHistogram: r.FormValue("hist"),
		viz.KindCount:     r.FormValue("count"),
	}
	ctx := logging.WithLogger(r.Context(), s.logger)
	run, err := pipeline.Run(ctx, pipeline.Input{Name: header.Filename, Content: content, Options: opt})
	if err != nil {
		// Run only fails on bad input.
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.store.Add(run)
	http.Redirect(w, r, "/runs/"+run.ID, http.StatusSeeOther)
}

// chartUnavailable replaces chart sections whose image could not be rendered.
const chartUnavailable = "Chart unavailable."

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	e, ok := s.store.get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	return e, true
}

// renderCharts fills the run's chart cache. Charts rendered before a failure
// stay cached.
func (s *Server) renderCharts(r *http.Request, e *entry) error {
	ctx := logging.WithLogger(r.Context(), s.logger)
	err := e.charts.RenderAll(ctx, s.cfg.Backend, e.run.Selection.Charts, s.cfg.Options.RenderWorkers)
	if err != nil {
		s.logger.Error("chart rendering failed", "run", e.run.ID, "error", err)
	}
	return err
}

// withAvailableCharts returns a copy of doc whose chart sections without an
// image become text notices.
func withAvailableCharts(doc *report.Document, images render.ImageSource) *report.Document {
	out := *doc
	out.Sections = make([]report.Section, len(doc.Sections))
	for i, sec := range doc.Sections {
		if cb, ok := sec.Body.(report.ChartBody); ok {
			if _, found := images.Image(cb.ChartID); !found {
				sec.Body = report.TextBody{Text: chartUnavailable}
			}
		}
		out.Sections[i] = sec
	}
	return &out
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	// The HTML view survives chart failures; only the PDF needs every image.
	_ = s.renderCharts(r, e)
	doc := withAvailableCharts(e.run.Document, e.charts)
	md := report.Markdown(doc, func(id string) string {
		png, _ := e.charts.Image(id)
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	})
	p := mdparser.NewWithExtensions(mdparser.CommonExtensions)
	// Cell text is user data: raw HTML in it is dropped, never passed through.
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	body := markdown.ToHTML([]byte(md), p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = runTmpl.Execute(w, map[string]any{
		"Title": e.run.Document.Title,
		"ID":    e.run.ID,
		"Body":  template.HTML(body),
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	err := s.renderCharts(r, e)
	png, found := e.charts.Image(chi.URLParam(r, "chart"))
	switch {
	case found:
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := s.renderCharts(r, e); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	layout := s.cfg.Options.Layout
	if layout.BodyFont.Size == 0 {
		layout = render.DefaultLayout()
	}
	out, err := render.Render(e.run.Document, e.charts, s.cfg.NewWriter(), layout)
	if err != nil {
		s.logger.Error("pdf rendering failed", "run", e.run.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", render.MediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.FileName))
	_, _ = w.Write(out)
}

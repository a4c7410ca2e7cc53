package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/edareport/internal/pdf"
	"github.com/KaramelBytes/edareport/internal/pipeline"
	"github.com/KaramelBytes/edareport/internal/plot"
	"github.com/KaramelBytes/edareport/internal/render"
	"github.com/KaramelBytes/edareport/internal/report"
	"github.com/KaramelBytes/edareport/internal/utils"
)

const (
	formatPDF      = "pdf"
	formatMarkdown = "md"
	formatText     = "text"
	formatJSON     = "json"
)

// resolveFormat normalizes --format, falling back to the output extension and
// then to PDF.
func resolveFormat(format, output string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".md", ".markdown":
			f = formatMarkdown
		case ".txt":
			f = formatText
		case ".json":
			f = formatJSON
		default:
			f = formatPDF
		}
	}
	switch f {
	case formatPDF:
	case formatMarkdown, "markdown":
		f = formatMarkdown
	case formatText, "txt":
		f = formatText
	case formatJSON:
	default:
		return "", fmt.Errorf("unsupported --format: %s (use pdf|md|text|json)", format)
	}
	return f, nil
}

func extensionFor(format string) string {
	switch format {
	case formatMarkdown:
		return ".md"
	case formatText:
		return ".txt"
	case formatJSON:
		return ".json"
	}
	return ".pdf"
}

// produce renders run in format. For Markdown written to outPath the chart
// images go to a sibling "<name>_charts" directory and are linked relatively.
func produce(ctx context.Context, run *pipeline.AnalysisRun, format, outPath string) ([]byte, error) {
	switch format {
	case formatPDF:
		return run.RenderPDF(ctx, plot.NewRenderer(), pdf.Factory(run.Document.Title))
	case formatText:
		var buf bytes.Buffer
		if err := report.WriteText(&buf, run.Document); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case formatJSON:
		return utils.PrettyJSON(run.Document)
	}

	if outPath == "" {
		return []byte(report.Markdown(run.Document, nil)), nil
	}
	charts, err := run.RenderCharts(ctx, plot.NewRenderer())
	if err != nil {
		return nil, err
	}
	stem := strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath))
	dirName := stem + "_charts"
	if err := writeCharts(filepath.Join(filepath.Dir(outPath), dirName), run.Document.ChartIDs(), charts); err != nil {
		return nil, err
	}
	md := report.Markdown(run.Document, func(id string) string {
		return dirName + "/" + id + ".png"
	})
	return []byte(md), nil
}

func writeCharts(dir string, ids []string, images render.ImageSource) error {
	if len(ids) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, id := range ids {
		png, ok := images.Image(id)
		if !ok {
			return &render.MissingAssetError{ChartID: id}
		}
		if err := utils.SafeWriteFile(filepath.Join(dir, id+".png"), png); err != nil {
			return fmt.Errorf("write chart %s: %w", id, err)
		}
	}
	return nil
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

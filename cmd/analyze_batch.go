package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/edareport/internal/pipeline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	abOutDir string
	abFormat string
	abJobs   int
	abQuiet  bool
	abIngest ingestFlags
)

// batchResult is the outcome of one file in a batch.
type batchResult struct {
	input   string
	output  string
	rows    int
	columns int
	err     error
}

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX files, one report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		format, err := resolveFormat(abFormat, "")
		if err != nil {
			return err
		}
		opt, err := abIngest.options()
		if err != nil {
			return err
		}
		outDir := abOutDir
		if outDir == "" {
			outDir = currentConfig().OutputDir
		}
		outputs := outputNames(files, outDir, extensionFor(format))

		ctx := commandContext(cmd)
		jobs := abJobs
		if jobs <= 0 {
			jobs = opt.RenderWorkers
		}
		results := make([]batchResult, len(files))
		var g errgroup.Group
		g.SetLimit(max(jobs, 1))
		for i, path := range files {
			g.Go(func() error {
				res := batchResult{input: path, output: outputs[i]}
				defer func() { results[i] = res }()

				content, err := os.ReadFile(path)
				if err != nil {
					res.err = fmt.Errorf("read input: %w", err)
					return nil
				}
				run, err := pipeline.Run(ctx, pipeline.Input{Name: filepath.Base(path), Content: content, Options: opt})
				if err != nil {
					res.err = err
					return nil
				}
				res.rows, res.columns = run.Table.Rows, len(run.Table.Columns)
				data, err := produce(ctx, run, format, res.output)
				if err == nil {
					err = writeOutput(res.output, data)
				}
				res.err = err
				return nil
			})
		}
		_ = g.Wait()

		failed := 0
		for _, r := range results {
			if r.err != nil {
				failed++
			}
		}
		if !abQuiet {
			printBatchSummary(cmd, results)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(files))
		}
		if !abQuiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d %s reports to %s\n", len(files), format, outDir)
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist and drops
// duplicates. The result is sorted.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// outputNames assigns each input a report path in outDir. Inputs sharing a
// base name get "__2", "__3" suffixes, as do names already present on disk.
func outputNames(files []string, outDir, ext string) []string {
	out := make([]string, len(files))
	taken := map[string]struct{}{}
	for i, path := range files {
		base := filepath.Base(path)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		cand := filepath.Join(outDir, stem+ext)
		for n := 2; ; n++ {
			_, used := taken[cand]
			_, statErr := os.Stat(cand)
			if !used && os.IsNotExist(statErr) {
				break
			}
			cand = filepath.Join(outDir, fmt.Sprintf("%s__%d%s", stem, n, ext))
		}
		taken[cand] = struct{}{}
		out[i] = cand
	}
	return out
}

func printBatchSummary(cmd *cobra.Command, results []batchResult) {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"File", "Rows", "Columns", "Result"})
	for _, r := range results {
		if r.err != nil {
			tw.AppendRow(table.Row{filepath.Base(r.input), "", "", "✗ " + r.err.Error()})
			continue
		}
		tw.AppendRow(table.Row{filepath.Base(r.input), r.rows, r.columns, r.output})
	}
	tw.Render()
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for the reports (default from config output_dir)")
	analyzeBatchCmd.Flags().StringVar(&abFormat, "format", formatPDF, "report format: pdf|md|text|json")
	analyzeBatchCmd.Flags().IntVar(&abJobs, "jobs", 0, "files analyzed in parallel (0 = config render_workers)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress the summary table")
	abIngest.bind(analyzeBatchCmd)
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/edareport/internal/pipeline"
	"github.com/KaramelBytes/edareport/internal/render"
	"github.com/spf13/cobra"
)

var (
	anaOutputPath string
	anaFormat     string
	anaBox        string
	anaHist       string
	anaCount      string
	anaIngest     ingestFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV/XLSX file and write an EDA report",
	Long: `Analyze a CSV/TSV/XLSX file and write an EDA report.

PDF reports go to --output, or to Enhanced_EDA_Report.pdf in the configured
output directory. Markdown, text and JSON reports are printed to stdout unless
--output is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		format, err := resolveFormat(anaFormat, anaOutputPath)
		if err != nil {
			return err
		}
		opt, err := anaIngest.options()
		if err != nil {
			return err
		}
		opt.Picks = chartPicks(anaBox, anaHist, anaCount)

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		ctx := commandContext(cmd)
		run, err := pipeline.Run(ctx, pipeline.Input{Name: filepath.Base(path), Content: content, Options: opt})
		if err != nil {
			return err
		}

		out := anaOutputPath
		if out == "" && format == formatPDF {
			out = filepath.Join(currentConfig().OutputDir, render.FileName)
		}
		data, err := produce(ctx, run, format, out)
		if err != nil {
			return err
		}
		if out == "" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := writeOutput(out, data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s report to %s\n", format, out)
		if run.Table.Truncated() {
			fmt.Fprintf(cmd.OutOrStdout(), "⚠ Only the first %d of %d rows were analyzed\n", run.Table.Rows, run.Table.TotalRows)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "output file path")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "", "report format: pdf|md|text|json (default from --output extension, else pdf)")
	analyzeCmd.Flags().StringVar(&anaBox, "box", "", "only draw the box plot for this column")
	analyzeCmd.Flags().StringVar(&anaHist, "hist", "", "only draw the histogram for this column")
	analyzeCmd.Flags().StringVar(&anaCount, "count", "", "only draw the count plot for this column")
	anaIngest.bind(analyzeCmd)
}

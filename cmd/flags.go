package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/edareport/internal/pipeline"
	"github.com/KaramelBytes/edareport/internal/viz"
	"github.com/spf13/cobra"
)

// ingestFlags are the parsing flags shared by analyze and analyze-batch.
type ingestFlags struct {
	delimiter   string
	decimal     string
	thousands   string
	sheetName   string
	sheetIndex  int
	maxRows     int
	previewRows int
}

func (f *ingestFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default from extension)")
	fl.StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	fl.StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	fl.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fl.IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fl.IntVar(&f.maxRows, "max-rows", 0, "maximum rows to process (0 = use config)")
	fl.IntVar(&f.previewRows, "preview-rows", 0, "rows shown in the data preview (0 = use config)")
}

// options starts from the loaded config and applies any flags that were set.
func (f *ingestFlags) options() (pipeline.Options, error) {
	opt := pipeline.FromConfig(currentConfig())
	if f.maxRows > 0 {
		opt.Parse.MaxRows = f.maxRows
	}
	if f.previewRows > 0 {
		opt.Report.PreviewRows = f.previewRows
	}
	opt.Parse.SheetName = f.sheetName
	if f.sheetIndex > 0 {
		opt.Parse.SheetIndex = f.sheetIndex
	}
	switch f.delimiter {
	case "":
	case ",":
		opt.Parse.Delimiter = ','
	case "\t", "tab":
		opt.Parse.Delimiter = '\t'
	case ";":
		opt.Parse.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.Parse.DecimalSeparator = ','
	case ".", "dot":
		opt.Parse.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.Parse.ThousandsSeparator = ','
	case ".":
		opt.Parse.ThousandsSeparator = '.'
	case "space", " ":
		opt.Parse.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	if opt.Parse.DecimalSeparator != 0 && opt.Parse.DecimalSeparator == opt.Parse.ThousandsSeparator {
		return opt, fmt.Errorf("--decimal and --thousands must differ")
	}
	return opt, nil
}

// chartPicks maps the --box/--hist/--count flags onto selector picks.
func chartPicks(box, hist, count string) map[viz.Kind]string {
	picks := map[viz.Kind]string{}
	if box != "" {
		picks[viz.KindBox] = box
	}
	if hist != "" {
		picks[viz.KindHistogram] = hist
	}
	if count != "" {
		picks[viz.KindCount] = count
	}
	return picks
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	insDelimiter  string
	insParseDates []string
	insMaxBars    int
	insMaxLines   int
	insJSON       bool
	insQuiet      bool
)

// inspection is the per-file result printed by inspect --json.
type inspection struct {
	File           string                  `json:"file"`
	Rows           int                     `json:"rows"`
	Classification analysis.Classification `json:"classification"`
	Charts         []analysis.ChartSpec    `json:"charts"`
	Error          string                  `json:"error,omitempty"`
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
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
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func inspectFile(path string, opt analysis.LoadOptions, maxBars, maxLines int) inspection {
	res := inspection{File: path}
	ds, err := analysis.LoadFile(path, opt)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Rows = ds.Rows()
	res.Classification = analysis.Classify(ds)
	res.Charts = append(analysis.SelectBarCharts(res.Classification, maxBars), analysis.SelectTimeSeries(res.Classification, maxLines)...)
	return res
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <files...>",
	Short: "Classify columns and list the charts a report would draw (no AI call)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		var opt analysis.LoadOptions
		if opt.Delimiter, err = parseDelimiter(insDelimiter); err != nil {
			return err
		}
		opt.ParseDates = insParseDates

		out := cmd.OutOrStdout()
		results := make([]inspection, 0, len(files))
		failed := 0
		total := len(files)
		for i, path := range files {
			if !insQuiet && !insJSON {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			res := inspectFile(path, opt, insMaxBars, insMaxLines)
			if res.Error != "" {
				failed++
			}
			results = append(results, res)
		}

		if insJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return err
			}
		} else {
			for _, res := range results {
				printInspection(cmd, res)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be loaded", failed, total)
		}
		return nil
	},
}

func printInspection(cmd *cobra.Command, res inspection) {
	out := cmd.OutOrStdout()
	heading(out, res.File)
	if res.Error != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("✗ "+res.Error))
		return
	}
	c := res.Classification
	date := strings.Join(c.DateLike, ", ")
	if date != "" && c.Inferred {
		date += " (inferred)"
	}
	renderTable(out, []string{"Kind", "Columns"}, [][]string{
		{"numeric", strings.Join(c.Numeric, ", ")},
		{"categorical", strings.Join(c.Categorical, ", ")},
		{"datetime", date},
	})
	if len(res.Charts) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No charts."))
		return
	}
	rows := make([][]string, len(res.Charts))
	for i, s := range res.Charts {
		rows[i] = []string{string(s.Kind), s.Title(), s.X, s.Y}
	}
	renderTable(out, []string{"Chart", "Title", "X", "Y"}, rows)
	fmt.Fprintf(out, "%d rows\n", res.Rows)
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&insDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab'")
	inspectCmd.Flags().StringSliceVar(&insParseDates, "parse-dates", nil, "columns to load as timestamps (comma-separated)")
	inspectCmd.Flags().IntVar(&insMaxBars, "max-bar-charts", analysis.DefaultMaxBarCharts, "maximum bar charts to list")
	inspectCmd.Flags().IntVar(&insMaxLines, "max-line-charts", analysis.DefaultMaxLineCharts, "maximum time-series charts to list")
	inspectCmd.Flags().BoolVar(&insJSON, "json", false, "print results as JSON")
	inspectCmd.Flags().BoolVar(&insQuiet, "quiet", false, "suppress progress output")
}

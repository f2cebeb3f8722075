package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/ai"
	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/analysis"
	cfgpkg "github.com/HARSHAVARDHAN5696/genai-business-report/internal/config"
	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/insight"
	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/render"
	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/report"
	"github.com/spf13/cobra"
)

var (
	repOutDir      string
	repDelimiter   string
	repParseDates  []string
	repPreviewRows int
	repNoAI        bool
	repPrintPrompt bool
	repJSON        bool
	repModel       string
)

// reportOptions maps configuration onto pipeline options.
func reportOptions(c *cfgpkg.Global) report.Options {
	return report.Options{
		PreviewRows:   c.PreviewRows,
		PromptRows:    c.PromptRows,
		MaxBarCharts:  c.MaxBarCharts,
		MaxLineCharts: c.MaxLineCharts,
		Render:        render.Options{WidthIn: c.ChartWidthIn, HeightIn: c.ChartHeightIn},
	}
}

// newSummarizer builds the summarizer from configuration, applying a model override.
func newSummarizer(c *cfgpkg.Global, model string) (*insight.Summarizer, error) {
	ac := c.AIConfig()
	if model != "" {
		ac.Model = model
	}
	if _, ok := ai.LookupModel(ac.Model); !ok && debug {
		fmt.Fprintf(os.Stderr, "⚠ Model %q is not in the local catalog; sending anyway.\n", ac.Model)
	}
	return insight.NewSummarizer(ac)
}

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Preview a CSV, draw charts and generate AI business insights",
	Example: `  bizreport report sales.csv
  bizreport report sales.csv --out ./sales-report --parse-dates order_date
  bizreport report sales.csv --no-ai --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c, err := requireConfig()
		if err != nil {
			return err
		}
		opt := reportOptions(c)
		if repPreviewRows > 0 {
			opt.PreviewRows = repPreviewRows
		}
		if opt.Load.Delimiter, err = parseDelimiter(repDelimiter); err != nil {
			return err
		}
		opt.Load.ParseDates = repParseDates
		opt.SkipSummary = repNoAI

		var sum report.Summarizer
		if !repNoAI {
			s, err := newSummarizer(c, repModel)
			if err != nil {
				return err
			}
			sum = s
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		rep, err := report.NewGenerator(sum, opt).Run(cmd.Context(), filepath.Base(path), f)
		switch {
		case errors.Is(err, analysis.ErrEmptyInput):
			return fmt.Errorf("%s is empty; please provide a CSV with data: %w", path, err)
		case errors.Is(err, analysis.ErrUnreadableInput):
			return fmt.Errorf("%s is unreadable; please choose another CSV: %w", path, err)
		case err != nil:
			return err
		}

		out := cmd.OutOrStdout()
		errOut := cmd.ErrOrStderr()
		var saved *report.Saved
		if repOutDir != "" {
			if saved, err = rep.Save(repOutDir); err != nil {
				return err
			}
		}

		if repJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}

		heading(out, fmt.Sprintf("Data Preview (%s, %d rows)", rep.Source, rep.Rows))
		renderTable(out, rep.Preview.Header, rep.Preview.Rows)

		heading(out, "Auto-Generated Charts")
		if len(rep.Charts) == 0 {
			fmt.Fprintln(out, mutedStyle.Render("No chartable column pairs found."))
		}
		for i, ch := range rep.Charts {
			line := fmt.Sprintf("✓ %s [%s, %d points]", ch.Title, ch.Spec.Kind, len(ch.Points))
			if saved != nil {
				line += " → " + saved.Charts[i]
			}
			fmt.Fprintln(out, line)
		}
		for _, w := range rep.Warnings {
			fmt.Fprintf(errOut, "⚠ %s\n", w)
		}

		if repPrintPrompt {
			heading(out, fmt.Sprintf("Prompt (~%d tokens)", rep.PromptTokens))
			fmt.Fprintln(out, rep.Prompt)
		}

		heading(out, "AI-Generated Business Insights")
		switch {
		case rep.SummaryError != nil:
			fmt.Fprintln(errOut, errorStyle.Render("✗ "+rep.SummaryError.Error()))
		case rep.Insights != "":
			fmt.Fprintln(out, strings.TrimSpace(rep.Insights))
			if debug {
				line := fmt.Sprintf("model=%s prompt_tokens~%d", rep.Model, rep.PromptTokens)
				if rep.RequestID != "" {
					line += " request_id=" + rep.RequestID
				}
				if rep.Usage != nil {
					line += fmt.Sprintf(" usage=%d/%d/%d", rep.Usage.PromptTokens, rep.Usage.CompletionTokens, rep.Usage.TotalTokens)
					if rep.CostUSD > 0 {
						line += fmt.Sprintf(" est_cost=$%.6f", rep.CostUSD)
					}
				}
				fmt.Fprintln(errOut, line)
			}
		default:
			fmt.Fprintln(out, mutedStyle.Render("Skipped (--no-ai)."))
		}

		if saved != nil {
			fmt.Fprintf(out, "\n✓ Wrote %s\n", saved.JSON)
			if saved.Insights != "" {
				fmt.Fprintf(out, "✓ Wrote %s\n", saved.Insights)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repOutDir, "out", "o", "", "directory for chart PNGs, report.json and insights.md")
	reportCmd.Flags().StringVar(&repDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (auto-detect if omitted)")
	reportCmd.Flags().StringSliceVar(&repParseDates, "parse-dates", nil, "columns to load as timestamps (comma-separated)")
	reportCmd.Flags().IntVar(&repPreviewRows, "preview-rows", 0, "rows shown in the preview (default from config)")
	reportCmd.Flags().BoolVar(&repNoAI, "no-ai", false, "skip the summarization call")
	reportCmd.Flags().BoolVar(&repPrintPrompt, "print-prompt", false, "print the prompt sent to the model")
	reportCmd.Flags().BoolVar(&repJSON, "json", false, "print the report as JSON")
	reportCmd.Flags().StringVarP(&repModel, "model", "m", "", "model name (overrides config)")
}

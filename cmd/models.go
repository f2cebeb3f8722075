package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/ai"
	"github.com/spf13/cobra"
)

var (
	modelsProvider string
	modelsJSON     bool
	syncPath       string
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List known models with pricing and the default temperature",
	Example: `  bizreport models
  bizreport models --provider ollama
  bizreport models sync --file ./models.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var provider string
		if modelsProvider != "" {
			p, err := ai.ParseProvider(modelsProvider)
			if err != nil {
				return err
			}
			provider = p
		}
		var list []ai.ModelInfo
		for _, m := range ai.Catalog() {
			if provider == "" || m.Provider == provider {
				list = append(list, m)
			}
		}
		out := cmd.OutOrStdout()
		if modelsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		temp := 0.3
		if cfg != nil {
			temp = cfg.Temperature
		}
		rows := make([][]string, 0, len(list))
		for _, m := range list {
			def := ""
			if d, ok := ai.DefaultModelFor(m.Provider); ok && d == m.Name {
				def = "✓"
			}
			rows = append(rows, []string{
				m.Provider, m.Name, fmt.Sprintf("%d", m.ContextTokens),
				fmt.Sprintf("%.5f", m.InputPerK), fmt.Sprintf("%.5f", m.OutputPerK), def,
			})
		}
		renderTable(out, []string{"Provider", "Model", "Context", "$/1K in", "$/1K out", "Default"}, rows)
		fmt.Fprintf(out, "temperature: %.2f\n", temp)
		return nil
	},
}

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge model catalog/pricing from a JSON file and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFromJSON(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		ai.MergeCatalog(m)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Merged %d models from %s\n", len(m), syncPath)
		return modelsCmd.RunE(cmd, nil)
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsSyncCmd)
	modelsCmd.Flags().StringVar(&modelsProvider, "provider", "", "filter by provider: openai | openrouter | ollama")
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "print as JSON")
	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to catalog JSON")
}

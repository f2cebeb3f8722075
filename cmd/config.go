package cmd

import (
	"fmt"
	"strconv"

	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/ai"
	cfgpkg "github.com/HARSHAVARDHAN5696/genai-business-report/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set bizreport configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "api_key: %s\n", mask(cfg.APIKey))
		fmt.Fprintf(out, "provider: %s\n", cfg.Provider)
		fmt.Fprintf(out, "model: %s\n", cfg.Model)
		fmt.Fprintf(out, "temperature: %.3f\n", cfg.Temperature)
		if cfg.BaseURL != "" {
			fmt.Fprintf(out, "base_url: %s\n", cfg.BaseURL)
		}
		fmt.Fprintf(out, "http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Fprintf(out, "prompt_rows: %d\n", cfg.PromptRows)
		fmt.Fprintf(out, "preview_rows: %d\n", cfg.PreviewRows)
		fmt.Fprintf(out, "max_bar_charts: %d\n", cfg.MaxBarCharts)
		fmt.Fprintf(out, "max_line_charts: %d\n", cfg.MaxLineCharts)
		fmt.Fprintf(out, "chart_width_in: %.2f\n", cfg.ChartWidthIn)
		fmt.Fprintf(out, "chart_height_in: %.2f\n", cfg.ChartHeightIn)
		fmt.Fprintf(out, "listen_addr: %s\n", cfg.ListenAddr)
		fmt.Fprintf(out, "max_upload_mb: %d\n", cfg.MaxUploadMB)
		fmt.Fprintf(out, "ollama_host: %s\n", cfg.OllamaHost)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := setKey(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	atoi := func(min int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < min {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	atof := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("invalid float for %s: %v", key, val)
		}
		return f, nil
	}
	var err error
	switch key {
	case "api_key":
		c.APIKey = val
	case "provider":
		c.Provider, err = ai.ParseProvider(val)
	case "model":
		c.Model = val
	case "temperature":
		c.Temperature, err = atof()
		if err == nil && c.Temperature > 2 {
			err = fmt.Errorf("temperature must be between 0 and 2")
		}
	case "base_url":
		c.BaseURL = val
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi(0)
	case "prompt_rows":
		c.PromptRows, err = atoi(1)
	case "preview_rows":
		c.PreviewRows, err = atoi(1)
	case "max_bar_charts":
		c.MaxBarCharts, err = atoi(0)
	case "max_line_charts":
		c.MaxLineCharts, err = atoi(0)
	case "chart_width_in":
		c.ChartWidthIn, err = atof()
	case "chart_height_in":
		c.ChartHeightIn, err = atof()
	case "listen_addr":
		c.ListenAddr = val
	case "max_upload_mb":
		c.MaxUploadMB, err = atoi(1)
	case "ollama_host":
		c.OllamaHost = val
	default:
		return fmt.Errorf("unknown key: %s (known: %v)", key, cfgpkg.Keys)
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/ai"
)

// EnvPrefix prefixes every environment override, e.g. BIZREPORT_MODEL.
const EnvPrefix = "BIZREPORT"

// Global configuration structure.
type Global struct {
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"`
	Provider       string  `mapstructure:"provider" yaml:"provider"`
	Model          string  `mapstructure:"model" yaml:"model"`
	Temperature    float64 `mapstructure:"temperature" yaml:"temperature"`
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url"`
	HTTPTimeoutSec int     `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`

	// Report shaping
	PromptRows    int     `mapstructure:"prompt_rows" yaml:"prompt_rows"`
	PreviewRows   int     `mapstructure:"preview_rows" yaml:"preview_rows"`
	MaxBarCharts  int     `mapstructure:"max_bar_charts" yaml:"max_bar_charts"`
	MaxLineCharts int     `mapstructure:"max_line_charts" yaml:"max_line_charts"`
	ChartWidthIn  float64 `mapstructure:"chart_width_in" yaml:"chart_width_in"`
	ChartHeightIn float64 `mapstructure:"chart_height_in" yaml:"chart_height_in"`

	// HTTP server
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"api_key", "provider", "model", "temperature", "base_url", "http_timeout_sec",
	"prompt_rows", "preview_rows", "max_bar_charts", "max_line_charts",
	"chart_width_in", "chart_height_in", "listen_addr", "max_upload_mb", "ollama_host",
}

// DefaultPath returns ~/.bizreport/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".bizreport", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.bizreport/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func defaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("provider", ai.ProviderOpenAI)
	v.SetDefault("model", "")
	v.SetDefault("temperature", 0.3)
	v.SetDefault("base_url", "")
	// 0 keeps the HTTP transport default.
	v.SetDefault("http_timeout_sec", 0)
	v.SetDefault("prompt_rows", 100)
	v.SetDefault("preview_rows", 5)
	v.SetDefault("max_bar_charts", 2)
	v.SetDefault("max_line_charts", 2)
	v.SetDefault("chart_width_in", 6.4)
	v.SetDefault("chart_height_in", 4.8)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("max_upload_mb", 32)
	v.SetDefault("ollama_host", ai.DefaultOllamaHost)
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file (cfgFile or ~/.bizreport/config.yaml) > defaults.
// A .env file in the working directory is loaded first; it never overrides
// variables already set in the process environment.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	defaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.APIKey == "" {
		c.APIKey = apiKeyFromEnv(c.Provider)
	}
	if c.Model == "" {
		p, err := ai.ParseProvider(c.Provider)
		if err != nil {
			return nil, err
		}
		c.Model, _ = ai.DefaultModelFor(p)
	}
	return &c, nil
}

// apiKeyFromEnv reads the conventional provider variables. OpenRouter keys are
// preferred when that provider is selected.
func apiKeyFromEnv(provider string) string {
	order := []string{"OPENAI_API_KEY", "OPENROUTER_API_KEY"}
	if ai.NormalizeProvider(provider) == ai.ProviderOpenRouter {
		order = []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY"}
	}
	for _, k := range order {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// AIConfig converts the loaded settings into the summarization backend config.
func (c *Global) AIConfig() ai.Config {
	return ai.Config{
		Provider:    c.Provider,
		APIKey:      c.APIKey,
		Model:       c.Model,
		Temperature: c.Temperature,
		BaseURL:     c.BaseURL,
		OllamaHost:  c.OllamaHost,
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
	}
}

// MaxUploadBytes returns the upload cap in bytes.
func (c *Global) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 32 << 20
	}
	return int64(c.MaxUploadMB) << 20
}

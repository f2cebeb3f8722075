package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/ai"
	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/report"
	"github.com/HARSHAVARDHAN5696/genai-business-report/internal/server"
	"github.com/spf13/cobra"
)

var (
	srvAddr    string
	srvOrigins []string
	srvNoAI    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report pipeline over HTTP (POST /api/report)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		opt := reportOptions(c)
		opt.SkipSummary = srvNoAI
		var sum report.Summarizer
		if !srvNoAI {
			s, err := newSummarizer(c, "")
			if err != nil {
				return err
			}
			sum = s
			if c.APIKey == "" && needsAPIKey(c.Provider) {
				logger.Warn("no API key configured; summaries will fail", "provider", c.Provider)
			}
		}

		addr := c.ListenAddr
		if srvAddr != "" {
			addr = srvAddr
		}
		srv := server.New(server.Config{
			Options:        opt,
			Summarizer:     sum,
			MaxUpload:      c.MaxUploadBytes(),
			AllowedOrigins: srvOrigins,
			Logger:         logger,
		})
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringSliceVar(&srvOrigins, "cors-origin", nil, "allowed CORS origins (default *)")
	serveCmd.Flags().BoolVar(&srvNoAI, "no-ai", false, "never call the model")
}

// needsAPIKey reports whether provider is a hosted API that rejects keyless calls.
func needsAPIKey(provider string) bool {
	return ai.NormalizeProvider(provider) != ai.ProviderOllama
}

// Package main is the entry point for the mailroom service.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shineum/mailroom-lite/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mailroom",
	Short: "Mailroom receives email over SMTP and sends it through a transactional-email provider",
	Long: `Mailroom stores every inbound SMTP message in a SQL table, serves a small
admin console and JSON API to read them, and forwards outbound mail to Resend,
AWS SES or stdout. Running it without a subcommand is the same as "serve".`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML configuration file (optional)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("mailroom failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given, and installs the
// configured logger writing to logOut.
func loadConfig(logOut io.Writer) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	setupLogger(logOut, cfg.Logging.Level)
	return cfg, nil
}

// parseLevel maps a config level name to a slog level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger configures the global slog logger with JSON output to w and
// the specified log level.
func setupLogger(w io.Writer, level string) {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shineum/mailroom-lite/internal/api"
	"github.com/shineum/mailroom-lite/internal/inbound"
	"github.com/shineum/mailroom-lite/internal/metrics"
	"github.com/shineum/mailroom-lite/internal/outbound"
	"github.com/shineum/mailroom-lite/internal/smtp"
	"github.com/shineum/mailroom-lite/internal/store"
	smtptls "github.com/shineum/mailroom-lite/internal/tls"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the SMTP intake, HTTP API and admin console",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe starts every listener and blocks until SIGINT or SIGTERM.
func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := loadConfig(os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	emails, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer emails.Close()

	tlsConfig, tlsMode, err := smtptls.ServerConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.SMTP.Hostname)
	if err != nil {
		return fmt.Errorf("failed to setup TLS: %w", err)
	}

	prov, err := selectProvider(ctx, cfg)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Listen != "" {
		m = metrics.New()
	}

	if !cfg.AdminConfigured() {
		slog.Warn("ADMIN_USERNAME and ADMIN_PASSWORD are not set; every login will fail")
	}

	smtpServer := smtp.New(smtp.ServerConfig{
		ListenAddr:      cfg.SMTP.Listen,
		Hostname:        cfg.SMTP.Hostname,
		MaxMessageBytes: cfg.SMTP.MaxMessageSize,
		Handler:         inbound.NewHandler(emails),
		Metrics:         m,
		TLSConfig:       tlsConfig,
		AuthUsername:    cfg.SMTP.Username,
		AuthPassword:    cfg.SMTP.Password,
	})

	httpAPI := api.New(api.Config{
		Emails:     emails,
		Dispatcher: outbound.NewDispatcher(prov, m, slog.Default()),
		Credential: api.Credential{Username: cfg.Admin.Username, Password: cfg.Admin.Password},
		Metrics:    m,
		Logger:     slog.Default().With("component", "api"),
	})

	slog.Info("starting mailroom",
		"http_listen", cfg.HTTP.Listen,
		"smtp_listen", cfg.SMTP.Listen,
		"store_driver", cfg.Store.Driver,
		"provider", prov.Name(),
		"auth_enabled", cfg.AuthEnabled(),
		"tls_mode", tlsMode,
		"metrics_enabled", m != nil,
	)

	// The first listener to fail stops the others.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)
	running := 0

	start := func(name string, fn func(context.Context) error) {
		running++
		go func() {
			err := fn(ctx)
			if err != nil {
				err = fmt.Errorf("%s: %w", name, err)
			}
			cancel()
			errCh <- err
		}()
	}

	start("smtp", smtpServer.ListenAndServe)
	start("http", func(ctx context.Context) error {
		return httpAPI.ListenAndServe(ctx, cfg.HTTP.Listen)
	})
	if m != nil {
		start("metrics", func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Metrics.Listen)
			if err != nil {
				return err
			}
			return api.ServeMetrics(ctx, ln, m, slog.Default())
		})
	}

	var firstErr error
	for i := 0; i < running; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	slog.Info("mailroom stopped")
	return firstErr
}

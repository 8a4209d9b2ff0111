package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shineum/mailroom-lite/internal/config"
	"github.com/shineum/mailroom-lite/internal/provider"
	"github.com/shineum/mailroom-lite/internal/provider/resend"
	"github.com/shineum/mailroom-lite/internal/provider/ses"
	"github.com/shineum/mailroom-lite/internal/provider/stdout"
)

// stdoutWriter is where the stdout provider prints; replaced in tests.
var stdoutWriter io.Writer = os.Stdout

// selectProvider chooses the email delivery backend based on configuration.
// An explicit provider takes precedence; otherwise Resend is used when an
// API key is set, then SES, then stdout.
func selectProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	name := cfg.Provider
	autoDetected := false

	if name == "" {
		autoDetected = true
		switch {
		case cfg.ResendConfigured():
			name = config.ProviderResend
		case cfg.SESConfigured():
			name = config.ProviderSES
		default:
			name = config.ProviderStdout
		}
	}

	switch name {
	case config.ProviderResend:
		if !cfg.ResendConfigured() {
			return nil, fmt.Errorf("resend provider selected but RESEND_API_KEY is required")
		}
		slog.Info("using Resend provider",
			"base_url", cfg.Resend.BaseURL,
			"from", cfg.Resend.From,
			"auto_detected", autoDetected,
		)
		return resend.New(resend.Config{
			APIKey:  cfg.Resend.APIKey,
			BaseURL: cfg.Resend.BaseURL,
			From:    cfg.Resend.From,
			Timeout: cfg.Resend.Timeout,
		})

	case config.ProviderSES:
		if !cfg.SESConfigured() {
			return nil, fmt.Errorf("SES provider selected but SES_REGION and SES_SENDER are required")
		}
		slog.Info("using AWS SES provider",
			"region", cfg.SES.Region,
			"sender", cfg.SES.Sender,
			"auto_detected", autoDetected,
		)
		p, err := ses.New(ctx, ses.SESProviderConfig{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
			Sender:          cfg.SES.Sender,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create SES provider: %w", err)
		}
		return p, nil

	case config.ProviderStdout:
		slog.Info("using stdout provider", "auto_detected", autoDetected)
		return stdout.NewWithWriter(cfg.Resend.From, stdoutWriter), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

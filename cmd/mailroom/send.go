package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shineum/mailroom-lite/internal/api"
	"github.com/shineum/mailroom-lite/internal/email"
	"github.com/shineum/mailroom-lite/internal/outbound"
)

var sendReq email.OutboundRequest

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one email through the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		prov, err := selectProvider(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		d := outbound.NewDispatcher(prov, nil, slog.Default())
		return sendOne(cmd.Context(), cmd.OutOrStdout(), d, &sendReq)
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendReq.To, "to", "", "recipient address")
	sendCmd.Flags().StringVar(&sendReq.Subject, "subject", "", "subject line")
	sendCmd.Flags().StringVar(&sendReq.Text, "text", "", "plain-text body")
	_ = sendCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(sendCmd)
}

// sendOne dispatches req and prints the provider message id.
func sendOne(ctx context.Context, w io.Writer, d api.Dispatcher, req *email.OutboundRequest) error {
	if req.To == "" {
		return errors.New("--to is required")
	}

	id, err := d.Dispatch(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "sent: %s\n", id)
	return nil
}

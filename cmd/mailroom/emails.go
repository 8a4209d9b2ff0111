package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shineum/mailroom-lite/internal/api"
	"github.com/shineum/mailroom-lite/internal/store"
)

var emailsLimit int

var emailsCmd = &cobra.Command{
	Use:   "emails",
	Short: "Print the most recently received emails",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		s, err := store.Open(cmd.Context(), cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return err
		}
		defer s.Close()

		return printEmails(cmd.Context(), cmd.OutOrStdout(), s, emailsLimit)
	},
}

func init() {
	emailsCmd.Flags().IntVarP(&emailsLimit, "limit", "n", store.RecentLimit, "maximum number of emails to print")
	rootCmd.AddCommand(emailsCmd)
}

// printEmails writes one tab-aligned line per email, newest first.
func printEmails(ctx context.Context, w io.Writer, emails api.EmailLister, limit int) error {
	if limit <= 0 || limit > store.RecentLimit {
		limit = store.RecentLimit
	}

	list, err := emails.Recent(ctx, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECEIVED\tFROM\tSUBJECT")
	for _, e := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.ReceivedAt, e.Sender, e.Subject)
	}
	return tw.Flush()
}

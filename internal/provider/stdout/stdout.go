// Package stdout implements a Provider that prints emails to standard output.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/shineum/mailroom-lite/internal/email"
)

const separator = "========================================\n"

// Provider prints outbound requests to stdout in a human-readable format.
// It is the fallback when no real provider is configured.
type Provider struct {
	from string
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New(from string) *Provider {
	return &Provider{from: from, writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
// This is useful for testing.
func NewWithWriter(from string, w io.Writer) *Provider {
	return &Provider{from: from, writer: w}
}

// Send prints the request and returns a freshly generated id.
func (p *Provider) Send(_ context.Context, req *email.OutboundRequest) (string, error) {
	id := uuid.NewString()

	var b strings.Builder
	b.WriteString(separator)
	b.WriteString(fmt.Sprintf("ID: %s\n", id))
	b.WriteString(fmt.Sprintf("From: %s\n", p.from))
	b.WriteString(fmt.Sprintf("To: %s\n", req.To))
	b.WriteString(fmt.Sprintf("Subject: %s\n", req.Subject))
	b.WriteString(fmt.Sprintf("Body: %s\n", formatSize(len(req.Text))))
	b.WriteString(req.Text + "\n")
	b.WriteString(separator)

	if _, err := io.WriteString(p.writer, b.String()); err != nil {
		return "", fmt.Errorf("failed to write message: %w", err)
	}

	return id, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

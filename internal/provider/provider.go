// Package provider defines the interface for outbound email delivery backends.
package provider

import (
	"context"
	"fmt"

	"github.com/shineum/mailroom-lite/internal/email"
)

// Provider is the interface that outbound email backends must implement.
type Provider interface {
	// Send delivers req and returns the provider-assigned message id.
	// A *RejectedError is returned when the provider answered but refused
	// the message; any other error means the provider could not be reached
	// or its answer could not be understood.
	Send(ctx context.Context, req *email.OutboundRequest) (string, error)

	// Name returns the human-readable name of this provider.
	Name() string
}

// RejectedError is a failure reported by the provider itself.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider rejected message (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("provider rejected message (HTTP %d): %s", e.StatusCode, e.Message)
}

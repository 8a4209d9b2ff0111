// Package outbound forwards outbound email requests to the configured
// delivery provider.
package outbound

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shineum/mailroom-lite/internal/email"
	"github.com/shineum/mailroom-lite/internal/metrics"
	"github.com/shineum/mailroom-lite/internal/provider"
)

// Dispatcher sends each request to a single provider exactly once and
// relays the provider's answer.
type Dispatcher struct {
	provider provider.Provider
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher. m may be nil.
func NewDispatcher(p provider.Provider, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		provider: p,
		metrics:  m,
		logger:   logger.With("provider", p.Name()),
		now:      time.Now,
	}
}

// Provider returns the name of the provider requests are sent through.
func (d *Dispatcher) Provider() string {
	return d.provider.Name()
}

// Dispatch sends req and returns the provider message id. Errors from the
// provider are returned unchanged so callers can tell a
// *provider.RejectedError from a transport failure.
func (d *Dispatcher) Dispatch(ctx context.Context, req *email.OutboundRequest) (string, error) {
	start := d.now()
	id, err := d.provider.Send(ctx, req)
	latency := d.now().Sub(start)

	if err != nil {
		var rejected *provider.RejectedError
		if errors.As(err, &rejected) {
			d.metrics.OutboundDispatched(d.provider.Name(), metrics.OutcomeRejected, latency)
			d.logger.Warn("provider rejected email",
				"to", req.To,
				"subject", req.Subject,
				"status", rejected.StatusCode,
				"error", rejected.Message,
			)
			return "", err
		}

		d.metrics.OutboundDispatched(d.provider.Name(), metrics.OutcomeFailed, latency)
		d.logger.Error("failed to send email",
			"to", req.To,
			"subject", req.Subject,
			"error", err,
		)
		return "", err
	}

	d.metrics.OutboundDispatched(d.provider.Name(), metrics.OutcomeSent, latency)
	d.logger.Info("email sent",
		"id", id,
		"to", req.To,
		"subject", req.Subject,
		"duration", latency,
	)
	return id, nil
}

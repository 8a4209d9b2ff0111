// Package resend implements a Provider that sends emails through a
// Resend-compatible transactional-email HTTP API.
package resend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/shineum/mailroom-lite/internal/email"
	"github.com/shineum/mailroom-lite/internal/provider"
)

// defaultTimeout bounds a single API call when the config leaves it unset.
const defaultTimeout = 30 * time.Second

// Config holds the configuration for creating a Provider.
type Config struct {
	APIKey  string
	BaseURL string
	From    string
	Timeout time.Duration
}

// Provider posts outbound email to the /emails endpoint with a bearer
// token. Requests are never retried.
type Provider struct {
	from   string
	client *resty.Client
}

// New creates a Provider with the given configuration.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("resend: api key is required")
	}
	if cfg.From == "" {
		return nil, errors.New("resend: from address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Provider{
		from:   cfg.From,
		client: client,
	}, nil
}

// Send posts req with the configured from address and returns the id the
// API assigned to the message.
func (p *Provider) Send(ctx context.Context, req *email.OutboundRequest) (string, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(sendRequest{
			From:    p.from,
			To:      req.To,
			Subject: req.Subject,
			Text:    req.Text,
		}).
		Post("/emails")
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	if !resp.IsSuccess() {
		var errResp errorResponse
		// An unreadable error payload still counts as a rejection.
		_ = json.Unmarshal(resp.Body(), &errResp)
		return "", &provider.RejectedError{
			StatusCode: resp.StatusCode(),
			Message:    errResp.Message,
		}
	}

	var out sendResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("response missing id")
	}

	return out.ID, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "resend"
}

package smtp

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/shineum/mailroom-lite/internal/inbound"
	"github.com/shineum/mailroom-lite/internal/metrics"
	"github.com/shineum/mailroom-lite/internal/parser"
)

// Handler stores one inbound message.
type Handler interface {
	Handle(ctx context.Context, msg inbound.Message) inbound.Result
}

// ErrAuthRequired is returned for MAIL before a successful AUTH when
// credentials are configured.
var ErrAuthRequired = &gosmtp.SMTPError{
	Code:         530,
	EnhancedCode: gosmtp.EnhancedCode{5, 7, 0},
	Message:      "Authentication required",
}

// Backend creates a session for every SMTP connection.
type Backend struct {
	ctx     context.Context
	handler Handler
	auth    *Authenticator
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewBackend creates a Backend. ctx is passed to every inbound handler
// call; m may be nil.
func NewBackend(ctx context.Context, handler Handler, auth *Authenticator, m *metrics.Metrics, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if auth == nil {
		auth = NewAuthenticator("", "")
	}
	return &Backend{
		ctx:     ctx,
		handler: handler,
		auth:    auth,
		metrics: m,
		logger:  logger,
	}
}

// NewSession starts a session for c. AUTH is only offered when
// credentials are configured.
func (b *Backend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	s := &Session{
		backend: b,
		logger:  b.logger.With("remote_addr", remoteAddr(c)),
	}
	if b.auth.Enabled() {
		return &AuthSession{Session: s}, nil
	}
	return s, nil
}

func remoteAddr(c *gosmtp.Conn) string {
	if c == nil || c.Conn() == nil {
		return ""
	}
	return c.Conn().RemoteAddr().String()
}

// Session is one SMTP connection. Any sender is accepted and every
// envelope recipient gets its own stored row.
type Session struct {
	backend       *Backend
	logger        *slog.Logger
	authenticated bool

	// Current transaction
	from string
	to   []string
}

// Mail sets the envelope sender.
func (s *Session) Mail(from string, _ *gosmtp.MailOptions) error {
	if s.backend.auth.Enabled() && !s.authenticated {
		return ErrAuthRequired
	}
	s.from = from
	s.to = nil
	return nil
}

// Rcpt adds an envelope recipient.
func (s *Session) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	s.to = append(s.to, to)
	return nil
}

// Data reads the message and hands it to the inbound handler once per
// recipient. Once the message has been read the reply is always 250;
// handler failures are logged here and go no further.
func (s *Session) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.logger.Error("error reading DATA", "from", s.from, "error", err)
		return fmt.Errorf("failed to read message: %w", err)
	}

	s.logger.Debug("message received",
		"from", s.from,
		"recipients", len(s.to),
		"size", len(raw),
	)

	for _, rcpt := range s.to {
		res := s.backend.handler.Handle(s.backend.ctx, parser.NewMessage(s.from, rcpt, raw))
		res.Log(s.logger)

		if res.OK() {
			s.backend.metrics.InboundHandled(metrics.OutcomeStored)
		} else {
			s.backend.metrics.InboundHandled(metrics.OutcomeFailed)
		}
	}

	return nil
}

// Reset clears the current transaction. Authentication survives a reset.
func (s *Session) Reset() {
	s.from = ""
	s.to = nil
}

// Logout ends the session.
func (s *Session) Logout() error {
	return nil
}

// AuthSession is a Session that advertises AUTH PLAIN.
type AuthSession struct {
	*Session
}

// AuthMechanisms lists the supported SASL mechanisms.
func (s *AuthSession) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

// Auth returns the SASL server for mech.
func (s *AuthSession) Auth(mech string) (sasl.Server, error) {
	if mech != sasl.Plain {
		return nil, &gosmtp.SMTPError{
			Code:         504,
			EnhancedCode: gosmtp.EnhancedCode{5, 7, 4},
			Message:      "Unsupported authentication mechanism",
		}
	}

	return sasl.NewPlainServer(func(_, username, password string) error {
		if err := s.backend.auth.Verify(username, password); err != nil {
			s.logger.Warn("SMTP authentication failed", "username", username)
			return err
		}
		s.authenticated = true
		return nil
	}), nil
}

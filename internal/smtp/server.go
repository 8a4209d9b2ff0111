package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"time"

	gosmtp "github.com/emersion/go-smtp"

	"github.com/shineum/mailroom-lite/internal/metrics"
)

// shutdownTimeout is the maximum time to wait for in-flight connections
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

const (
	ioTimeout     = 60 * time.Second
	maxRecipients = 50
)

// ServerConfig holds the configuration for an SMTP server.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":2525").
	ListenAddr string

	// Hostname is the server hostname used in the greeting and EHLO.
	Hostname string

	// MaxMessageBytes limits the DATA size. Zero means no limit.
	MaxMessageBytes int64

	// Handler stores accepted messages.
	Handler Handler

	// Metrics may be nil.
	Metrics *metrics.Metrics

	// TLSConfig is the TLS configuration for STARTTLS support.
	// If nil, STARTTLS is not advertised.
	TLSConfig *tls.Config

	// AuthUsername and AuthPassword configure SMTP AUTH.
	// If either is empty, authentication is not required.
	AuthUsername string
	AuthPassword string
}

// Server is the SMTP intake.
type Server struct {
	config ServerConfig
	auth   *Authenticator
	logger *slog.Logger
}

// New creates a new SMTP Server with the given configuration.
func New(cfg ServerConfig) *Server {
	if cfg.Hostname == "" {
		cfg.Hostname = "localhost"
	}

	return &Server{
		config: cfg,
		auth:   NewAuthenticator(cfg.AuthUsername, cfg.AuthPassword),
		logger: slog.Default().With("component", "smtp"),
	}
}

// ListenAndServe listens on the configured address and serves until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. On cancellation
// it stops accepting and waits up to 30 seconds for in-flight sessions.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// Handler calls outlive a cancelled ctx so that a message already read
	// is still stored during shutdown.
	backend := NewBackend(context.WithoutCancel(ctx), s.config.Handler, s.auth, s.config.Metrics, s.logger)
	srv := s.newServer(backend)

	s.logger.Info("SMTP server listening",
		"addr", ln.Addr().String(),
		"hostname", s.config.Hostname,
		"auth_enabled", s.auth.Enabled(),
		"tls_enabled", s.config.TLSConfig != nil,
	)

	stop := make(chan struct{})
	shutdownDone := make(chan struct{})

	go func() {
		defer close(shutdownDone)
		select {
		case <-ctx.Done():
		case <-stop:
			return
		}

		s.logger.Info("shutting down SMTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown timeout reached, forcing close", "error", err)
			srv.Close()
		}
	}()

	err := srv.Serve(ln)
	close(stop)
	<-shutdownDone

	if errors.Is(err, gosmtp.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) newServer(backend *Backend) *gosmtp.Server {
	srv := gosmtp.NewServer(backend)

	srv.Domain = s.config.Hostname
	srv.ReadTimeout = ioTimeout
	srv.WriteTimeout = ioTimeout
	srv.MaxMessageBytes = s.config.MaxMessageBytes
	srv.MaxRecipients = maxRecipients
	srv.TLSConfig = s.config.TLSConfig
	// AUTH is offered on plaintext connections too; STARTTLS is optional.
	srv.AllowInsecureAuth = true

	return srv
}

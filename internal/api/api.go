// Package api serves the HTTP API and the admin console.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shineum/mailroom-lite/internal/email"
	"github.com/shineum/mailroom-lite/internal/metrics"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// EmailLister reads the most recent stored emails.
type EmailLister interface {
	Recent(ctx context.Context, limit int) ([]email.Summary, error)
}

// Dispatcher sends one outbound email and returns the provider message id.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *email.OutboundRequest) (string, error)
}

// Config holds the dependencies of the API.
type Config struct {
	Emails     EmailLister
	Dispatcher Dispatcher
	Credential Credential
	// Metrics may be nil.
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// API is the HTTP surface: four routes plus the admin console fallback.
type API struct {
	emails     EmailLister
	dispatcher Dispatcher
	credential Credential
	logger     *slog.Logger
	engine     *gin.Engine
}

// New builds the router.
func New(cfg Config) *API {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	a := &API{
		emails:     cfg.Emails,
		dispatcher: cfg.Dispatcher,
		credential: cfg.Credential,
		logger:     cfg.Logger,
	}

	r := gin.New()
	// Unmatched paths, trailing slashes included, are answered by the console.
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.HandleMethodNotAllowed = false

	r.Use(requestLogger(a.logger), gin.Recovery(), cfg.Metrics.Middleware())

	r.POST("/login", a.login)

	apiGroup := r.Group("/api", allowAnyOrigin())
	apiGroup.GET("/emails", a.listEmails)
	apiGroup.POST("/send", a.send)

	r.NoRoute(serveConsole)

	a.engine = r
	return a
}

// Handler returns the http.Handler serving all routes.
func (a *API) Handler() http.Handler {
	return a.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (a *API) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (a *API) Serve(ctx context.Context, ln net.Listener) error {
	return serveHTTP(ctx, ln, a.engine, a.logger.With("component", "http"))
}

// ServeMetrics exposes m on ln until ctx is cancelled.
func ServeMetrics(ctx context.Context, ln net.Listener, m *metrics.Metrics, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return serveHTTP(ctx, ln, mux, logger.With("component", "metrics"))
}

func serveHTTP(ctx context.Context, ln net.Listener, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.Info("HTTP server listening", "addr", ln.Addr().String())

	stop := make(chan struct{})
	shutdownDone := make(chan struct{})

	go func() {
		defer close(shutdownDone)
		select {
		case <-ctx.Done():
		case <-stop:
			return
		}

		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown timeout reached, forcing close", "error", err)
			srv.Close()
		}
	}()

	err := srv.Serve(ln)
	close(stop)
	<-shutdownDone

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// allowAnyOrigin sets the wildcard CORS header on every response,
// error responses included.
func allowAnyOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Next()
	}
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}

		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"remote_addr", c.ClientIP(),
		)
	}
}

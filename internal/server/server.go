// package server contains the router, middleware & handlers for the songdrop web service
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdrop/internal/intake"
	"github.com/desertthunder/songdrop/internal/models"
	"github.com/desertthunder/songdrop/internal/shared"
	"github.com/desertthunder/songdrop/internal/web"
	"golang.org/x/time/rate"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxSongBodyBytes  = 1 << 20
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, CORS, rate limiting, body limits, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own a set of path patterns.
//
// Handlers registered this way receive every method; they do their own method checks.
type Handler interface {
	http.Handler

	// Routes returns the path patterns this handler serves
	Routes() []string
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	// Use adds middleware to the router's middleware stack
	Use(middleware ...Middleware)

	// Handle registers a handler for the specified method and path
	Handle(method, path string, handler http.Handler)

	// Handler registers a custom Handler implementation
	Handler(handler Handler)

	// ServeHTTP implements http.Handler for the entire router
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// Options contains the dependencies of the songdrop HTTP service.
type Options struct {
	Catalog  models.Catalog
	Pipeline *intake.Pipeline
	Logger   *log.Logger

	MaxUploadBytes int64         // Body limit on /upload; zero disables it
	UploadLimiter  *rate.Limiter // Token bucket for /upload; nil disables it
	MediaDir       string        // Directory served under /media/; empty disables it
}

// New assembles the router for the songdrop service.
func New(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "http")

	router := NewBasicRouter()
	router.Use(RequestID(), Logger(logger), Recover(logger), CORS())

	songs := NewSongsHandler(opts.Catalog, logger)
	router.Handle(http.MethodGet, "/songs", http.HandlerFunc(songs.List))
	router.Handle(http.MethodPost, "/songs", Chain(http.HandlerFunc(songs.Create), MaxBytes(maxSongBodyBytes)))

	var uploadMW []Middleware
	if opts.UploadLimiter != nil {
		uploadMW = append(uploadMW, RateLimit(opts.UploadLimiter))
	}
	if opts.MaxUploadBytes > 0 {
		uploadMW = append(uploadMW, MaxBytes(opts.MaxUploadBytes))
	}
	router.Handle(http.MethodPost, "/upload", Chain(NewUploadHandler(opts.Pipeline, logger), uploadMW...))

	router.Handle(http.MethodGet, "/healthz", NewHealthHandler(opts.Catalog))
	page := web.NewHandler(opts.Catalog, logger)
	if opts.MaxUploadBytes > 0 {
		page.WithNote(fmt.Sprintf("MP3 files only, up to %dMB", opts.MaxUploadBytes>>20))
	}
	router.Handle(http.MethodGet, "/{$}", page)

	if opts.MediaDir != "" {
		router.Handler(NewMediaHandler(opts.MediaDir))
	}
	router.Handler(NotFoundHandler{})

	return router
}

// Chain wraps handler with middleware so that the first middleware runs first.
func Chain(handler http.Handler, middleware ...Middleware) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}

// Run serves handler on the configured address until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, config shared.ServerConfig, handler http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              config.Addr(),
		Handler:           handler,
		ReadTimeout:       config.ReadTimeout.Duration,
		WriteTimeout:      config.WriteTimeout.Duration,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}

	return Serve(ctx, srv, ln, logger)
}

// Serve runs srv on ln until ctx is cancelled or the server fails.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *log.Logger) error {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("serving", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

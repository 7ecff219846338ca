// Package api serves the location hierarchy over HTTP.
//
// Routes:
//
//	GET    /healthz          build info and store reachability
//	GET    /locations        the snapshot in its JSON wire format
//	GET    /tree             flattened rows; ?expanded=a,b or ?expanded=all
//	POST   /tree/toggle      expand or collapse one row of the client's view
//	DELETE /tree/state       forget the client's saved view
//	POST   /moves/check      validate a move without applying it
//	POST   /moves            apply a move
//	POST   /drops            resolve and apply a finished drag gesture
//
// Each client's expansion state is kept apart by the X-Placetree-Client
// header. Errors are JSON bodies carrying the machine-readable error code.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/matzehuels/placetree/pkg/cache"
	"github.com/matzehuels/placetree/pkg/relocate"
	"github.com/matzehuels/placetree/pkg/viewstate"
)

// ClientHeader identifies the caller whose view state a request reads and
// writes.
const ClientHeader = "X-Placetree-Client"

const (
	defaultClient  = "default"
	maxClientLen   = 128
	maxBodyBytes   = 1 << 20
	shutdownGrace  = 5 * time.Second
	readHeaderTime = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	// Service performs snapshot reads and moves. Required.
	Service *relocate.Service
	// Views persists per-client expansion state. Nil keeps nothing.
	Views *viewstate.Store
	// Logger receives request and error logs. Nil discards output.
	Logger *log.Logger
	// CORSOrigins lists allowed browser origins. Empty disables CORS headers.
	CORSOrigins []string
	// RateLimit is applied per client address.
	RateLimit RateLimit
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	TrustProxy bool
}

// Server is the HTTP front end for a relocate.Service.
type Server struct {
	svc    *relocate.Service
	views  *viewstate.Store
	logger *log.Logger
	router chi.Router
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	s := &Server{
		svc:    opts.Service,
		views:  opts.Views,
		logger: opts.Logger,
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.views == nil {
		s.views = viewstate.NewStore(cache.NewNullCache(), nil, 0)
	}
	s.router = s.routes(opts)
	return s
}

func (s *Server) routes(opts Options) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", ClientHeader},
		}).Handler)
	}
	if rl := newRateLimiter(opts.RateLimit); rl != nil {
		r.Use(rl.middleware(s))
	}

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Get("/healthz", s.handleHealth)
	r.Get("/locations", s.handleLocations)
	r.Get("/tree", s.handleTree)
	r.Post("/tree/toggle", s.handleToggle)
	r.Delete("/tree/state", s.handleResetView)
	r.Post("/moves/check", s.handleCheck)
	r.Post("/moves", s.handleMove)
	r.Post("/drops", s.handleDrop)
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTime,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", addr, err)
	}
	s.logger.Info("server stopped")
	return nil
}

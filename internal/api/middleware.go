package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/observability"
)

// observe reports every request to the HTTP hooks and the debug log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, dur)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", dur,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Rate Limiting
// =============================================================================

// RateLimit is a token bucket applied per client address. RPS <= 0 disables
// limiting.
type RateLimit struct {
	RPS   float64
	Burst int
}

const (
	sweepInterval = time.Minute
	idleAfter     = 3 * time.Minute
)

type rateLimiter struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	clients   map[string]*rateClient
	lastSweep time.Time
	now       func() time.Time
}

type rateClient struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newRateLimiter(cfg RateLimit) *rateLimiter {
	if cfg.RPS <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		limit:   rate.Limit(cfg.RPS),
		burst:   burst,
		clients: make(map[string]*rateClient),
		now:     time.Now,
	}
}

// allow takes a token for key. Idle clients are swept lazily so no
// background goroutine outlives the server.
func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= sweepInterval {
		for k, c := range rl.clients {
			if now.Sub(c.seen) >= idleAfter {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &rateClient{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.seen = now
	return c.limiter.AllowN(now, 1)
}

func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *rateLimiter) middleware(s *Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.allow(ip) {
				s.logger.Warn("rate limit exceeded", "client_ip", ip, "method", r.Method, "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				s.writeError(w, r, errors.New(errors.ErrCodeRateLimited, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. With TrustProxy the RealIP
// middleware has already rewritten RemoteAddr from the proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// clientScope returns the view-state scope named by ClientHeader.
func clientScope(r *http.Request) (string, error) {
	c := r.Header.Get(ClientHeader)
	if c == "" {
		return defaultClient, nil
	}
	if len(c) > maxClientLen {
		return "", errors.New(errors.ErrCodeInvalidInput, "%s must be at most %d bytes", ClientHeader, maxClientLen)
	}
	return c, nil
}

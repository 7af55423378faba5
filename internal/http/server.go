package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"finboard/internal/log"
	"finboard/internal/metrics"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/middleware/trace"
	"finboard/internal/services"
)

// ReadyFunc reports whether the server's dependencies can serve traffic.
type ReadyFunc func(ctx context.Context) error

// Options configures a Server.
type Options struct {
	Currency           string
	RateLimitPerMinute int
	Logger             *log.Logger
	Metrics            *metrics.Collector
	Ready              ReadyFunc
}

// Server is the JSON API over a DashboardService.
type Server struct {
	http.Server
	service  *services.DashboardService
	logger   *log.Logger
	metrics  *metrics.Collector
	limiter  *ratelimit.Limiter
	clientIP *security.ClientIP
	ready    ReadyFunc
	currency string
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.DashboardService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}
	if opts.Currency == "" {
		opts.Currency = "GHS"
	}

	s := &Server{
		service:  svc,
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		metrics:  opts.Metrics,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		clientIP: security.NewClientIP(),
		ready:    opts.Ready,
		currency: opts.Currency,
		started:  time.Now(),
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger, func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(middleware.Recoverer)
	r.Use(trace.Middleware(s.metrics))
	r.Use(security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(ratelimit.Mutations, s.clientIP.Extract, s.onRateLimit))

		r.Get("/view", s.handleView)

		r.Post("/transactions", s.handleCreateTransaction)
		r.Post("/transactions/delete", s.handleDeleteTransactions)
		r.Get("/transactions/{id}", s.handleGetTransaction)
		r.Put("/transactions/{id}", s.handleUpdateTransaction)
		r.Delete("/transactions/{id}", s.handleDeleteTransaction)

		r.Put("/budgets", s.handleSetBudgets)
		r.Put("/theme", s.handleSetTheme)
		r.Post("/theme/toggle", s.handleToggleTheme)

		r.Post("/import", s.handleImport)
		r.Get("/export", s.handleExport)
		r.Post("/reset", s.handleReset)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	return r
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	fields := log.NewFields().
		WithRequestID(middleware.GetReqID(r.Context())).
		WithClientIP(s.clientIP.Extract(r)).
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"))
	s.logger.WarnContext(r.Context(), "Rate limit exceeded", fields.ToSlice()...)
	TooManyRequestsError().Write(w)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

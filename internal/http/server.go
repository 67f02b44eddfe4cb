package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"rentledger/internal/log"
	"rentledger/internal/middleware/auth"
	"rentledger/internal/middleware/ratelimit"
	"rentledger/internal/middleware/security"
	"rentledger/internal/middleware/trace"
	"rentledger/internal/services"
)

// Options configures the API server. Zero values take the defaults.
type Options struct {
	// Tokens maps bearer tokens to actor names.
	Tokens map[string]string
	// RequestTimeout bounds each handler's work (default 7s).
	RequestTimeout time.Duration
	// RequestsPerMinute per client IP (default 120).
	RequestsPerMinute int
	// Now is the clock used for default month filters.
	Now    func() time.Time
	Logger *log.Logger
}

type Server struct {
	http.Server
	ledger   *services.LedgerService
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	timeout  time.Duration
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, ledger *services.LedgerService, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 7 * time.Second
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 120
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		ledger:   ledger,
		detector: security.NewDetector(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		timeout:  opts.RequestTimeout,
		now:      opts.Now,
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, opts.Logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	authn := auth.New(opts.Tokens).Middleware(func(w http.ResponseWriter, r *http.Request) {
		UnauthorizedError("missing or unknown bearer token").Write(w)
	})
	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authn(h))
	}

	incomeRoutes(ledger).register("incomes", s, api)
	expenseRoutes(ledger).register("expenses", s, api)
	withdrawalRoutes(ledger).register("withdrawals", s, api)

	api("GET /api/summary", s.handleMonthSummary)
	api("GET /api/partners", s.handlePartnerBalances)
	api("GET /api/withdrawals/overview", s.handleWithdrawalOverview)
	api("GET /api/months/{key}/next", s.handleMonthStep(1))
	api("GET /api/months/{key}/prev", s.handleMonthStep(-1))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w)
	})

	var handler http.Handler = mux
	handler = limit(handler)
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = trace.Recover(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// requestContext applies the per-request timeout.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

// handleReady reports 503 while the store is unreachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ledger.Ready(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		ServiceUnavailableError("not ready").Write(w)
		return
	}
	NewJSONResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

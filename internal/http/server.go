// Package http serves the planning JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finplan/internal/core"
	applog "finplan/internal/log"
	"finplan/internal/middleware/ratelimit"
	"finplan/internal/middleware/security"
	"finplan/internal/middleware/trace"
	"finplan/internal/services"
	"finplan/internal/store"
)

// Planner is the planning service as seen by the handlers.
type Planner interface {
	TeamMembers(ctx context.Context) ([]core.TeamMember, error)
	OpexExpenses(ctx context.Context) ([]core.OpexExpense, error)
	WholesaleDeals(ctx context.Context) ([]core.WholesaleDeal, error)
	AddTeamMember(ctx context.Context, m core.TeamMember) (core.TeamMember, error)
	AddOpexExpense(ctx context.Context, e core.OpexExpense) (core.OpexExpense, error)
	AddWholesaleDeal(ctx context.Context, d core.WholesaleDeal) (core.WholesaleDeal, error)
	ClearCustom(ctx context.Context, kind store.Kind) (int, error)
	Assumptions(ctx context.Context) (core.Assumptions, error)
	SaveAssumptions(ctx context.Context, a core.Assumptions) error
	LastUpdated(ctx context.Context, kind store.Kind) (time.Time, error)
	ProfitAndLoss(ctx context.Context, year int, r services.Rates) (core.ProfitAndLoss, error)
	Runway(ctx context.Context, year int, pos *core.CashPosition) (core.RunwayReport, error)
	ProjectYears(ctx context.Context, year, years int) ([]core.ProfitAndLoss, error)
	DealMetrics(ctx context.Context, id string) (core.WholesaleDeal, core.DealMetrics, error)
	Breakdown(ctx context.Context, year int) (services.Breakdown, error)
	Ready(ctx context.Context) error
}

var _ Planner = (*services.PlanningService)(nil)

type Server struct {
	http.Server
	planner     Planner
	defaultYear int
	logger      *applog.Logger

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithDefaultYear sets the year used when a request names none.
func WithDefaultYear(year int) Option {
	return func(s *Server) { s.defaultYear = year }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit overrides the per-IP limit on write requests.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		s.rateLimiter = ratelimit.NewLimiter(cfg)
	}
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, planner Planner, opts ...Option) *Server {
	s := &Server{
		planner:     planner,
		defaultYear: time.Now().Year(),
		detector:    security.NewDetector(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	s.tracer = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/pl", s.handleProfitAndLoss)
	mux.HandleFunc("GET /api/pl/years", s.handleProjectYears)
	mux.HandleFunc("GET /api/runway", s.handleRunway)
	mux.HandleFunc("GET /api/breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /api/deals/{id}/metrics", s.handleDealMetrics)

	mux.HandleFunc("GET /api/team", s.handleListTeam)
	mux.HandleFunc("POST /api/team", s.handleCreateTeamMember)
	mux.HandleFunc("GET /api/opex", s.handleListOpex)
	mux.HandleFunc("POST /api/opex", s.handleCreateOpexExpense)
	mux.HandleFunc("GET /api/wholesale", s.handleListWholesale)
	mux.HandleFunc("POST /api/wholesale", s.handleCreateWholesaleDeal)
	mux.HandleFunc("DELETE /api/{kind}/custom", s.handleClearCustom)

	mux.HandleFunc("GET /api/assumptions", s.handleGetAssumptions)
	mux.HandleFunc("PUT /api/assumptions", s.handlePutAssumptions)
	mux.HandleFunc("GET /api/status", s.handleStatus)

	mux.HandleFunc("GET /api/baseline", s.handleBaseline)
	mux.HandleFunc("GET /api/actuals", s.handleActuals)

	limit := s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit,
		http.MethodPost, http.MethodPut, http.MethodDelete)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = limit(handler)
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		"client_ip", s.detector.ExtractClientIP(r),
		"method", r.Method,
		"path", r.URL.Path)
	ErrorResponse(r, http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w, r)
}

// Shutdown stops background goroutines and drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		total, failed := s.tracer.Counts()
		s.logger.Info("HTTP server shutting down",
			"requests", total,
			"server_errors", failed,
			"rate_limited", s.rateLimiter.Hits(),
			"suspicious", s.detector.SuspiciousCount())
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.planner.Ready(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// rates collects the optional DTC rate overrides of a request.
func rates(r *http.Request) (services.Rates, error) {
	var out services.Rates
	var err error
	if out.Discount, err = parseRateParam(r, "discount"); err != nil {
		return out, err
	}
	if out.Returns, err = parseRateParam(r, "returns"); err != nil {
		return out, err
	}
	return out, nil
}

// position builds a cash position override from cash, ar and ap. Omitted
// fields take the saved position's values; nil means no override.
func (s *Server) position(r *http.Request) (*core.CashPosition, error) {
	cash, err := parseAmountParam(r, "cash")
	if err != nil {
		return nil, err
	}
	ar, err := parseAmountParam(r, "ar")
	if err != nil {
		return nil, err
	}
	ap, err := parseAmountParam(r, "ap")
	if err != nil {
		return nil, err
	}
	if cash == nil && ar == nil && ap == nil {
		return nil, nil
	}

	a, err := s.planner.Assumptions(r.Context())
	if err != nil {
		return nil, err
	}
	pos := a.Position
	if cash != nil {
		pos.StartingCash = *cash
	}
	if ar != nil {
		pos.AccountsReceivable = *ar
	}
	if ap != nil {
		pos.AccountsPayable = *ap
	}
	return &pos, nil
}

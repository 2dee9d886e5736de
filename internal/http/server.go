package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"bossika/internal/cache"
	"bossika/internal/core"
	applog "bossika/internal/log"
	"bossika/internal/middleware/ratelimit"
	"bossika/internal/middleware/trace"
	"bossika/internal/services"
)

// Server exposes the JSON API. Summary responses are cached per
// business and invalidated on every write that can move the numbers.
type Server struct {
	http.Server

	businesses *services.BusinessService
	cashflows  *services.CashFlowService
	loans      *services.LoanService

	rateLimiter  *ratelimit.Limiter
	tracer       *trace.Middleware
	summaryCache *cache.LRUCache[core.DashboardSummary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, businesses *services.BusinessService, cashflows *services.CashFlowService, loanSvc *services.LoanService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		businesses:   businesses,
		cashflows:    cashflows,
		loans:        loanSvc,
		rateLimiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:       trace.NewMiddleware(clientIP),
		summaryCache: cache.NewLRUCache[core.DashboardSummary](100, time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/businesses", s.handleListBusinesses)
	mux.HandleFunc("POST /api/businesses", s.handleCreateBusiness)
	mux.HandleFunc("GET /api/businesses/{id}", s.handleGetBusiness)
	mux.HandleFunc("GET /api/businesses/{id}/summary", s.handleSummary)
	mux.HandleFunc("GET /api/businesses/{id}/cashflows", s.handleListCashFlows)
	mux.HandleFunc("POST /api/businesses/{id}/cashflows", s.handleCreateCashFlow)
	mux.HandleFunc("POST /api/businesses/{id}/recompute", s.handleRecompute)
	mux.HandleFunc("GET /api/businesses/{id}/loans", s.handleListLoans)
	mux.HandleFunc("POST /api/businesses/{id}/loans", s.handleCreateLoan)
	mux.HandleFunc("GET /api/loans/{id}", s.handleGetLoan)
	mux.HandleFunc("GET /api/loans/{id}/repayments", s.handleListRepayments)
	mux.HandleFunc("POST /api/loans/{id}/repayments", s.handleCreateRepayment)
	mux.HandleFunc("PUT /api/repayments/{id}", s.handleUpdateRepayment)

	// Outermost first: tracing, context logger, per-request ID, rate limit.
	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	withLogger := applog.Middleware(logger)
	withRequestID := applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})
	limited := s.rateLimiter.Middleware(clientIP, nil)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      s.tracer.Middleware(withLogger(withRequestID(limited(secureHeaders(mux))))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.Server.Handler
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address, considering proxies.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Listing businesses touches the store, so readiness tracks storage health.
	if _, err := s.businesses.List(r.Context()); err != nil {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func summaryKey(businessID int64) string {
	return "summary:" + strconv.FormatInt(businessID, 10)
}

func (s *Server) invalidateSummary(businessID int64) {
	s.summaryCache.Delete(summaryKey(businessID))
}

package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "substack/internal/log"
	"substack/internal/metrics"
	"substack/internal/middleware/ratelimit"
	"substack/internal/middleware/security"
	"substack/internal/middleware/trace"
	"substack/internal/services"
)

// Pinger is the readiness dependency, normally the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the application services the handlers call.
type Services struct {
	Accounts      *services.AccountService
	Subscriptions *services.SubscriptionService
	Analytics     *services.AnalyticsService
	Categories    *services.CategoryService
}

// Config holds server settings.
type Config struct {
	Addr           string
	RateLimit      ratelimit.Config
	TrustedProxies []string
}

type Server struct {
	http.Server
	mux      *http.ServeMux
	svc      Services
	pinger   Pinger
	metrics  *metrics.Metrics
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// m may be nil, in which case /metrics is not mounted.
func NewServer(cfg Config, svc Services, pinger Pinger, m *metrics.Metrics, logger *applog.Logger) *Server {
	httpLogger := logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		mux:      http.NewServeMux(),
		svc:      svc,
		pinger:   pinger,
		metrics:  m,
		logger:   httpLogger,
		limiter:  ratelimit.NewLimiter(cfg.RateLimit),
		detector: security.NewDetector(),
		started:  time.Now(),
	}
	for _, cidr := range cfg.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			httpLogger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}

	s.routes()

	var handler http.Handler = s.mux
	handler = s.inspect(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(httpLogger, s.detector.ExtractClientIP, m).Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// authedHandler receives the id of the authenticated user.
type authedHandler func(w http.ResponseWriter, r *http.Request, userID int64)

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.public("POST /auth/register", s.handleRegister)
	s.public("POST /auth/login", s.handleLogin)

	s.private("GET /users/me", s.handleProfile)
	s.private("PATCH /users/me/notifications", s.handleUpdateNotifications)
	s.private("GET /reminders", s.handleReminderHistory)

	s.private("GET /subscriptions", s.handleListSubscriptions)
	s.private("POST /subscriptions", s.handleCreateSubscription)
	s.private("GET /subscriptions/upcoming", s.handleUpcoming)
	s.private("GET /subscriptions/savings", s.handleSavingsSummary)
	s.private("GET /subscriptions/monthly-costs", s.handleMonthlyCosts)
	s.private("GET /subscriptions/analytics", s.handleCombinedAnalytics)
	s.private("GET /subscriptions/analytics/trends", s.handleTrends)
	s.private("GET /subscriptions/analytics/top", s.handleTop)
	s.private("GET /subscriptions/analytics/forgotten", s.handleForgotten)
	s.private("GET /subscriptions/analytics/savings-suggestions", s.handleSavingsSuggestions)
	s.private("GET /subscriptions/{id}", s.handleGetSubscription)
	s.private("PUT /subscriptions/{id}", s.handleUpdateSubscription)
	s.private("DELETE /subscriptions/{id}", s.handleDeleteSubscription)
	s.private("POST /subscriptions/{id}/mark-used", s.handleMarkUsed)
	s.private("POST /subscriptions/{id}/restore", s.handleRestore)
	s.private("POST /subscriptions/{id}/cancel", s.handleCancel)
	s.private("POST /subscriptions/{id}/reactivate", s.handleReactivate)

	s.private("GET /categories", s.handleListCategories)
	s.private("POST /categories", s.handleCreateCategory)
	s.private("GET /categories/icons", s.handleIcons)
	s.private("GET /categories/{id}", s.handleGetCategory)
	s.private("PUT /categories/{id}", s.handleUpdateCategory)
	s.private("DELETE /categories/{id}", s.handleDeleteCategory)
}

// public mounts a rate limited route that needs no token.
func (s *Server) public(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.rateLimit(h))
}

// private mounts a rate limited route behind bearer authentication.
func (s *Server) private(pattern string, h authedHandler) {
	s.mux.Handle(pattern, s.rateLimit(s.requireAuth(h)))
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.metrics.RateLimitHit()
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
	})(next)
}

// requireAuth resolves the bearer token to a user id.
func (s *Server) requireAuth(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			UnauthorizedError("Not authenticated").Write(w)
			return
		}
		userID, err := s.svc.Accounts.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, err, "User")
			return
		}

		ctx := authContext(r.Context(), userID)
		next(w, r.WithContext(ctx), userID)
	})
}

// inspect logs requests that look like probes. They are not blocked.
func (s *Server) inspect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

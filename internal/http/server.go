package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"famtrack/internal/auth"
	"famtrack/internal/cache"
	applog "famtrack/internal/log"
	"famtrack/internal/middleware/ratelimit"
	"famtrack/internal/middleware/security"
	"famtrack/internal/middleware/trace"
	"famtrack/internal/services"
	"famtrack/internal/storage"
	appweb "famtrack/web"
)

// Server wires handlers, session auth, and the shared middleware stack
// around the service layer.
type Server struct {
	http.Server
	templates *template.Template

	repo          *storage.Repository
	authenticator *auth.PasswordAuthenticator
	sessions      *auth.SessionManager
	transactions  *services.TransactionService
	budgets       *services.BudgetService
	analytics     *services.AnalyticsService
	exporter      *services.ExportService

	logger      *applog.Logger
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	headers     *security.HeadersMiddleware
	tracer      *trace.Middleware

	dashCache    *cache.LRUCache[*services.Dashboard]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// Deps carries everything the server needs; the caller owns lifecycle
// of the repository and AMQP client.
type Deps struct {
	Repo          *storage.Repository
	Authenticator *auth.PasswordAuthenticator
	Sessions      *auth.SessionManager
	Transactions  *services.TransactionService
	Budgets       *services.BudgetService
	Analytics     *services.AnalyticsService
	Exporter      *services.ExportService

	// TrustedProxies lists extra CIDR ranges whose forwarded headers
	// are believed when resolving client IPs.
	TrustedProxies []string
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		repo:          deps.Repo,
		authenticator: deps.Authenticator,
		sessions:      deps.Sessions,
		transactions:  deps.Transactions,
		budgets:       deps.Budgets,
		analytics:     deps.Analytics,
		exporter:      deps.Exporter,

		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:    security.NewDetector(),
		headers:     security.NewHeadersMiddleware(security.DefaultHeadersConfig()),

		logger: applog.New(applog.Config{
			Component: applog.ComponentHTTP,
			Handler:   slog.Default().Handler(),
		}),

		dashCache:    cache.NewLRUCache[*services.Dashboard](100, time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger)

	for _, cidr := range deps.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			slog.Warn("Skipping invalid trusted proxy", "cidr", cidr, "error", err)
		}
	}

	s.cacheManager.Register(s.dashCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/signup", s.public(s.handleSignup))
	mux.HandleFunc("/login", s.public(s.handleLogin))
	mux.HandleFunc("/logout", s.protected(s.handleLogout))

	mux.HandleFunc("/", s.protected(s.handleDashboard))
	mux.HandleFunc("/transactions", s.protected(s.handleTransactions))
	mux.HandleFunc("/transactions/edit", s.protected(s.handleTransactionEdit))
	mux.HandleFunc("/transactions/delete", s.protected(s.handleTransactionDelete))
	mux.HandleFunc("/members", s.protected(s.handleMembers))
	mux.HandleFunc("/members/edit", s.protected(s.handleMemberEdit))
	mux.HandleFunc("/members/delete", s.protected(s.handleMemberDelete))
	mux.HandleFunc("/budgets", s.protected(s.handleBudgets))
	mux.HandleFunc("/budgets/edit", s.protected(s.handleBudgetEdit))
	mux.HandleFunc("/budgets/toggle", s.protected(s.handleBudgetToggle))
	mux.HandleFunc("/budgets/delete", s.protected(s.handleBudgetDelete))
	mux.HandleFunc("/cashflow", s.protected(s.handleCashflow))
	mux.HandleFunc("/reports", s.protected(s.handleReports))
	mux.HandleFunc("/export/csv", s.protected(s.handleExportCSV))

	return s
}

// public wraps a handler with the shared middleware stack but no
// session requirement.
func (s *Server) public(next http.HandlerFunc) http.HandlerFunc {
	chained := applog.Middleware(s.logger)(
		s.tracer.Middleware(
			s.headers.Middleware(
				s.screenRequests(
					s.rateLimitPosts(next)))))
	return chained.ServeHTTP
}

// screenRequests logs and counts requests matching known scan
// patterns. The heuristics may false-positive, so nothing is blocked.
func (s *Server) screenRequests(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request detected",
				"client_ip", s.detector.ExtractClientIP(r),
				"method", r.Method,
				"path", r.URL.Path,
				"user_agent", r.Header.Get("User-Agent"))
		}
		next(w, r)
	}
}

// protected additionally resolves the session cookie and stashes the
// user in the request context.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return s.public(s.requireUser(next))
}

// rateLimitPosts throttles mutating requests per client IP.
func (s *Server) rateLimitPosts(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			clientIP := s.detector.ExtractClientIP(r)
			if !s.rateLimiter.Allow(clientIP) {
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
		}
		next(w, r)
	}
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

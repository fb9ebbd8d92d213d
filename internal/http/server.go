package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/guhrizzo/my-wallet/internal/auth"
	"github.com/guhrizzo/my-wallet/internal/core"
	"github.com/guhrizzo/my-wallet/internal/feed"
	"github.com/guhrizzo/my-wallet/internal/log"
	"github.com/guhrizzo/my-wallet/internal/middleware/ratelimit"
	"github.com/guhrizzo/my-wallet/internal/middleware/security"
	"github.com/guhrizzo/my-wallet/internal/middleware/trace"
	"github.com/guhrizzo/my-wallet/internal/services"
	"github.com/guhrizzo/my-wallet/internal/storage"
	appweb "github.com/guhrizzo/my-wallet/web"
)

// UserStore is the account lookup surface the handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (storage.User, error)
	GetUserByEmail(ctx context.Context, email string) (storage.User, error)
}

// Options configures the HTTP surface.
type Options struct {
	Addr       string
	Currency   string
	SessionTTL time.Duration

	// Logger, when set, is attached to every request context.
	Logger *log.Logger
}

type Server struct {
	http.Server

	service   *services.TransactionService
	hub       *feed.Hub
	users     UserStore
	tokens    *auth.TokenManager
	formatter *core.CurrencyFormatter

	sessionTTL time.Duration
	limiter    *ratelimit.Limiter
	detector   *security.Detector
	templates  *template.Template
	events     *log.StructuredLogger

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(opts Options, svc *services.TransactionService, hub *feed.Hub, users UserStore, tokens *auth.TokenManager) *Server {
	mux := http.NewServeMux()

	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}

	s := &Server{
		service:    svc,
		hub:        hub,
		users:      users,
		tokens:     tokens,
		formatter:  core.NewCurrencyFormatter(opts.Currency),
		sessionTTL: opts.SessionTTL,
		limiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:   security.NewDetector(),
	}

	eventLogger := opts.Logger
	if eventLogger == nil {
		eventLogger = log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentHTTP})
	}
	s.events = log.NewStructuredLogger(eventLogger)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/session", s.handleSession)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/stream", s.handleStream)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)

	handler := tracer.Middleware(headers.Middleware(s.limitWrites(mux)))
	if opts.Logger != nil {
		handler = log.Middleware(opts.Logger)(handler)
	}

	s.Server = http.Server{
		Addr:    opts.Addr,
		Handler: handler,
	}

	return s
}

// limitWrites rate limits mutating requests per client IP and flags
// suspicious-looking traffic.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := s.detector.ExtractClientIP(r)

		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request",
				"client_ip", ip, "method", r.Method, "path", r.URL.Path)
		}

		if (r.Method == http.MethodPost || r.Method == http.MethodDelete) && !s.limiter.Allow(ip) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", ip, "method", r.Method, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Muitas requisições. Tente novamente em instantes.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the listener and the rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleIndex renders the dashboard for a live session and the login page
// otherwise. Until the cookie is inspected the session is undecided, so the
// page choice happens here and nowhere else.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", "path", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	page := "login.html"
	data := struct {
		Email    string
		Currency string
	}{Currency: s.formatter.Code()}

	if claims, err := s.sessionClaims(r); err == nil {
		page = "dashboard.html"
		data.Email = claims.Email
	}

	if err := s.templates.ExecuteTemplate(w, page, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", page)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

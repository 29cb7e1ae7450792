// Package http serves the ledger home page and its JSON API.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"budgetbuddy/internal/core"
	applog "budgetbuddy/internal/log"
	appweb "budgetbuddy/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	handlerTimeout  = 7 * time.Second
	writesPerMinute = 60
)

// Ledger is the state container the handlers drive.
type Ledger interface {
	Load(ctx context.Context) (core.Snapshot, error)
	Categories(ctx context.Context) ([]core.Category, error)
	CategoriesByType(ctx context.Context, t core.TransactionType) ([]core.Category, error)
	MonthlyAggregate(ctx context.Context, period core.Period) (core.MonthlyAggregate, error)
	AddTransaction(ctx context.Context, in core.TransactionInput) (core.Snapshot, error)
	DeleteTransaction(ctx context.Context, id int64) (core.Snapshot, bool, error)
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	ledger    Ledger
	pinger    Pinger
	logger    *applog.Logger
	templates *template.Template
	limiter   *rateLimiter
	now       func() time.Time

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithClock sets the clock used for new transaction dates and the default
// summary month. Its location is the ledger timezone.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, ledger Ledger, pinger Pinger, logger *applog.Logger, opts ...Option) *Server {
	s := &Server{
		Server:  http.Server{Addr: addr, ReadHeaderTimeout: 10 * time.Second},
		ledger:  ledger,
		pinger:  pinger,
		logger:  logger.WithComponent(applog.ComponentHTTP),
		limiter: newRateLimiter(writesPerMinute, time.Minute),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.limiter.run(5 * time.Minute)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(applog.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		})
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(handlerTimeout))
		r.Get("/", s.handleHome)

		r.Route("/api", func(r chi.Router) {
			r.Use(s.limiter.limitWrites)
			r.Get("/home", s.handleAPIHome)
			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleCreateTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)
			r.Get("/categories", s.handleListCategories)
			r.Get("/summary", s.handleSummary)
		})
	})

	return r
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.close()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

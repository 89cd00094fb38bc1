// Package http serves the JSON API under /api/v1 and the server-rendered
// dashboard.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"spendsight/internal/cache"
	"spendsight/internal/ledger"
	"spendsight/internal/storage"
	appweb "spendsight/web"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339

	// Single-user demo deployment: every record belongs to user 1, which
	// the backends seed.
	defaultUserID = 1

	overviewCacheKey = "overview"
)

type Server struct {
	http.Server

	store     storage.Store
	ledger    *ledger.Service
	templates *template.Template

	rateLimiter *rateLimiter

	// Cached dashboard overview, invalidated on every write.
	overviewCache *cache.LRUCache[overviewData]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, store storage.Store, ledgerService *ledger.Service, overviewTTL time.Duration) *Server {
	if overviewTTL <= 0 {
		overviewTTL = 30 * time.Second
	}

	s := &Server{
		store:         store,
		ledger:        ledgerService,
		rateLimiter:   newRateLimiter(),
		overviewCache: cache.NewLRUCache[overviewData](16, overviewTTL),
		cacheManager:  cache.NewManager(),
	}
	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.withSecurity)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)

	r.Get("/", s.handleIndex)
	r.Get("/ui/overview", s.handleOverviewPartial)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Get("/static/*", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, req)
		})
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.handleListAccounts)
			r.Post("/", s.handleCreateAccount)
			r.Get("/{id}", s.handleGetAccount)
			r.Put("/{id}", s.handleUpdateAccount)
			r.Delete("/{id}", s.handleDeleteAccount)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Get("/{id}", s.handleGetCategory)
			r.Put("/{id}", s.handleUpdateCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
		})
		s.mountTransactionRoutes(r)
		r.Post("/transfers", s.handleTransfer)
		r.Route("/reports", func(r chi.Router) {
			r.Get("/expenses-by-category", s.handleExpensesByCategory)
			r.Get("/monthly-expenses", s.handleMonthlyExpenses)
			r.Get("/income-vs-expenses", s.handleCashFlow)
			r.Get("/balance-history/{accountID}", s.handleBalanceHistory)
		})
	})

	return r
}

// invalidateOverview drops the cached dashboard overview after a write.
func (s *Server) invalidateOverview() {
	s.overviewCache.Delete(overviewCacheKey)
}

// Shutdown stops the server and its background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/pricepilot/internal/config"
	"github.com/Simplici0/pricepilot/internal/db"
	"github.com/Simplici0/pricepilot/internal/logging"
	"github.com/Simplici0/pricepilot/internal/migrations"
	"github.com/Simplici0/pricepilot/internal/pricing"
	"github.com/Simplici0/pricepilot/internal/ratecfg"
	"github.com/Simplici0/pricepilot/internal/seed"
	"github.com/Simplici0/pricepilot/internal/store"
)

type server struct {
	auth   *authService
	store  *store.Store
	engine *pricing.Engine
	log    *zap.Logger

	// rates is the current configuration snapshot. Edits are serialized by
	// ratesMu and publish a new snapshot only after it is persisted.
	rates   atomic.Pointer[ratecfg.Config]
	ratesMu sync.Mutex
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if cfg.IsDev() || cfg.AutoMigrate {
		applied, err := migrations.Up(ctx, database)
		if err != nil {
			return fmt.Errorf("run database migrations: %w", err)
		}
		logger.Info("migrations applied", zap.Int("count", applied))
	}

	stats, err := seed.Run(ctx, database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	logger.Info("seed complete", zap.Int("inserts", stats.Inserts), zap.Int("updates", stats.Updates))

	srv, err := newServer(ctx, store.New(database), newAuthService(database, cfg.SessionSecret), pricing.NewEngine(nil), logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

func newServer(ctx context.Context, st *store.Store, auth *authService, engine *pricing.Engine, logger *zap.Logger) (*server, error) {
	cfg, fallbacks, err := st.LoadRateConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rate config: %w", err)
	}
	if len(fallbacks) > 0 {
		logger.Warn("rate settings fell back to defaults", zap.Strings("keys", fallbacks))
	}

	srv := &server{auth: auth, store: st, engine: engine, log: logger}
	srv.rates.Store(cfg)
	return srv, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)

	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Get("/rates", s.handleRatesGet)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Put("/rates", s.handleRatesUpdate)
			r.Post("/rates/salary", s.handleRatesSalary)
			r.Post("/rates/reset", s.handleRatesReset)
			r.Post("/rates/{table}", s.handleRateEntryAdd)
			r.Put("/rates/{table}/default", s.handleRateDefaultSet)
			r.Patch("/rates/{table}/{label}", s.handleRateEntryUpdate)
			r.Delete("/rates/{table}/{label}", s.handleRateEntryDelete)
		})

		r.Post("/quotes/preview", s.handleQuotePreview)
		r.Post("/quotes", s.handleQuoteCreate)
		r.Get("/quotes", s.handleQuotesList)
		r.Get("/quotes/{id}", s.handleQuoteGet)
		r.Get("/quotes/{id}/text", s.handleQuoteText)
		r.Get("/quotes/{id}/xlsx", s.handleQuoteXLSX)
		r.Post("/export", s.handleExport)

		r.Get("/drafts/new", s.handleDraftBlank)
		r.Post("/drafts", s.handleDraftCreate)
		r.Get("/drafts/{id}", s.handleDraftGet)
		r.Put("/drafts/{id}", s.handleDraftUpdate)
	})

	return r
}

func (s *server) currentRates() *ratecfg.Config {
	return s.rates.Load()
}

// updateRates applies edit to the current snapshot, persists the result and
// publishes it. The previous snapshot is never modified.
func (s *server) updateRates(ctx context.Context, edit func(*ratecfg.Config) (*ratecfg.Config, error)) (*ratecfg.Config, error) {
	s.ratesMu.Lock()
	defer s.ratesMu.Unlock()

	next, err := edit(s.rates.Load())
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveRateConfig(ctx, next); err != nil {
		return nil, err
	}
	s.rates.Store(next)
	return next, nil
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	valid, err := s.auth.validateCredentials(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !valid {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	if err := s.auth.setSessionCookie(w, body.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": body.Email})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

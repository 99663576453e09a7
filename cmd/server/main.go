package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/hagaki/internal/auth"
	"github.com/Simplici0/hagaki/internal/config"
	"github.com/Simplici0/hagaki/internal/db"
	"github.com/Simplici0/hagaki/internal/logging"
	"github.com/Simplici0/hagaki/internal/migrations"
	"github.com/Simplici0/hagaki/internal/pricetables"
	"github.com/Simplici0/hagaki/internal/pricing"
	"github.com/Simplici0/hagaki/internal/seed"
)

type server struct {
	engine *pricing.Engine
	source string
	tables *pricetables.Store
	auth   *auth.Service
	logger *zap.Logger
	now    func() time.Time
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.Config{}).Fatal("failed to load config", zap.Error(err))
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer logger.Sync()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	applied, err := migrations.Up(ctx, database)
	if err != nil {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}
	logger.Info("database ready", zap.String("path", cfg.DBPath), zap.Int("migrations_applied", applied))

	stats, err := seed.Run(ctx, database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		logger.Fatal("failed to seed database", zap.Error(err))
	}
	logger.Info("seed complete", zap.Int("inserts", stats.Inserts))

	tables := pricetables.NewStore(database)
	table, source, err := loadPriceTable(ctx, cfg, tables)
	if err != nil {
		logger.Fatal("failed to load price table", zap.Error(err))
	}
	logger.Info("price table loaded", zap.String("source", source))

	loc := cfg.Location()
	srv := &server{
		engine: pricing.NewEngine(table),
		source: source,
		tables: tables,
		auth:   auth.NewService(database, cfg.SessionSecret),
		logger: logger,
		now:    func() time.Time { return time.Now().In(loc) },
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", httpServer.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server shutdown gracefully")
}

// loadPriceTable prefers an explicit file over the newest stored revision.
func loadPriceTable(ctx context.Context, cfg config.Config, tables *pricetables.Store) (*pricing.Table, string, error) {
	if cfg.PriceTablePath != "" {
		table, err := pricing.LoadTableFile(cfg.PriceTablePath)
		if err != nil {
			return nil, "", err
		}
		return table, "file:" + cfg.PriceTablePath, nil
	}

	table, rev, err := tables.LoadTable(ctx)
	if err != nil {
		return nil, "", err
	}
	return table, "revision:" + strconv.FormatInt(rev.ID, 10), nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/quote", s.handleQuote)
	r.Post("/api/quote/confirm", s.handleQuoteConfirm)
	r.Get("/api/completion", s.handleCompletion)

	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Route("/admin", func(r chi.Router) {
		r.Use(s.auth.RequireSession)
		r.Get("/price-table", s.handleActivePriceTable)
		r.Get("/price-tables", s.handlePriceTablesList)
		r.Post("/price-tables", s.handlePriceTablesImport)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

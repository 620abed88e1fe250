// Package main is the entry point for the claimtrack API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/claimtrack/internal/config"
	"github.com/pkordes/claimtrack/internal/domain"
	"github.com/pkordes/claimtrack/internal/handler"
	"github.com/pkordes/claimtrack/internal/middleware"
	"github.com/pkordes/claimtrack/internal/remote"
	"github.com/pkordes/claimtrack/internal/repo"
	"github.com/pkordes/claimtrack/internal/service"
	"github.com/pkordes/claimtrack/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Storage ----------------------------------------------------------
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	slog.Info("store opened", "driver", cfg.StoreDriver)

	// --- Remote mirror ----------------------------------------------------
	var (
		syncer *remote.Syncer
		reader handler.RemoteReader
	)
	claimOpts := []service.ClaimOption{}
	if cfg.Remote.Enabled() {
		idx, err := remote.NewS3Index(ctx, remote.S3Config{
			Bucket:    cfg.Remote.Bucket,
			Region:    cfg.Remote.Region,
			Endpoint:  cfg.Remote.Endpoint,
			PathStyle: cfg.Remote.PathStyle,
		})
		if err != nil {
			slog.Error("failed to configure remote index", "error", err)
			os.Exit(1)
		}
		syncer = remote.NewSyncer(idx, remote.ClaimsIndex, logger, prometheus.DefaultRegisterer)
		reader = remote.NewClaimReader(idx, cfg.Remote.ReadLimit, logger)
		claimOpts = append(claimOpts, service.WithRemote(syncer))
		slog.Info("remote mirror enabled", "bucket", cfg.Remote.Bucket)
	}

	// --- Services ---------------------------------------------------------
	// ParseApprovalPolicy already succeeded inside config.Load.
	policy, _ := domain.ParseApprovalPolicy(cfg.ApprovalPolicy)
	claimOpts = append(claimOpts, service.WithApprovalPolicy(policy))

	tags := service.NewTagRegistry(ctx, store, logger)
	claims := service.NewClaimCollection(ctx, store, logger, claimOpts...)
	unsubscribe := tags.Subscribe(claims)
	defer unsubscribe()

	api := handler.NewServer(claims, tags, service.NewExportService(claims), reader, logger)

	// --- Router -----------------------------------------------------------
	// Middleware order: RequestID, RealIP, Logger, Recoverer, CORS,
	// body limit, acting user.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.NewUserContext())

	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", api.Routes())

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if syncer != nil {
		syncer.Wait()
	}
	if err := tags.Flush(shutdownCtx); err != nil {
		slog.Error("flush tags", "error", err)
	}
	if err := claims.Flush(shutdownCtx); err != nil {
		slog.Error("flush claims", "error", err)
	}
	slog.Info("server stopped")
}

// openStore returns the Store selected by cfg.StoreDriver and a func that
// releases its resources.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repo.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		s, err := repo.NewSQLiteStore(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case config.DriverPostgres:
		// pgxpool.New does not open connections; the first query does.
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping: %w", err)
		}
		if err := migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo.NewPostgresStore(pool, logger), pool.Close, nil

	default:
		return repo.NewFileStore(cfg.DataDir, logger), func() {}, nil
	}
}

// migrate applies pending goose migrations through a database/sql view of pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("migrations applied", "count", len(results))
	return nil
}

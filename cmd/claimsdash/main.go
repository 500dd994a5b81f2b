package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/claimsdash/internal/adapter/driven/identity"
	pgadapter "github.com/ericfisherdev/claimsdash/internal/adapter/driven/postgres"
	sqliteadapter "github.com/ericfisherdev/claimsdash/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/claimsdash/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/claimsdash/internal/adapter/driving/web"
	"github.com/ericfisherdev/claimsdash/internal/application"
	"github.com/ericfisherdev/claimsdash/internal/config"
	"github.com/ericfisherdev/claimsdash/internal/domain/port/driven"
	"github.com/ericfisherdev/claimsdash/internal/monitoring"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"pg_host", cfg.Postgres.Host,
		"pg_database", cfg.Postgres.Database,
		"pg_user", cfg.Postgres.User,
		"table", cfg.ReportingSchema+"."+cfg.ClaimsTable,
		"identity_provider", cfg.Identity.Enabled(),
		"history_db_path", cfg.HistoryDBPath,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Tracing is a no-op unless OTEL_EXPORTER_OTLP_ENDPOINT is set.
	shutdownTracing, err := monitoring.InitTracing(ctx, monitoring.TracingOptionsFromEnv())
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Error("tracing shutdown error", "error", err)
		}
	}()

	// 4. Open render history database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.HistoryDBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("history database ready", "path", db.Path())

	// 5. Credential sources: identity provider first, PGPASSWORD second.
	var provider driven.IdentityProvider
	if cfg.Identity.Enabled() {
		provider = identity.NewOAuthProvider(cfg.Identity.Host, cfg.Identity.ClientID, cfg.Identity.ClientSecret)
		slog.Info("identity provider configured", "token_url", identity.TokenURL(cfg.Identity.Host))
	} else {
		slog.Info("no identity provider configured, using PGPASSWORD")
	}
	creds := application.NewCredentialManager(provider, identity.NewEnvPassword())

	// 6. Warehouse pool and query catalog. No connection is opened until the
	// first request.
	conns, err := pgadapter.NewConnectionProvider(connParams(cfg), creds, slog.Default())
	if err != nil {
		return err
	}
	defer conns.Close()

	table, err := pgadapter.NewTableRef(cfg.ReportingSchema, cfg.ClaimsTable)
	if err != nil {
		return err
	}
	reporter := pgadapter.NewClaimsRepo(conns, table)

	reportSvc := application.NewReportService(
		reporter,
		creds,
		conns,
		sqliteadapter.NewRenderLogRepo(db),
		cfg.HistoryKeep,
		slog.Default(),
	)

	// 7. Register API and GUI routes on one mux.
	mux := http.NewServeMux()
	httphandler.RegisterRoutes(mux, httphandler.NewHandler(reportSvc, slog.Default()))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(reportSvc, table.String(), cfg.Notes, slog.Default()))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.Wrap(mux, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	slog.Info("claimsdash started", "listen_addr", cfg.ListenAddr)

	// 8. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return err
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func connParams(cfg *config.Config) pgadapter.ConnParams {
	return pgadapter.ConnParams{
		Host:             cfg.Postgres.Host,
		Port:             cfg.Postgres.Port,
		Database:         cfg.Postgres.Database,
		User:             cfg.Postgres.User,
		SSLMode:          cfg.Postgres.SSLMode,
		AppName:          cfg.Postgres.AppName,
		StatementTimeout: cfg.StatementTimeout,
	}
}

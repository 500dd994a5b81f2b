// Command reportingmigrate creates the reporting schema and claims table in a
// development warehouse. Production warehouses are populated upstream.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/claimsdash/internal/adapter/driven/identity"
	pgadapter "github.com/ericfisherdev/claimsdash/internal/adapter/driven/postgres"
	"github.com/ericfisherdev/claimsdash/internal/application"
	"github.com/ericfisherdev/claimsdash/internal/config"
	"github.com/ericfisherdev/claimsdash/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var provider driven.IdentityProvider
	if cfg.Identity.Enabled() {
		provider = identity.NewOAuthProvider(cfg.Identity.Host, cfg.Identity.ClientID, cfg.Identity.ClientSecret)
	}
	creds := application.NewCredentialManager(provider, identity.NewEnvPassword())

	cred, err := creds.Valid(ctx)
	if err != nil {
		return err
	}

	params := pgadapter.ConnParams{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		SSLMode:  cfg.Postgres.SSLMode,
		AppName:  cfg.Postgres.AppName,
	}
	connCfg, err := params.ConnConfig(cred.Token)
	if err != nil {
		return err
	}

	if err := pgadapter.RunMigrations(ctx, connCfg); err != nil {
		return err
	}

	slog.Info("reporting schema up to date",
		"host", cfg.Postgres.Host,
		"database", cfg.Postgres.Database,
		"source", cred.Source,
	)
	return nil
}

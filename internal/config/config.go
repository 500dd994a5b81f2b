// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Postgres holds the libpq-style connection parameters for the warehouse.
// The password is not part of it: it comes from the credential manager.
type Postgres struct {
	Host     string
	Port     uint16
	Database string
	User     string
	SSLMode  string
	AppName  string
}

// Identity holds the OAuth client credentials used to mint warehouse tokens.
type Identity struct {
	Host         string
	ClientID     string
	ClientSecret string
}

// Enabled returns true when all identity settings are present. When false the
// credential manager relies on PGPASSWORD alone.
func (i Identity) Enabled() bool {
	return i.Host != "" && i.ClientID != "" && i.ClientSecret != ""
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Postgres         Postgres
	Identity         Identity
	ReportingSchema  string
	ClaimsTable      string
	StatementTimeout time.Duration
	ListenAddr       string
	HistoryDBPath    string
	HistoryKeep      int
	Notes            string
}

// Load reads configuration from environment variables and returns a validated Config.
// PGHOST, PGDATABASE and PGUSER are required. PGPASSWORD is deliberately not read
// here: it is the fallback credential and is looked up on every refresh.
// Optional variables with defaults: PGPORT (5432), PGSSLMODE (require),
// PGAPPNAME (claimsdash), CLAIMSDASH_REPORTING_SCHEMA (reporting),
// CLAIMSDASH_CLAIMS_TABLE (claims_enriched), CLAIMSDASH_STATEMENT_TIMEOUT (0, driver default),
// CLAIMSDASH_LISTEN_ADDR (127.0.0.1:8080), CLAIMSDASH_HISTORY_DB_PATH (claimsdash.db),
// CLAIMSDASH_HISTORY_KEEP (500).
func Load() (*Config, error) {
	pg := Postgres{
		Host:     strings.TrimSpace(os.Getenv("PGHOST")),
		Database: strings.TrimSpace(os.Getenv("PGDATABASE")),
		User:     strings.TrimSpace(os.Getenv("PGUSER")),
		Port:     5432,
		SSLMode:  "require",
		AppName:  "claimsdash",
	}

	var missing []string
	if pg.Host == "" {
		missing = append(missing, "PGHOST")
	}
	if pg.Database == "" {
		missing = append(missing, "PGDATABASE")
	}
	if pg.User == "" {
		missing = append(missing, "PGUSER")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if v, ok := os.LookupEnv("PGPORT"); ok && v != "" {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil || port == 0 {
			return nil, fmt.Errorf("PGPORT has invalid port %q", v)
		}
		pg.Port = uint16(port)
	}

	if v, ok := os.LookupEnv("PGSSLMODE"); ok && v != "" {
		if !validSSLMode(v) {
			return nil, fmt.Errorf("PGSSLMODE has unsupported value %q", v)
		}
		pg.SSLMode = v
	}

	if v, ok := os.LookupEnv("PGAPPNAME"); ok && v != "" {
		pg.AppName = v
	}

	identity := Identity{
		Host:         strings.TrimSuffix(strings.TrimSpace(os.Getenv("DATABRICKS_HOST")), "/"),
		ClientID:     os.Getenv("DATABRICKS_CLIENT_ID"),
		ClientSecret: os.Getenv("DATABRICKS_CLIENT_SECRET"),
	}

	cfg := &Config{
		Postgres:        pg,
		Identity:        identity,
		ReportingSchema: "reporting",
		ClaimsTable:     "claims_enriched",
		ListenAddr:      "127.0.0.1:8080",
		HistoryDBPath:   "claimsdash.db",
		HistoryKeep:     500,
		Notes:           os.Getenv("CLAIMSDASH_NOTES"),
	}

	if v, ok := os.LookupEnv("CLAIMSDASH_REPORTING_SCHEMA"); ok && v != "" {
		cfg.ReportingSchema = v
	}
	if v, ok := os.LookupEnv("CLAIMSDASH_CLAIMS_TABLE"); ok && v != "" {
		cfg.ClaimsTable = v
	}

	if v, ok := os.LookupEnv("CLAIMSDASH_STATEMENT_TIMEOUT"); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CLAIMSDASH_STATEMENT_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("CLAIMSDASH_STATEMENT_TIMEOUT must not be negative, got %s", parsed)
		}
		cfg.StatementTimeout = parsed
	}

	if v, ok := os.LookupEnv("CLAIMSDASH_LISTEN_ADDR"); ok && v != "" {
		cfg.ListenAddr = v
	}

	if v, ok := os.LookupEnv("CLAIMSDASH_HISTORY_DB_PATH"); ok && v != "" {
		cfg.HistoryDBPath = v
	}

	if v, ok := os.LookupEnv("CLAIMSDASH_HISTORY_KEEP"); ok && v != "" {
		keep, err := strconv.Atoi(v)
		if err != nil || keep < 1 {
			return nil, fmt.Errorf("CLAIMSDASH_HISTORY_KEEP must be a positive integer, got %q", v)
		}
		cfg.HistoryKeep = keep
	}

	return cfg, nil
}

func validSSLMode(mode string) bool {
	switch mode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

// Package postgres implements the warehouse side of the dashboard: the
// credential-keyed connection pool and the fixed catalog of claims report queries.
package postgres

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool size bounds for every pool the provider builds.
const (
	MinConns = 2
	MaxConns = 10
)

// ConnParams are the connection settings drawn from configuration. The
// password is supplied per pool build by the credential source.
type ConnParams struct {
	Host     string
	Port     uint16
	Database string
	User     string
	SSLMode  string
	AppName  string

	// StatementTimeout, when positive, is applied as the statement_timeout
	// runtime parameter on every pooled connection.
	StatementTimeout time.Duration
}

// connString renders the parameters as a postgres:// URL without a password.
func (p ConnParams) connString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.User(p.User),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(int(p.Port))),
		Path:   "/" + p.Database,
	}

	q := url.Values{}
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	q.Set("sslmode", sslMode)
	if p.AppName != "" {
		q.Set("application_name", p.AppName)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// poolConfig builds a pgxpool configuration using password as the credential.
func (p ConnParams) poolConfig(password string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(p.connString())
	if err != nil {
		return nil, fmt.Errorf("parse connection parameters for %s: %w", p.Host, err)
	}

	cfg.ConnConfig.Password = password
	cfg.MinConns = MinConns
	cfg.MaxConns = MaxConns

	if p.StatementTimeout > 0 {
		cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(p.StatementTimeout.Milliseconds(), 10)
	}

	return cfg, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
	"github.com/ericfisherdev/claimsdash/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ConnectionPool = (*ConnectionProvider)(nil)

var tracer = otel.Tracer("github.com/ericfisherdev/claimsdash/internal/adapter/driven/postgres")

// ErrProviderClosed is returned by Acquire after Close.
var ErrProviderClosed = errors.New("connection provider closed")

// pool is the subset of *pgxpool.Pool the provider uses.
type pool interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Ping(ctx context.Context) error
	Stat() *pgxpool.Stat
	Close()
}

// poolFactory builds a pool from a fully populated configuration.
type poolFactory func(ctx context.Context, cfg *pgxpool.Config) (pool, error)

// newPgxPool builds a pgxpool and pings it so bad network parameters or an
// auth rejection surface at construction rather than on first use.
func newPgxPool(ctx context.Context, cfg *pgxpool.Config) (pool, error) {
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// ConnectionProvider owns the warehouse pool and keys it by the credential it
// was built from. Before every lease it checks the credential source: when
// the cached credential is absent, stale or replaced, the pool is closed and a
// new one is built from a fresh credential. Rebuilds are serialized by mu;
// concurrent callers wait and then share the rebuilt pool.
type ConnectionProvider struct {
	mu       sync.Mutex
	pool     pool
	poolCred model.Credential
	closed   bool

	params  ConnParams
	creds   driven.CredentialSource
	newPool poolFactory
	logger  *slog.Logger
}

// NewConnectionProvider creates a provider. No connection is opened until the
// first Acquire. The parameters are validated eagerly.
func NewConnectionProvider(params ConnParams, creds driven.CredentialSource, logger *slog.Logger) (*ConnectionProvider, error) {
	if _, err := params.poolConfig(""); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ConnectionProvider{
		params:  params,
		creds:   creds,
		newPool: newPgxPool,
		logger:  logger,
	}, nil
}

// Acquire leases one connection. The caller must Release it; prefer WithConn.
// Credential failures are returned as *model.CredentialError, pool build and
// lease failures as *model.ConnectionError.
func (p *ConnectionProvider) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	current, err := p.currentPool(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := current.Acquire(ctx)
	if err != nil {
		return nil, &model.ConnectionError{Op: "acquire connection", Err: err}
	}
	return conn, nil
}

// WithConn leases one connection for the duration of fn and releases it on
// every exit path, including a panic in fn or cancellation of ctx.
func (p *ConnectionProvider) WithConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return fn(conn)
}

// Ping leases a connection and pings the server.
func (p *ConnectionProvider) Ping(ctx context.Context) error {
	return p.WithConn(ctx, func(conn *pgxpool.Conn) error {
		if err := conn.Ping(ctx); err != nil {
			return &model.ConnectionError{Op: "ping", Err: err}
		}
		return nil
	})
}

// Status returns a snapshot of the current pool, zero when no pool is held.
func (p *ConnectionProvider) Status() model.PoolStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool == nil {
		return model.PoolStatus{}
	}

	stats := model.PoolStatus{Built: true, CredentialSource: p.poolCred.Source}
	if st := p.pool.Stat(); st != nil {
		stats.TotalConns = st.TotalConns()
		stats.IdleConns = st.IdleConns()
		stats.AcquiredConns = st.AcquiredConns()
		stats.MaxConns = st.MaxConns()
	}
	return stats
}

// Close closes the current pool and rejects further leases. It blocks until
// leased connections are released.
func (p *ConnectionProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.closePoolLocked("shutdown")
}

// currentPool returns a pool built from a fresh credential, rebuilding it if needed.
func (p *ConnectionProvider) currentPool(ctx context.Context) (pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, &model.ConnectionError{Op: "acquire connection", Err: ErrProviderClosed}
	}

	if p.pool != nil {
		cred, fresh := p.creds.Current()
		switch {
		case !fresh:
			p.closePoolLocked("credential stale")
		case !cred.SameAs(p.poolCred):
			p.closePoolLocked("credential changed")
		}
	}

	if p.pool != nil {
		return p.pool, nil
	}

	return p.buildPoolLocked(ctx)
}

func (p *ConnectionProvider) buildPoolLocked(ctx context.Context) (pool, error) {
	ctx, span := tracer.Start(ctx, "postgres.build_pool")
	defer span.End()

	cred, err := p.creds.Valid(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	cfg, err := p.params.poolConfig(cred.Token)
	if err != nil {
		return nil, &model.ConnectionError{Op: "build pool", Source: cred.Source, Err: err}
	}

	built, err := p.newPool(ctx, cfg)
	if err != nil {
		// The warehouse may have rejected the credential; get a new one next time.
		p.creds.Invalidate()
		span.RecordError(err)
		p.logger.ErrorContext(ctx, "building connection pool failed",
			"host", p.params.Host,
			"source", cred.Source,
			"error", err,
		)
		return nil, &model.ConnectionError{
			Op:     "build pool",
			Source: cred.Source,
			Err:    fmt.Errorf("connect to %s as %s: %w", p.params.Host, p.params.User, err),
		}
	}

	p.pool = built
	p.poolCred = cred
	span.SetAttributes(attribute.String("credential.source", string(cred.Source)))
	p.logger.InfoContext(ctx, "connection pool built",
		"host", p.params.Host,
		"database", p.params.Database,
		"source", cred.Source,
		"min_conns", MinConns,
		"max_conns", MaxConns,
	)

	return built, nil
}

// closePoolLocked closes and drops the current pool. Caller must hold p.mu.
func (p *ConnectionProvider) closePoolLocked(reason string) {
	if p.pool == nil {
		return
	}
	p.logger.Info("closing connection pool", "reason", reason, "source", p.poolCred.Source)
	p.pool.Close()
	p.pool = nil
	p.poolCred = model.Credential{}
}

package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
	"github.com/ericfisherdev/claimsdash/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialSource = (*CredentialManager)(nil)

var tracer = otel.Tracer("github.com/ericfisherdev/claimsdash/internal/application")

// CredentialManagerOption customizes CredentialManager creation.
type CredentialManagerOption func(*CredentialManager)

// WithClock overrides the clock used for staleness checks (testing).
func WithClock(now func() time.Time) CredentialManagerOption {
	return func(m *CredentialManager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger overrides the logger used for refresh diagnostics.
func WithLogger(logger *slog.Logger) CredentialManagerOption {
	return func(m *CredentialManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// CredentialManager owns the cached warehouse credential. It refreshes on
// demand once the credential is older than model.CredentialTTL, asking the
// identity provider first and the fallback second. There is no background
// refresh: a stale credential is replaced on the next call to Valid.
type CredentialManager struct {
	mu       sync.Mutex
	cred     model.Credential
	provider driven.IdentityProvider // may be nil when no identity is configured
	fallback driven.IdentityProvider // may be nil
	now      func() time.Time
	logger   *slog.Logger
}

// NewCredentialManager creates a CredentialManager. Either source may be nil;
// with both nil every refresh fails with a CredentialError.
func NewCredentialManager(provider, fallback driven.IdentityProvider, opts ...CredentialManagerOption) *CredentialManager {
	m := &CredentialManager{
		provider: provider,
		fallback: fallback,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Valid returns the cached credential while it is fresh. Otherwise it refreshes
// synchronously; concurrent callers wait for the one refresh in progress.
func (m *CredentialManager) Valid(ctx context.Context) (model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cred.StaleAt(m.now()) {
		return m.cred, nil
	}

	cred, err := m.refresh(ctx)
	if err != nil {
		// A failed refresh discards whatever was cached.
		m.cred = model.Credential{}
		return model.Credential{}, err
	}
	m.cred = cred
	return cred, nil
}

// Current returns the cached credential and whether it is still fresh.
func (m *CredentialManager) Current() (model.Credential, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred, !m.cred.StaleAt(m.now())
}

// Invalidate drops the cached credential so the next Valid call refreshes.
func (m *CredentialManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = model.Credential{}
}

// refresh walks the sources in order. Caller must hold m.mu.
func (m *CredentialManager) refresh(ctx context.Context) (model.Credential, error) {
	ctx, span := tracer.Start(ctx, "credential.refresh")
	defer span.End()

	var providerErr error
	if m.provider != nil {
		token, err := m.provider.Token(ctx)
		switch {
		case err != nil:
			providerErr = err
		case token == "":
			providerErr = errors.New("identity provider returned an empty token")
		default:
			return m.obtained(ctx, token, m.provider.Source(), nil), nil
		}
	} else {
		providerErr = errors.New("identity provider not configured")
	}

	if m.fallback != nil {
		token, err := m.fallback.Token(ctx)
		if err == nil && token != "" {
			span.SetAttributes(attribute.String("credential.provider_error", providerErr.Error()))
			return m.obtained(ctx, token, m.fallback.Source(), providerErr), nil
		}
		if err != nil {
			providerErr = errors.Join(providerErr, err)
		}
	}

	err := &model.CredentialError{Err: errors.Join(model.ErrNoCredential, providerErr)}
	span.RecordError(err)
	span.SetStatus(codes.Error, "no credential")
	m.logger.ErrorContext(ctx, "refreshing warehouse credential failed", "error", err)
	return model.Credential{}, err
}

func (m *CredentialManager) obtained(ctx context.Context, token string, source model.CredentialSource, providerErr error) model.Credential {
	attrs := []any{"source", source}
	if providerErr != nil {
		attrs = append(attrs, "provider_error", providerErr)
	}
	m.logger.InfoContext(ctx, "refreshed warehouse credential", attrs...)

	return model.Credential{
		Token:      token,
		ObtainedAt: m.now(),
		Source:     source,
	}
}

// Package identity implements the IdentityProvider port: an OAuth
// client-credentials token minted by the workspace identity service, and the
// PGPASSWORD environment fallback.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
	"github.com/ericfisherdev/claimsdash/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IdentityProvider = (*OAuthProvider)(nil)

// DefaultScope is the workspace scope accepted by the warehouse as a password.
const DefaultScope = "all-apis"

// tokenPath is the workspace OIDC token endpoint.
const tokenPath = "/oidc/v1/token"

// OAuthProvider mints a fresh access token on every call using the OAuth 2.0
// client-credentials grant. Caching is the credential manager's job, so no
// oauth2.ReuseTokenSource is used here.
type OAuthProvider struct {
	cfg        clientcredentials.Config
	httpClient *http.Client
}

// ProviderOption customizes OAuthProvider creation.
type ProviderOption func(*OAuthProvider)

// WithHTTPClient overrides the HTTP client used to reach the token endpoint.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *OAuthProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithScopes overrides the requested scopes.
func WithScopes(scopes ...string) ProviderOption {
	return func(p *OAuthProvider) {
		if len(scopes) > 0 {
			p.cfg.Scopes = scopes
		}
	}
}

// NewOAuthProvider creates a provider for the workspace at host. host may be a
// bare hostname or a URL with scheme.
func NewOAuthProvider(host, clientID, clientSecret string, opts ...ProviderOption) *OAuthProvider {
	p := &OAuthProvider{
		cfg: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     TokenURL(host),
			Scopes:       []string{DefaultScope},
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// TokenURL derives the token endpoint from a workspace host.
func TokenURL(host string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return host + tokenPath
}

// Token requests a new access token.
func (p *OAuthProvider) Token(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := p.cfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("client credentials token from %s: %w", p.cfg.TokenURL, err)
	}
	return tok.AccessToken, nil
}

// Source identifies tokens from this provider.
func (p *OAuthProvider) Source() model.CredentialSource {
	return model.CredentialSourceIdentityProvider
}

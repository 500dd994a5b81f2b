package driven

import (
	"context"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
)

// IdentityProvider supplies a short-lived token usable as the warehouse password.
type IdentityProvider interface {
	// Token returns a token or an error. An empty token with a nil error means
	// the source is configured but has nothing to offer.
	Token(ctx context.Context) (string, error)

	// Source names the provider for diagnostics.
	Source() model.CredentialSource
}

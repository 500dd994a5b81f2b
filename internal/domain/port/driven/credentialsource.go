package driven

import (
	"context"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
)

// CredentialSource hands out currently valid warehouse credentials.
type CredentialSource interface {
	// Valid returns the cached credential while fresh, refreshing it first
	// when absent or stale. Fails with *model.CredentialError.
	Valid(ctx context.Context) (model.Credential, error)

	// Current returns the cached credential without refreshing, and whether
	// it is still fresh.
	Current() (model.Credential, bool)

	// Invalidate discards the cached credential, e.g. after the warehouse
	// rejected it, so the next Valid call refreshes.
	Invalidate()
}

package identity

import (
	"context"
	"os"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
	"github.com/ericfisherdev/claimsdash/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IdentityProvider = EnvPassword{}

// EnvPassword reads a static password from the environment on every call, so
// an operator can rotate it without restarting the process.
type EnvPassword struct {
	Key string
}

// NewEnvPassword returns the PGPASSWORD fallback.
func NewEnvPassword() EnvPassword {
	return EnvPassword{Key: "PGPASSWORD"}
}

// Token returns the variable's value, or "" when unset.
func (e EnvPassword) Token(_ context.Context) (string, error) {
	return os.Getenv(e.Key), nil
}

// Source identifies the environment fallback.
func (e EnvPassword) Source() model.CredentialSource {
	return model.CredentialSourceEnvPassword
}

package model

import "time"

// CredentialTTL is how long a database credential is reused before it must be
// refreshed. Pools built from a credential older than this are discarded.
const CredentialTTL = 900 * time.Second

// CredentialSource identifies which source supplied a credential.
type CredentialSource string

const (
	CredentialSourceIdentityProvider CredentialSource = "identity_provider"
	CredentialSourceEnvPassword      CredentialSource = "env_password"
)

// Credential is a bearer token or password used to authenticate to the
// warehouse, plus the time it was obtained and where it came from.
type Credential struct {
	Token      string
	ObtainedAt time.Time
	Source     CredentialSource
}

// IsZero reports whether no credential has been obtained yet.
func (c Credential) IsZero() bool {
	return c.Token == "" && c.ObtainedAt.IsZero()
}

// StaleAt returns true when the credential is absent or at least CredentialTTL old at now.
func (c Credential) StaleAt(now time.Time) bool {
	if c.IsZero() {
		return true
	}
	return now.Sub(c.ObtainedAt) >= CredentialTTL
}

// SameAs reports whether two credentials are the same refresh of the same token.
func (c Credential) SameAs(other Credential) bool {
	return c.Token == other.Token && c.ObtainedAt.Equal(other.ObtainedAt)
}

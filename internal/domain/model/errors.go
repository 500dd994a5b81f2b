package model

import (
	"errors"
	"fmt"
)

// ErrNoCredential is wrapped by CredentialError when neither the identity
// provider nor the fallback password yielded a token.
var ErrNoCredential = errors.New("no usable database credential: identity provider and PGPASSWORD both empty")

// CredentialError means no source produced a usable token. It halts the
// current render and needs operator attention on identity or env setup.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential: %v", e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// ConnectionError means the pool could not be built or a connection could
// not be leased. It is expected to clear on the next demand-triggered refresh.
// Source names the credential the failed connection attempt used, if any.
type ConnectionError struct {
	Op     string
	Source CredentialSource
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError carries the driver's message verbatim for the named report query.
// It usually means the live table drifted from the fixed query catalog.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

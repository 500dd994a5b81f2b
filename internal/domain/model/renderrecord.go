package model

import (
	"errors"
	"time"
)

// RenderOutcome classifies how a dashboard render ended.
type RenderOutcome string

const (
	RenderOutcomeOK              RenderOutcome = "ok"
	RenderOutcomeCredentialError RenderOutcome = "credential_error"
	RenderOutcomeConnectionError RenderOutcome = "connection_error"
	RenderOutcomeQueryError      RenderOutcome = "query_error"
	RenderOutcomeError           RenderOutcome = "error"
)

// RenderRecord is a diagnostic entry for one render. It never holds query results.
type RenderRecord struct {
	ID               string
	StartedAt        time.Time
	Duration         time.Duration
	Outcome          RenderOutcome
	Error            string
	CredentialSource CredentialSource
}

// OutcomeFor maps a render error onto its outcome class.
func OutcomeFor(err error) RenderOutcome {
	var credErr *CredentialError
	var connErr *ConnectionError
	var queryErr *QueryError
	switch {
	case err == nil:
		return RenderOutcomeOK
	case errors.As(err, &credErr):
		return RenderOutcomeCredentialError
	case errors.As(err, &connErr):
		return RenderOutcomeConnectionError
	case errors.As(err, &queryErr):
		return RenderOutcomeQueryError
	default:
		return RenderOutcomeError
	}
}

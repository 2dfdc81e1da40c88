package provider

import (
	"errors"
	"fmt"
)

// Error taxonomy for provider calls. The orchestrator routes on these:
// credential errors skip the campaign, transient errors are retried by the
// pager, anything else is a non-retryable provider error.

// CredentialError means the API key was rejected (401/403).
type CredentialError struct {
	Provider string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s: invalid credential", e.Provider)
}

// TransientError covers timeouts, rate limits and 5xx responses. Safe to
// retry the same request.
type TransientError struct {
	Provider string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// APIError is any other non-2xx response. Carries the status and a truncated
// body for diagnostics.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Body)
}

func IsCredential(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

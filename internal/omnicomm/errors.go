package omnicomm

import "fmt"

// AuthError means a credential could not be obtained or refreshed. It is a
// configuration or provider-auth problem and is usually not recoverable
// within the current run.
type AuthError struct {
	// Status is the upstream HTTP status of the failed login, 0 for
	// transport-level failures.
	Status int

	// Body carries the upstream response body for diagnostics.
	Body string

	Err error
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider login failed (%d): %s", e.Status, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("provider login failed: %v", e.Err)
	}
	return "provider login failed: " + e.Body
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError means a specific provider call failed after at most one
// re-authentication retry.
type APIError struct {
	// Status is the upstream HTTP status, 0 for transport-level failures.
	Status int

	// Body carries the upstream response body for diagnostics.
	Body string

	Err error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider request failed (%d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("provider request failed: %v", e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

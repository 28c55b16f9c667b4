// Package handlers defines the error codes carried in ErrorResponse.Code.
//
// Generic codes mirror HTTP semantics; domain codes name economy outcomes
// a client is expected to branch on (e.g. prompting a recharge on
// insufficient_funds).
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInsufficientFunds = "insufficient_funds"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)

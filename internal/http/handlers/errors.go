// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., already_read, daily_claimed) are reserved for
//     business logic errors that cannot be conveyed by status alone.
//   - All error responses must include both an HTTP status and one of these codes.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeAlreadyRead        = "already_read"
	ErrCodeAlreadyUnlocked    = "already_unlocked"
	ErrCodeItemNotHeld        = "item_not_held"
	ErrCodeQuestCompleted     = "quest_completed"
	ErrCodeDailyClaimed       = "daily_claimed"
	ErrCodeXPCapExceeded      = "xp_cap_exceeded"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeInactiveAccount    = "inactive_account"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
)

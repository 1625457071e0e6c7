// Package domainerrors defines the coded error type services return to the
// transport layer. Stores return sentinel errors (pkg/platform/sentinel);
// services translate them into coded errors here; the HTTP layer maps codes
// to statuses in a single place.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers. Codes are stable API: handlers map
// them to HTTP statuses and clients branch on them.
type Code string

const (
	// CodeValidation marks malformed input: bad ids, blank or oversized
	// text, unknown enum values. Recoverable by correcting the request.
	CodeValidation Code = "validation"

	// CodeBadRequest marks a structurally broken request (unparseable body).
	CodeBadRequest Code = "bad_request"

	// CodeUnauthorized marks a missing or unusable credential.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden marks a role or ownership mismatch. Never retried.
	CodeForbidden Code = "forbidden"

	// CodeNotFound marks a record that is missing, deleted, or outside the
	// caller's scope. The three are deliberately conflated so responses do
	// not leak the existence of records the caller cannot see.
	CodeNotFound Code = "not_found"

	// CodeConflict marks a state precondition violation: double-acknowledge,
	// delete before acknowledgment, a lost optimistic-concurrency race, or a
	// duplicate batch submission. Callers may re-fetch and retry.
	CodeConflict Code = "conflict"

	// CodeRateLimited marks a request rejected by a rate limiter. Retry
	// after the window resets.
	CodeRateLimited Code = "rate_limited"

	// CodeTimeout marks a transaction that was cancelled or timed out.
	CodeTimeout Code = "timeout"

	// CodeUnavailable marks a transient storage failure. Safe to retry reads
	// with backoff; mutations have no idempotency key, so clients must
	// re-fetch before retrying them.
	CodeUnavailable Code = "unavailable"

	// CodeInvariantViolation marks a broken domain invariant detected at
	// construction time. Services usually convert it to CodeValidation
	// before it reaches the API.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInternal is the catch-all for unexpected failures.
	CodeInternal Code = "internal"
)

// Error carries a code, a caller-safe message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and caller-safe message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-safe message from err. Non-coded errors get a
// generic message so internals never leak into responses.
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

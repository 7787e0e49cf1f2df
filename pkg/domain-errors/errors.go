// Package domainerrors defines the coded error type shared by all services.
//
// Stores return pkg/platform/sentinel errors; services wrap or translate them
// into coded errors; the HTTP layer maps codes onto status lines. Callers can
// branch on codes with HasCode without depending on error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and caller branching.
type Code string

const (
	CodeBadRequest Code = "bad_request"
	CodeValidation Code = "validation_failed"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"

	// CodeOrderingViolation: a custody entry's timestamp precedes the latest
	// entry already on the ledger for that item.
	CodeOrderingViolation Code = "ordering_violation"
	// CodeImmutabilityViolation: an attempt to edit or remove a ledger entry.
	CodeImmutabilityViolation Code = "immutability_violation"
	// CodeHeld: a disposal action was attempted while the case is under an
	// active legal hold.
	CodeHeld Code = "legal_hold_active"
	// CodeState: an illegal workflow transition. The message names the current
	// and attempted states.
	CodeState Code = "illegal_state_transition"
	// CodeMissingWitness: completing a physical destruction without a witness.
	CodeMissingWitness Code = "missing_witness"
	// CodePolicyConflict: a second active retention policy for one case type.
	CodePolicyConflict Code = "policy_conflict"

	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeUnavailable  Code = "storage_unavailable"
	CodeInternal     Code = "internal_error"
)

// Error is a coded domain error. Construct with New or Wrap.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// CodeOf extracts the outermost code, or CodeInternal when err is uncoded.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code onto an HTTP status. Domain failures are 4xx so
// callers can distinguish "your request was invalid" from "try again later"
// (503) and genuine bugs (500).
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeOrderingViolation, CodeImmutabilityViolation,
		CodeHeld, CodeState, CodeMissingWitness, CodePolicyConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

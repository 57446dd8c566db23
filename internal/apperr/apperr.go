// Package apperr defines the error taxonomy surfaced to API callers.
//
// Services return these instead of raw errors so the HTTP layer can map
// each kind to a status code without string matching: validation → 422,
// not found → 404, conflict → 409, authorization → 403. Distinct failure
// modes of the same kind (duplicate completion vs. inactive assignment)
// stay distinguishable via errors.Is on the service-level sentinels.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindAuthorization Kind = "authorization"
)

// Error is a terminal, caller-visible error with a transport classification.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validation builds a validation error (malformed or out-of-range input).
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found error (missing or invisible referenced record).
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a conflict error (duplicate, inactive or locked target).
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Authorization builds an authorization error (actor is neither owner nor
// override-holder).
func Authorization(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the taxonomy kind, unwrapping as needed.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

func isKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func IsValidation(err error) bool    { return isKind(err, KindValidation) }
func IsNotFound(err error) bool      { return isKind(err, KindNotFound) }
func IsConflict(err error) bool      { return isKind(err, KindConflict) }
func IsAuthorization(err error) bool { return isKind(err, KindAuthorization) }

// LockedError reports a rejected edit on a time-locked clinical record. It
// carries the lock timestamp so the caller can show when the window closed.
type LockedError struct {
	LockedAt time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("record locked since %s", e.LockedAt.Format(time.RFC3339))
}

// Unwrap classifies the lock rejection as a conflict.
func (e *LockedError) Unwrap() error {
	return &Error{Kind: KindConflict, Message: "record locked"}
}

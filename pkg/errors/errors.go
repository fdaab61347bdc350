package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable, client-facing error identifier.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// CodeInvalidTransition rejects an operation that is not valid from the
	// shipment's current status. Nothing is written.
	CodeInvalidTransition Code = "INVALID_STATE_TRANSITION"
	// CodeStaleState reports a lost conditional write: another transition moved
	// the shipment first. Callers re-fetch and retry.
	CodeStaleState Code = "STALE_STATE_CONFLICT"
)

// Metadata drives how a code is rendered over HTTP.
type Metadata struct {
	HTTPStatus    int
	Retryable     bool
	PublicMessage string
	// DetailsAllowed permits Error.Details in the response body.
	DetailsAllowed bool
	// ExposeMessage lets the caller-supplied message replace PublicMessage.
	ExposeMessage bool
}

func clientFault(status int, public string, details bool) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: public, DetailsAllowed: details, ExposeMessage: true}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:        clientFault(http.StatusBadRequest, "validation failed", true),
	CodeUnauthorized:      clientFault(http.StatusUnauthorized, "authentication required", false),
	CodeForbidden:         clientFault(http.StatusForbidden, "access denied", false),
	CodeNotFound:          clientFault(http.StatusNotFound, "resource not found", false),
	CodeConflict:          clientFault(http.StatusConflict, "conflict detected", false),
	CodeStateConflict:     clientFault(http.StatusUnprocessableEntity, "state transition disallowed", true),
	CodeIdempotency:       clientFault(http.StatusConflict, "idempotency key reused", true),
	CodeInvalidTransition: clientFault(http.StatusBadRequest, "invalid state transition", true),
	CodeStaleState: {
		HTTPStatus:     http.StatusConflict,
		Retryable:      true,
		PublicMessage:  "shipment state changed concurrently",
		DetailsAllowed: true,
		ExposeMessage:  true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error that may wrap a cause and carry response details.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches details in place and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	default:
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// IsCode reports whether the outermost coded error in err's chain has code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

package upload

import (
	"errors"
	"fmt"
)

// Kind classifies why an upload did not succeed.
type Kind string

const (
	KindNoEndpointConfigured Kind = "NO_ENDPOINT_CONFIGURED"
	KindMissingCredentials   Kind = "MISSING_CREDENTIALS"
	KindEncodingFailed       Kind = "ENCODING_FAILED"
	KindInvalidEndpointURL   Kind = "INVALID_ENDPOINT_URL"
	KindSignatureFailed      Kind = "SIGNATURE_FAILED"
	KindServerError          Kind = "SERVER_ERROR"
	KindTransportError       Kind = "TRANSPORT_ERROR"
)

// Error is a classified upload failure.
type Error struct {
	Kind Kind
	// StatusCode is set for KindServerError.
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Kind == KindServerError:
		return fmt.Sprintf("%s: status %d", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration reports whether the failure stems from settings rather than
// delivery.
func (e *Error) Configuration() bool {
	return e.Kind == KindNoEndpointConfigured || e.Kind == KindMissingCredentials || e.Kind == KindInvalidEndpointURL
}

// IsKind checks if err is an upload Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var uErr *Error
	if errors.As(err, &uErr) {
		return uErr.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" when err is nil or unclassified.
func KindOf(err error) Kind {
	var uErr *Error
	if errors.As(err, &uErr) {
		return uErr.Kind
	}
	return ""
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

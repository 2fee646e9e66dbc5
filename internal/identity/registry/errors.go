package registry

import (
	"errors"
	"fmt"
)

// Kind is the stable failure taxonomy of an identity lookup.
type Kind string

const (
	// KindInvalidFormat indicates the DNI failed validation; no request was sent
	KindInvalidFormat Kind = "invalid_format"

	// KindUpstreamRejected indicates the registry answered with a non-2xx status
	KindUpstreamRejected Kind = "upstream_rejected"

	// KindUpstreamUnreachable indicates a connection failure or timeout
	KindUpstreamUnreachable Kind = "upstream_unreachable"

	// KindUpstreamEmptyResponse indicates a 2xx answer without a usable body
	KindUpstreamEmptyResponse Kind = "upstream_empty_response"

	// KindInternal is reported for errors that did not come from this package
	KindInternal Kind = "internal"
)

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrInvalidFormat         = errors.New("invalid DNI format")
	ErrUpstreamRejected      = errors.New("identity registry rejected the request")
	ErrUpstreamUnreachable   = errors.New("identity registry unreachable")
	ErrUpstreamEmptyResponse = errors.New("identity registry returned no data")

	// ErrResponseTooLarge is wrapped by an empty-response error when the
	// body exceeded the size cap and was not decoded.
	ErrResponseTooLarge = errors.New("identity registry response too large")
)

var sentinels = map[Kind]error{
	KindInvalidFormat:         ErrInvalidFormat,
	KindUpstreamRejected:      ErrUpstreamRejected,
	KindUpstreamUnreachable:   ErrUpstreamUnreachable,
	KindUpstreamEmptyResponse: ErrUpstreamEmptyResponse,
}

// LookupError is a classified lookup failure.
type LookupError struct {
	Kind       Kind
	StatusCode int    // set for KindUpstreamRejected
	StatusText string // set for KindUpstreamRejected
	Message    string
	Underlying error
	timeout    bool
}

// Error implements the error interface
func (e *LookupError) Error() string {
	msg := e.Message
	if e.Kind == KindUpstreamRejected {
		msg = fmt.Sprintf("%s: %d %s", msg, e.StatusCode, e.StatusText)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("identity lookup [%s]: %s: %v", e.Kind, msg, e.Underlying)
	}
	return fmt.Sprintf("identity lookup [%s]: %s", e.Kind, msg)
}

// Unwrap supports error unwrapping
func (e *LookupError) Unwrap() error {
	return e.Underlying
}

// Is matches the sentinel error of the same kind.
func (e *LookupError) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// Timeout reports whether an unreachable registry was caused by the request deadline.
func (e *LookupError) Timeout() bool {
	return e.timeout
}

// InvalidFormat builds the error returned before any I/O for a malformed DNI.
func InvalidFormat() *LookupError {
	return &LookupError{Kind: KindInvalidFormat, Message: "DNI must be exactly 8 numeric digits"}
}

// Rejected builds the error for a non-2xx registry response.
func Rejected(statusCode int, statusText string) *LookupError {
	return &LookupError{
		Kind:       KindUpstreamRejected,
		StatusCode: statusCode,
		StatusText: statusText,
		Message:    "registry responded with error status",
	}
}

// Unreachable builds the error for connection failures and timeouts.
func Unreachable(err error, timeout bool) *LookupError {
	msg := "could not reach registry"
	if timeout {
		msg = "registry request timed out"
	}
	return &LookupError{Kind: KindUpstreamUnreachable, Message: msg, Underlying: err, timeout: timeout}
}

// EmptyResponse builds the error for a 2xx response with no usable body.
func EmptyResponse(err error) *LookupError {
	return &LookupError{Kind: KindUpstreamEmptyResponse, Message: "registry response had no usable body", Underlying: err}
}

// ResponseTooLarge builds the error for a 2xx body larger than limit bytes.
func ResponseTooLarge(limit int64) *LookupError {
	return &LookupError{
		Kind:       KindUpstreamEmptyResponse,
		Message:    fmt.Sprintf("registry response exceeds %d bytes", limit),
		Underlying: ErrResponseTooLarge,
	}
}

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) Kind {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}

// AsLookupError returns the LookupError in err's chain, if any.
func AsLookupError(err error) (*LookupError, bool) {
	var le *LookupError
	ok := errors.As(err, &le)
	return le, ok
}

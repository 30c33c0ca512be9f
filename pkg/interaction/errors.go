package interaction

import (
	"errors"
	"fmt"

	"github.com/zrna-research/zrna-go/pkg/wire"
)

// Client errors.
var (
	// ErrConnection indicates the handshake probe failed.
	ErrConnection = errors.New("connection failed")

	// ErrStatusCode indicates the device answered with a non-OK status.
	ErrStatusCode = errors.New("request failed")

	// ErrTransport indicates the channel could not be written or read.
	ErrTransport = errors.New("transport failed")

	// ErrNotConnected is returned by Send before a successful Connect and
	// after a failed one.
	ErrNotConnected = errors.New("client is not connected")

	// ErrClientClosed is returned after Close.
	ErrClientClosed = errors.New("client is closed")

	// ErrUnexpectedBody indicates a successful response without the expected body.
	ErrUnexpectedBody = errors.New("unexpected response body")

	// ErrInvalidName indicates an empty stored circuit name or one over
	// MaxStoredNameLength.
	ErrInvalidName = errors.New("invalid stored circuit name")
)

// ConnectionError reports a failed handshake probe.
type ConnectionError struct {
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection failed: %s: %v", e.Reason, e.Err)
	}
	return "connection failed: " + e.Reason
}

// Unwrap returns the sentinel and the underlying cause, if any.
func (e *ConnectionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConnection, e.Err}
	}
	return []error{ErrConnection}
}

// StatusCodeError is returned when the device answers with a status other
// than OK.
type StatusCodeError struct {
	Code   wire.StatusCode
	Method wire.Method
	Path   string
}

func (e *StatusCodeError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Code)
}

// Name returns the symbolic status name, e.g. INVALID_REQUEST_ERROR.
func (e *StatusCodeError) Name() string {
	return e.Code.String()
}

func (e *StatusCodeError) Unwrap() error {
	return ErrStatusCode
}

// TransportError wraps a channel read or write failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport failed: " + e.Err.Error()
}

// Unwrap returns the sentinel and the underlying cause.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// IsStatus reports whether err is a StatusCodeError carrying code.
func IsStatus(err error, code wire.StatusCode) bool {
	var se *StatusCodeError
	return errors.As(err, &se) && se.Code == code
}

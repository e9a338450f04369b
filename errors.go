// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTransportClosed indicates an I/O attempt on a closed [*Transport].
	ErrTransportClosed = errors.New("nntp: transport closed")

	// ErrPostingProhibited indicates that the greeting forbade posting.
	ErrPostingProhibited = errors.New("nntp: posting prohibited by the server")

	// ErrLineTooLong indicates a response line exceeding [Config.MaxLineSize].
	ErrLineTooLong = errors.New("nntp: response line too long")

	// ErrMalformedStatus indicates a response line without a valid status code.
	ErrMalformedStatus = errors.New("nntp: malformed status line")

	// ErrInvalidArgument indicates an argument that cannot be sent on the wire,
	// such as an empty group name or a command containing a line break.
	ErrInvalidArgument = errors.New("nntp: invalid argument")
)

// ConnectionError wraps failures of the underlying link: name resolution,
// connect, TLS handshake, timeouts and I/O on a closed transport.
//
// The transport is always closed when this error is returned.
type ConnectionError struct {
	// Op is the failed operation (e.g., "connect", "send", "receive").
	Op string

	// Timeout is true when the failure was caused by a deadline
	// or by context cancellation.
	Timeout bool

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *ConnectionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("nntp: %s: timeout: %s", e.Op, e.Err.Error())
	}
	return fmt.Sprintf("nntp: %s: %s", e.Op, e.Err.Error())
}

// Unwrap returns the underlying cause.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// newConnectionError builds a [*ConnectionError] for err. A context error,
// when set, replaces err.
func newConnectionError(ctx context.Context, op string, err error) *ConnectionError {
	timeout := false
	if cerr := ctx.Err(); cerr != nil {
		err, timeout = cerr, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	}
	return &ConnectionError{Op: op, Timeout: timeout, Err: err}
}

// ProtocolError indicates that the server replied with an unexpected status.
//
// Actual is zero when the line did not start with a valid status code, in
// which case the error wraps [ErrMalformedStatus].
type ProtocolError struct {
	// Expected is the status code the command expects.
	Expected int

	// Actual is the status code the server returned.
	Actual int

	// Line is the raw status line without the trailing CRLF.
	Line string
}

// Error implements error.
func (e *ProtocolError) Error() string {
	if e.Actual == 0 {
		return fmt.Sprintf("nntp: expected %d, got malformed line %q", e.Expected, e.Line)
	}
	return fmt.Sprintf("nntp: expected %d, got %q", e.Expected, e.Line)
}

// Unwrap returns [ErrMalformedStatus] for lines without a status code.
func (e *ProtocolError) Unwrap() error {
	if e.Actual == 0 {
		return ErrMalformedStatus
	}
	return nil
}

// StateError indicates a command issued in the wrong [State].
type StateError struct {
	// Required is the state the command needs. Commands legal in several
	// states report the lowest of them.
	Required State

	// Actual is the state of the session when the command was issued.
	Actual State
}

// Error implements error.
func (e *StateError) Error() string {
	return fmt.Sprintf("nntp: command requires state %s, session is %s", e.Required, e.Actual)
}

// StatusCode returns the status code carried by a [*ProtocolError] in
// the chain of err, or zero.
func StatusCode(err error) int {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr.Actual
	}
	return 0
}

// IsBoundary reports whether err is the server saying that there is no next
// or previous article. Callers iterating with NEXT or LAST stop on it.
func IsBoundary(err error) bool {
	switch StatusCode(err) {
	case StatusNoNextArticle, StatusNoPreviousArticle:
		return true
	default:
		return false
	}
}

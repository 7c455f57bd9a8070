// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"context"
	"errors"
	"net/http"

	"github.com/karhu/httpc/route"
)

// A Connection is one transport-level connection along a route,
// leased from a Manager for the duration of one request/response
// exchange.
type Connection interface {
	// Send writes the wire-level request and reads the response
	// status line and headers. The response body streams from the
	// connection; the connection must not be released until the body
	// is fully consumed or closed.
	Send(req *http.Request) (*http.Response, error)

	// Release returns the connection to its manager. If reusable is
	// true and the exchange did not demand closing, the connection
	// may be pooled for a future lease; otherwise it is closed.
	// Release is idempotent and safe to call on an already-closed
	// connection; only the first call wins.
	Release(reusable bool)
}

// A Manager hands out connections for routes. The built-in
// implementation is PoolManager, which keeps idle connections per
// route. Implementations must be safe for concurrent use by multiple
// goroutines.
type Manager interface {
	// Acquire leases a connection for the route, reusing an idle
	// pooled connection when one is available.
	Acquire(ctx context.Context, rt *route.Route) (Connection, error)

	// CloseIdleConnections closes connections currently idle in the
	// pool. It does not interrupt leased connections.
	CloseIdleConnections()

	// Close closes the manager and all idle connections.
	Close() error
}

// A NoResponseError indicates the connection was dropped without a
// single byte of the response being received. This usually means the
// server closed a keep-alive connection while the request was in
// flight.
type NoResponseError struct {
	Host string
}

func (e *NoResponseError) Error() string {
	return "httpc/conn: " + e.Host + " failed to respond"
}

// NoResponse marks the error for transient.Categorize.
func (e *NoResponseError) NoResponse() bool { return true }

// A TransportError wraps an I/O failure while dialing, writing the
// request, or reading the response. Transport errors are the only
// errors the retry stage will consider recovering from.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "httpc/conn: " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the wrapped error is a timeout.
func (e *TransportError) Timeout() bool {
	t, ok := e.Err.(interface{ Timeout() bool })
	return ok && t.Timeout()
}

// IsTransport reports whether err is an I/O failure eligible for the
// retry stage, as opposed to a protocol or usage error which
// propagates unchanged.
func IsTransport(err error) bool {
	var te *TransportError
	var nre *NoResponseError
	return errors.As(err, &te) || errors.As(err, &nre)
}

// A ProtocolError indicates the server responded with bytes that do
// not parse as an HTTP response. Protocol errors are surfaced to the
// caller unchanged and are never retried.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return "httpc/conn: malformed response: " + e.Err.Error()
}

func (e *ProtocolError) Unwrap() error { return e.Err }

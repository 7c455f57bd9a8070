// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/karhu/httpc/auth"
	"github.com/karhu/httpc/route"
	"github.com/karhu/httpc/transient"
)

// An Execution is the per-call mutable state shared by all stages of
// one logical plan execution.
//
// An Execution is created when a plan execution starts and is updated
// as the execution progresses (when the route is resolved, when a
// response becomes available, when a retry, redirect, or auth
// round-trip is decided). It is never shared between concurrent calls.
//
// Retry and timeout policies and event handlers may attach values to
// an Execution using SetValue and read them back using Value. They
// should treat the exported fields as read-only, except for reasonable
// changes to the outgoing http.Request before it is sent.
type Execution struct {
	// Plan specifies the HTTP request plan being executed. It is
	// never nil.
	Plan *Plan

	// ID is an opaque identifier for this execution, used to
	// correlate diagnostic log lines. It is unique per execution.
	ID string

	// Route is the resolved route for the current attempt. It is set
	// before the first attempt and replaced (never mutated) if a
	// redirect moves the execution to a different host.
	Route *route.Route

	// Start is the start time of the execution.
	Start time.Time

	// End is the end time of the execution. It contains the zero
	// value until the execution ends.
	End time.Time

	// Attempt is the zero-based index of the current wire-level
	// attempt. It is zero on the initial attempt, one on the first
	// retry, and so on.
	Attempt int

	// AttemptTimeouts counts the attempts which ended in a timeout.
	AttemptTimeouts int

	// Redirects counts the redirects followed so far.
	Redirects int

	// TargetAuth holds the authentication state negotiated with the
	// target host. It is reset when a challenge changes the scheme.
	TargetAuth *auth.State

	// ProxyAuth holds the authentication state negotiated with the
	// proxy, if the route has one.
	ProxyAuth *auth.State

	// Request specifies the wire-level request made, or about to be
	// made, in the current attempt.
	Request *http.Request

	// Response specifies the response received in the most recent
	// attempt. It is nil if the attempt ended in an error. While the
	// execution is in flight the response entity still owns the
	// underlying connection; it must be fully consumed or closed
	// before the connection can be reused.
	Response *http.Response

	// Err is the error received in the most recent attempt, nil if
	// the attempt succeeded. While an execution is in flight, Err may
	// fluctuate between nil and various non-nil values. Once the
	// execution has ended, Err equals the error returned to the
	// caller.
	Err error

	aborted int32
	data    context.Context
}

// NewExecution creates the execution state for one call on plan p.
func NewExecution(p *Plan) *Execution {
	return &Execution{
		Plan:       p,
		ID:         uuid.NewString(),
		TargetAuth: &auth.State{},
		ProxyAuth:  &auth.State{},
	}
}

// StatusCode returns the status code of the response from the most
// recent attempt, or 0 if there is no response.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// Header returns the response headers from the most recent attempt,
// or the nil header if there is no response. The nil header is safe
// for read-only use.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}
	return e.Response.Header
}

// Duration returns the duration of the execution. It is zero before
// the execution starts, monotonically increasing while in flight, and
// static once the execution has ended.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}
	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// Timeout indicates whether Err currently contains a non-nil value
// which indicates a timeout.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// Abort sets the execution's abort flag. The retry stage checks the
// flag at the top of its loop and after each I/O failure; once set,
// pending errors propagate immediately and the retry policy is no
// longer consulted. Abort is safe for concurrent use.
func (e *Execution) Abort() {
	atomic.StoreInt32(&e.aborted, 1)
}

// Aborted reports whether the execution has been aborted, either by an
// explicit Abort call or by cancellation of the plan's context.
func (e *Execution) Aborted() bool {
	if atomic.LoadInt32(&e.aborted) != 0 {
		return true
	}
	return e.Plan != nil && e.Plan.Context().Err() != nil
}

// SetValue allows policies and event handlers to store arbitrary data
// in the execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue: it may not be nil, must be comparable, and should
// not be of a built-in type to avoid collisions between handlers.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}
	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for
// key, or nil if there is none.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}
	return ctx.Value(key)
}

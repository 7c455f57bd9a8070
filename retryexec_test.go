// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpc

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/karhu/httpc/conn"
	"github.com/karhu/httpc/request"
	"github.com/karhu/httpc/retry"
	"github.com/karhu/httpc/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoute() *route.Route {
	return &route.Route{Target: route.Endpoint{Host: "test.local", Port: 80}}
}

func testPlan(t *testing.T, method string, body interface{}) *request.Plan {
	p, err := request.NewPlan(method, "http://test.local/things", body)
	require.NoError(t, err)
	return p
}

func transportErr(msg string) error {
	return &conn.TransportError{Op: "write request", Err: errors.New(msg)}
}

func TestRetryExec(t *testing.T) {
	t.Run("success passes through", func(t *testing.T) {
		p := testPlan(t, "GET", nil)
		e := request.NewExecution(p)
		want := &http.Response{StatusCode: 200}
		n := 0
		f := retryExec(retry.Never, &emptyHandlers, func(_ *route.Route, _ *request.Plan, _ *request.Execution) (*http.Response, error) {
			n++
			return want, nil
		})
		resp, err := f(testRoute(), p, e)
		assert.NoError(t, err)
		assert.Same(t, want, resp)
		assert.Equal(t, 1, n)
	})
	t.Run("retries until policy stops", func(t *testing.T) {
		p := testPlan(t, "GET", nil)
		e := request.NewExecution(p)
		ioErr := transportErr("connection reset")
		n := 0
		policy := retry.NewPolicy(retry.Times(3), retry.NewFixedWaiter(0))
		f := retryExec(policy, &emptyHandlers, func(_ *route.Route, _ *request.Plan, _ *request.Execution) (*http.Response, error) {
			n++
			return nil, ioErr
		})
		resp, err := f(testRoute(), p, e)
		assert.Nil(t, resp)
		assert.Same(t, ioErr, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, 3, e.Attempt)
	})
	t.Run("retries retriable status until policy stops", func(t *testing.T) {
		p := testPlan(t, "GET", nil)
		e := request.NewExecution(p)
		n := 0
		var bodies []*bodyRecorder
		policy := retry.NewPolicy(retry.Times(3).And(retry.StatusCode(503)), retry.NewFixedWaiter(0))
		f := retryExec(policy, &emptyHandlers, func(_ *route.Route, _ *request.Plan, _ *request.Execution) (*http.Response, error) {
			n++
			resp, b := canned(503, nil)
			bodies = append(bodies, b)
			return resp, nil
		})
		resp, err := f(testRoute(), p, e)
		assert.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, 503, resp.StatusCode)
		assert.Equal(t, 4, n)
		assert.Equal(t, 3, e.Attempt)
		require.Len(t, bodies, 4)
		for _, b := range bodies[:3] {
			assert.True(t, b.closed)
		}
		assert.False(t, bodies[3].closed)
	})
	t.Run("status retry with non-repeatable entity returns the response", func(t *testing.T) {
		p := testPlan(t, "POST", strings.NewReader("payload"))
		require.False(t, p.Repeatable())
		e := request.NewExecution(p)
		n := 0
		policy := retry.NewPolicy(retry.StatusCode(503), retry.NewFixedWaiter(0))
		f := retryExec(policy, &emptyHandlers, func(_ *route.Route, _ *request.Plan, _ *request.Execution) (*http.Response, error) {
			n++
			resp, _ := canned(503, nil)
			return resp, nil
		})
		resp, err := f(testRoute(), p, e)
		assert.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, 503, resp.StatusCode)
		assert.Equal(t, 1, n)
		assert.False(t, resp.Body.(*bodyRecorder).closed)
	})
	t.Run("protocol errors are not retried", func(t *testing.T) {
		p := testPlan(t, "GET", nil)
		e := request.NewExecution(p)
		protoErr := &conn.ProtocolError{Err: errors.New("malformed status line")}
		n := 0
		decided := false
		policy := retry.NewPolicy(retry.DeciderFunc(func(_ *request.Execution) bool {
			decided = true
			return true
		}), retry.NewFixedWaiter(0))
		f := retryExec(policy, &emptyHandlers, func(_ *route.Route, _ *request.Plan, _ *request.Execution) (*http.Response, error) {
			n++
			return nil, protoErr
		})
		_, err := f(testRoute(), p, e)
		assert.Same(t, protoErr, err)
		assert.Equal(t, 1, n)
		assert.False(t, decided)
	})
	t.Run("non-repeatable entity stops retries", func(t *testing.T) {
		p := testPlan(t, "POST", strings.NewReader("payload"))
		require.False(t, p.Repeatable())
		e := request.NewExecution(p)
		ioErr := transportErr("broken pipe")
		n := 0
		policy := retry.NewPolicy(retry.Times(3), retry.NewFixedWaiter(0))
		f := retryExec(policy, &emptyHandlers, func(_ *route.Route, _ *request.Plan, _ *request.Execution) (*http.Response, error) {
			n++
			return nil, ioErr
		})
		resp, err := f(testRoute(), p, e)
		assert.Nil(t, resp)
		assert.Equal(t, 1, n)
		var nr *NonRepeatableRequestError
		require.ErrorAs(t, err, &nr)
		assert.Same(t, ioErr, nr.Cause)
		assert.ErrorIs(t, err, ioErr)
	})
	t.Run("abort skips retry policy", func(t *testing.T) {
		p := testPlan(t, "GET", nil)
		e := request.NewExecution(p)
		ioErr := transportErr("connection reset")
		decided := false
		policy := retry.NewPolicy(retry.DeciderFunc(func(_ *request.Execution) bool {
			decided = true
			return true
		}), retry.NewFixedWaiter(0))
		f := retryExec(policy, &emptyHandlers, func(_ *route.Route, _ *request.Plan, e *request.Execution) (*http.Response, error) {
			e.Abort()
			return nil, ioErr
		})
		_, err := f(testRoute(), p, e)
		assert.Same(t, ioErr, err)
		assert.False(t, decided)
	})
	t.Run("no response declined is relabeled with target host", func(t *testing.T) {
		p := testPlan(t, "GET", nil)
		e := request.NewExecution(p)
		f := retryExec(retry.Never, &emptyHandlers, func(_ *route.Route, _ *request.Plan, _ *request.Execution) (*http.Response, error) {
			return nil, &conn.NoResponseError{Host: "10.0.0.7:80"}
		})
		_, err := f(testRoute(), p, e)
		var nr *conn.NoResponseError
		require.ErrorAs(t, err, &nr)
		assert.Equal(t, "test.local", nr.Host)
	})
	t.Run("headers restored between attempts", func(t *testing.T) {
		p := testPlan(t, "GET", nil)
		p.Header.Set("X-Keep", "original")
		e := request.NewExecution(p)
		ioErr := transportErr("connection reset")
		var seen []http.Header
		policy := retry.NewPolicy(retry.Times(2), retry.NewFixedWaiter(0))
		f := retryExec(policy, &emptyHandlers, func(_ *route.Route, p *request.Plan, _ *request.Execution) (*http.Response, error) {
			seen = append(seen, snapshotHeader(p.Header))
			p.Header.Set("X-Keep", "tainted")
			p.Header.Set("X-Attempt", "leaked")
			return nil, ioErr
		})
		_, err := f(testRoute(), p, e)
		assert.Same(t, ioErr, err)
		require.Len(t, seen, 3)
		for _, h := range seen {
			assert.Equal(t, "original", h.Get("X-Keep"))
			assert.Empty(t, h.Get("X-Attempt"))
		}
	})
	t.Run("attempt timeout fires handler", func(t *testing.T) {
		p := testPlan(t, "GET", nil)
		e := request.NewExecution(p)
		timeoutErr := &conn.TransportError{Op: "read response", Err: fakeTimeoutErr{}}
		var fired []Event
		handlers := &HandlerGroup{}
		handlers.PushBack(AfterAttemptTimeout, HandlerFunc(func(evt Event, _ *request.Execution) {
			fired = append(fired, evt)
		}))
		f := retryExec(retry.Never, handlers, func(_ *route.Route, _ *request.Plan, _ *request.Execution) (*http.Response, error) {
			return nil, timeoutErr
		})
		_, err := f(testRoute(), p, e)
		assert.Same(t, error(timeoutErr), err)
		assert.Equal(t, []Event{AfterAttemptTimeout}, fired)
		assert.Equal(t, 1, e.AttemptTimeouts)
	})
	t.Run("plan cancel ends the wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p, err := request.NewPlanWithContext(ctx, "GET", "http://test.local/things", nil)
		require.NoError(t, err)
		e := request.NewExecution(p)
		ioErr := transportErr("connection reset")
		policy := retry.NewPolicy(retry.Times(5), retry.NewFixedWaiter(time.Hour))
		f := retryExec(policy, &emptyHandlers, func(_ *route.Route, _ *request.Plan, _ *request.Execution) (*http.Response, error) {
			cancel()
			return nil, ioErr
		})
		start := time.Now()
		_, err = f(testRoute(), p, e)
		assert.Same(t, ioErr, err)
		assert.Less(t, time.Since(start), time.Minute)
	})
}

type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string { return "deadline exceeded" }
func (fakeTimeoutErr) Timeout() bool { return true }

// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpc

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/karhu/httpc/conn"
	"github.com/karhu/httpc/log"
	"github.com/karhu/httpc/request"
	"github.com/karhu/httpc/retry"
	"github.com/karhu/httpc/route"
)

// ErrAborted is returned when a plan execution is aborted via
// Execution.Abort before a response was produced.
var ErrAborted = errors.New("httpc: execution aborted")

// A NonRepeatableRequestError ends a plan execution when the retry
// policy asked for a retry but the request entity had already been
// consumed and cannot be replayed. The I/O error which triggered the
// retry decision is retained as the cause.
type NonRepeatableRequestError struct {
	Cause error
}

func (e *NonRepeatableRequestError) Error() string {
	return "httpc: cannot retry request with a non-repeatable request entity"
}

func (e *NonRepeatableRequestError) Unwrap() error {
	return e.Cause
}

// retryExec wraps next in the automatic retry layer. Transport errors
// and valid responses from next are fed to the retry policy, so a
// decider can retry on status codes such as 503 as well as on I/O
// failure. Protocol errors pass through untouched.
func retryExec(policy retry.Policy, handlers *HandlerGroup, next ExecFunc) ExecFunc {
	return func(rt *route.Route, p *request.Plan, e *request.Execution) (*http.Response, error) {
		// Headers are restored from this snapshot between attempts so
		// that later layers, or handlers, cannot leak per-attempt
		// header edits into a retry.
		origHeaders := snapshotHeader(p.Header)
		diag := log.Diag()
		for attempt := 0; ; attempt++ {
			e.Attempt = attempt
			if e.Aborted() {
				return nil, abortErr(p, e)
			}

			resp, err := next(rt, p, e)
			if err != nil {
				e.Err = err
				if !conn.IsTransport(err) {
					return nil, err
				}

				if e.Timeout() {
					e.AttemptTimeouts++
					handlers.run(AfterAttemptTimeout, e)
				}
				if p.Context().Err() == context.DeadlineExceeded {
					handlers.run(AfterPlanTimeout, e)
				}
				if e.Aborted() {
					diag.Debug().
						Str("exec", e.ID).
						Msg("request aborted, not consulting retry policy")
					return nil, err
				}

				if !policy.Decide(e) {
					var nr *conn.NoResponseError
					if errors.As(err, &nr) {
						// Name the target host in the error so the caller
						// can tell which hop failed to answer.
						return nil, &conn.NoResponseError{Host: rt.Target.HostString()}
					}
					return nil, err
				}
				if !p.Repeatable() {
					return nil, &NonRepeatableRequestError{Cause: err}
				}

				diag.Info().
					Str("exec", e.ID).
					Str("route", rt.String()).
					Int("attempt", attempt+1).
					Err(err).
					Msg("i/o failure, retrying request")
			} else {
				e.Response = resp
				e.Err = nil
				// A valid response is still offered to the policy so
				// that deciders like retry.StatusCode can retry on,
				// say, a 503. When the request entity cannot be
				// replayed the response is returned as is.
				if e.Aborted() || !p.Repeatable() || !policy.Decide(e) {
					return resp, nil
				}
				_ = resp.Body.Close() // releases the connection

				diag.Info().
					Str("exec", e.ID).
					Str("route", rt.String()).
					Int("attempt", attempt+1).
					Int("status", resp.StatusCode).
					Msg("retriable response status, retrying request")
			}
			restoreHeader(p, origHeaders)
			e.Response = nil

			if wait := policy.Wait(e); wait > 0 {
				t := time.NewTimer(wait)
				select {
				case <-t.C:
				case <-p.Context().Done():
					t.Stop()
					if p.Context().Err() == context.DeadlineExceeded {
						handlers.run(AfterPlanTimeout, e)
					}
					if err != nil {
						return nil, err
					}
					return nil, p.Context().Err()
				}
			}
		}
	}
}

func abortErr(p *request.Plan, e *request.Execution) error {
	if err := p.Context().Err(); err != nil {
		return err
	}
	if e.Err != nil {
		return e.Err
	}
	return ErrAborted
}

func snapshotHeader(h http.Header) http.Header {
	s := make(http.Header, len(h))
	for k, vv := range h {
		s[k] = append([]string(nil), vv...)
	}
	return s
}

func restoreHeader(p *request.Plan, snapshot http.Header) {
	p.Header = snapshotHeader(snapshot)
}

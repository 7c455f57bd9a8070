// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpc

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/karhu/httpc/log"
	"github.com/karhu/httpc/request"
	"github.com/karhu/httpc/route"
)

// A RedirectError ends a plan execution when the redirect chain grows
// past the client's redirect limit.
type RedirectError struct {
	// Location is the redirect target which was not followed.
	Location string
	// Count is the number of redirects already followed.
	Count int
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("httpc: stopped after %d redirects", e.Count)
}

// redirectExec wraps next in the redirect-following layer. A redirect
// response releases its connection, rewrites the plan to point at the
// target, and re-resolves the route when the target lives on a
// different endpoint.
func redirectExec(resolver route.Resolver, max int, handlers *HandlerGroup, next ExecFunc) ExecFunc {
	return func(rt *route.Route, p *request.Plan, e *request.Execution) (*http.Response, error) {
		diag := log.Diag()
		for {
			resp, err := next(rt, p, e)
			if err != nil {
				return nil, err
			}
			loc := redirectLocation(resp)
			if loc == "" {
				return resp, nil
			}
			if e.Redirects >= max {
				_ = resp.Body.Close()
				e.Err = &RedirectError{Location: loc, Count: e.Redirects}
				return nil, e.Err
			}
			u, perr := p.URL.Parse(loc)
			if perr != nil {
				_ = resp.Body.Close()
				return nil, errors.Wrapf(perr, "httpc: invalid redirect location %q", loc)
			}
			status := resp.StatusCode
			_ = resp.Body.Close() // releases the connection
			e.Redirects++
			e.Response = nil

			if downgradesToGet(status, p.Method) {
				p.Method = http.MethodGet
				p.Kind = request.NoEntity
				p.Body = nil
				stripEntityHeaders(p.Header)
			}
			sameEndpoint := u.Host == p.URL.Host && u.Scheme == p.URL.Scheme
			p.URL = u
			p.Host = u.Host
			if !sameEndpoint {
				// Cross-endpoint redirects drop credentials carried in
				// headers, matching common client behavior.
				p.Header.Del("Authorization")
				nrt, rerr := resolver.Resolve(u)
				if rerr != nil {
					return nil, rerr
				}
				rt = nrt
				e.Route = nrt
				e.TargetAuth.Answered = false
			}
			diag.Debug().
				Str("exec", e.ID).
				Int("status", status).
				Str("location", u.Redacted()).
				Msg("following redirect")
			handlers.run(AfterRedirect, e)
		}
	}
}

// redirectLocation returns the Location target when the response is a
// followable redirect, and "" otherwise.
func redirectLocation(resp *http.Response) string {
	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return resp.Header.Get("Location")
	default:
		return ""
	}
}

// downgradesToGet reports whether following a redirect with the given
// status rewrites the method to GET. 307 and 308 preserve the method;
// 303 always downgrades except for HEAD; 301 and 302 downgrade
// everything except GET and HEAD.
func downgradesToGet(status int, method string) bool {
	if status == http.StatusTemporaryRedirect || status == http.StatusPermanentRedirect {
		return false
	}
	return method != http.MethodGet && method != http.MethodHead
}

func stripEntityHeaders(h http.Header) {
	h.Del("Content-Length")
	h.Del("Content-Type")
	h.Del("Content-Encoding")
	h.Del("Transfer-Encoding")
}

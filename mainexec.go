// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpc

import (
	"context"
	"net/http"

	"github.com/karhu/httpc/conn"
	"github.com/karhu/httpc/cookie"
	"github.com/karhu/httpc/log"
	"github.com/karhu/httpc/request"
	"github.com/karhu/httpc/route"
	"github.com/karhu/httpc/timeout"
)

// mainExec is the innermost layer of the execution chain. It attaches
// matching cookies, acquires a connection for the route, performs one
// wire-level request/response exchange, stores response cookies, and
// hands back a response whose body owns the connection until it is
// consumed or closed.
func mainExec(mgr conn.Manager, spec cookie.Spec, jar cookie.Jar, tp timeout.Policy, handlers *HandlerGroup) ExecFunc {
	return func(rt *route.Route, p *request.Plan, e *request.Execution) (*http.Response, error) {
		origin := cookie.Origin{
			Host:   p.URL.Hostname(),
			Path:   p.URL.Path,
			Secure: rt.Target.Secure,
		}
		if jar != nil {
			attachCookies(p, spec, jar, origin)
		}

		ctx := p.Context()
		if d := tp.Timeout(e); d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}

		req, err := p.ToRequest(ctx)
		if err != nil {
			e.Err = err
			return nil, err
		}
		e.Request = req
		handlers.run(BeforeAttempt, e)

		cn, err := mgr.Acquire(ctx, rt)
		if err != nil {
			e.Err = err
			handlers.run(AfterAttempt, e)
			return nil, err
		}
		resp, err := cn.Send(e.Request)
		if err != nil {
			cn.Release(false)
			e.Err = err
			handlers.run(AfterAttempt, e)
			return nil, err
		}
		resp = conn.Manage(resp, cn)
		e.Response = resp
		e.Err = nil

		if jar != nil {
			storeCookies(e, resp, spec, jar, origin)
		}
		handlers.run(AfterAttempt, e)
		return resp, nil
	}
}

// attachCookies formats the jar cookies matching the request origin
// into a Cookie header. The header is Set, not Added, so stale values
// from an earlier attempt never accumulate.
func attachCookies(p *request.Plan, spec cookie.Spec, jar cookie.Jar, origin cookie.Origin) {
	var matched []*cookie.Cookie
	for _, c := range jar.Cookies() {
		if spec.Match(c, origin) {
			matched = append(matched, c)
		}
	}
	if len(matched) > 0 {
		p.Header.Set("Cookie", spec.Format(matched))
	}
}

// storeCookies parses every Set-Cookie header in the response and adds
// the accepted cookies to the jar. Malformed cookies are dropped with a
// diagnostic log line; one bad cookie never fails an exchange.
func storeCookies(e *request.Execution, resp *http.Response, spec cookie.Spec, jar cookie.Jar, origin cookie.Origin) {
	diag := log.Diag()
	for _, v := range resp.Header.Values("Set-Cookie") {
		c, err := spec.Parse(v, origin)
		if err != nil {
			diag.Debug().
				Str("exec", e.ID).
				Str("header", v).
				Err(err).
				Msg("dropping malformed cookie")
			continue
		}
		jar.Add(c)
	}
}

// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpc

import (
	"net/http"

	"github.com/karhu/httpc/auth"
	"github.com/karhu/httpc/log"
	"github.com/karhu/httpc/request"
	"github.com/karhu/httpc/route"
)

// authExec wraps next in the authentication layer. A 401 or 407
// response whose challenge can be answered from the credentials
// provider releases its connection and repeats the attempt with an
// Authorization (or Proxy-Authorization) header. A challenge which
// repeats after an answer was already sent passes through to the
// caller, so bad credentials cannot loop.
func authExec(creds auth.CredentialsProvider, handlers *HandlerGroup, next ExecFunc) ExecFunc {
	return func(rt *route.Route, p *request.Plan, e *request.Execution) (*http.Response, error) {
		diag := log.Diag()
		for {
			resp, err := next(rt, p, e)
			if err != nil || creds == nil {
				return resp, err
			}

			var state *auth.State
			var challengeHeader, answerHeader, host string
			var proxy bool
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				state = e.TargetAuth
				challengeHeader = "Www-Authenticate"
				answerHeader = "Authorization"
				host = rt.Target.Host
			case http.StatusProxyAuthRequired:
				if rt.Direct() {
					return resp, nil
				}
				state = e.ProxyAuth
				challengeHeader = "Proxy-Authenticate"
				answerHeader = "Proxy-Authorization"
				host = rt.FirstHop().Host
				proxy = true
			default:
				return resp, nil
			}

			hdr := resp.Header.Get(challengeHeader)
			if hdr == "" {
				return resp, nil
			}
			ch, perr := auth.ParseChallenge(hdr)
			if perr != nil {
				diag.Debug().
					Str("exec", e.ID).
					Str("challenge", hdr).
					Err(perr).
					Msg("ignoring malformed auth challenge")
				return resp, nil
			}
			if !state.Update(ch) {
				return resp, nil
			}
			c, ok := creds.Credentials(host, ch.Realm(), proxy)
			if !ok {
				return resp, nil
			}
			state.Creds = c
			answer := state.Authorization()
			if answer == "" {
				// Unsupported challenge scheme.
				return resp, nil
			}

			_ = resp.Body.Close() // releases the connection
			e.Response = nil
			state.Answered = true
			p.Header.Set(answerHeader, answer)
			diag.Debug().
				Str("exec", e.ID).
				Str("scheme", ch.Scheme).
				Str("realm", ch.Realm()).
				Bool("proxy", proxy).
				Msg("answering auth challenge")
			handlers.run(AfterAuthChallenge, e)
		}
	}
}

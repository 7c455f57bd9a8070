// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpc

import (
	"net/http"

	"github.com/karhu/httpc/request"
	"github.com/karhu/httpc/route"
)

// An ExecFunc executes one layer of the request execution chain. Each
// layer receives the route the request should travel, the request plan,
// and the execution state, and either produces a response or an error.
//
// Layers wrap each other like middleware. The outermost layer handles
// retries, then redirects, then authentication, and the innermost layer
// performs protocol I/O against a connection.
type ExecFunc func(rt *route.Route, p *request.Plan, e *request.Execution) (*http.Response, error)

// chain assembles the execution chain for a single plan execution,
// innermost layer first.
func (c *Client) chain() ExecFunc {
	handlers := c.handlers()
	f := mainExec(c.connManager(), c.cookieSpec(), c.Jar, c.timeoutPolicy(), handlers)
	f = authExec(c.Credentials, handlers, f)
	if !c.DisableRedirects {
		f = redirectExec(c.resolver(), c.maxRedirects(), handlers, f)
	}
	f = retryExec(c.retryPolicy(), handlers, f)
	return f
}

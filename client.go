// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpc

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/karhu/httpc/auth"
	"github.com/karhu/httpc/conn"
	"github.com/karhu/httpc/cookie"
	"github.com/karhu/httpc/request"
	"github.com/karhu/httpc/retry"
	"github.com/karhu/httpc/route"
	"github.com/karhu/httpc/timeout"
)

var emptyHandlers = HandlerGroup{}

// DefaultMaxRedirects is the redirect limit used when Client's
// MaxRedirects field is zero.
const DefaultMaxRedirects = 10

// DefaultManager is the connection manager used by a Client whose
// ConnManager field is nil. Clients which share DefaultManager also
// share its idle connection pool.
var DefaultManager conn.Manager = &conn.PoolManager{}

// A Client is a robust HTTP/1.1 client with retry, redirect, cookie,
// and authentication support. Its zero value is a valid configuration.
//
// The zero value client routes requests directly to their target host
// over a shared connection pool, uses retry.DefaultPolicy as the retry
// policy, timeout.DefaultPolicy as the timeout policy, follows up to
// DefaultMaxRedirects redirects, keeps no cookies, answers no
// authentication challenges, and runs no event handlers.
//
// Client's connection manager caches idle TCP connections, so Client
// instances should be reused instead of created as needed. Client is
// safe for concurrent use by multiple goroutines provided its fields
// are not modified after first use.
//
// Each call to Do builds an execution chain of four layers. The
// outermost layer retries transport failures under the retry policy,
// the next follows redirects, the next answers authentication
// challenges, and the innermost layer attaches cookies and performs
// one wire-level exchange on a managed connection. The response body
// returned by Do owns the underlying connection: the connection
// returns to the idle pool when the body is fully consumed or closed,
// so callers must always close the body.
//
// Client's HTTP methods should feel familiar to anyone who has used
// the Go standard HTTP client (http.Client). The main difference is
// that instead of consuming an http.Request, which is only suitable
// for making a one-off request attempt, Client.Do consumes a
// request.Plan which is suitable for making multiple attempts if
// necessary (the plan execution logic converts the plan into an
// http.Request for each attempt).
type Client struct {
	// ConnManager acquires and pools the connections used to carry
	// request attempts.
	//
	// If ConnManager is nil, DefaultManager is used.
	ConnManager conn.Manager
	// Resolver maps each request URL to the route its attempts should
	// travel, including any proxy hops.
	//
	// If Resolver is nil, route.Direct is used and every request goes
	// straight to its target host.
	Resolver route.Resolver
	// RetryPolicy decides when to retry failed attempts and how long
	// to sleep after a failed attempt before retrying.
	//
	// If RetryPolicy is nil, retry.DefaultPolicy is used.
	RetryPolicy retry.Policy
	// TimeoutPolicy specifies how to set timeouts on individual
	// request attempts.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// CookieSpec controls how cookies are parsed, matched, and
	// formatted when a Jar is configured.
	//
	// If CookieSpec is nil, cookie.Default is used.
	CookieSpec cookie.Spec
	// Jar stores cookies across requests. If Jar is nil, cookies are
	// neither sent nor stored.
	Jar cookie.Jar
	// Credentials supplies credentials for answering authentication
	// challenges from origin servers and proxies. If Credentials is
	// nil, challenge responses pass through to the caller unanswered.
	Credentials auth.CredentialsProvider
	// MaxRedirects limits the number of redirects followed during one
	// plan execution. If MaxRedirects is zero, DefaultMaxRedirects is
	// used.
	MaxRedirects int
	// DisableRedirects turns off redirect following entirely. Redirect
	// responses are then returned to the caller like any other
	// response.
	DisableRedirects bool
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during execution of a request plan.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
}

// Do executes an HTTP request plan and returns the final response,
// following the retry, redirect, cookie, and authentication policy set
// on Client.
//
// The response returned is the response to the final HTTP request
// attempt made during the plan execution. Its body has not been read;
// the underlying connection stays checked out of the pool until the
// caller fully consumes or closes the body, so the body must always be
// closed.
//
// An error is returned if, after doing any retries mandated by the
// retry policy, the final attempt resulted in an error. A non-2XX
// status code in the final attempt does not result in an error. Any
// returned error is of type *url.Error; use errors.As to reach typed
// causes such as *RedirectError, *NonRepeatableRequestError,
// *conn.NoResponseError, or *cookie.MalformedCookieError. The
// url.Error's Timeout method returns true if the final request attempt
// timed out.
//
// For simple use cases, the Get, Head, Post, and PostForm methods may
// prove easier to use than Do.
func (c *Client) Do(p *request.Plan) (*http.Response, error) {
	if p == nil {
		panic("httpc: nil plan")
	}

	e := request.NewExecution(p)
	rt, err := c.resolver().Resolve(p.URL)
	if err != nil {
		e.Err = err
		return nil, urlErrorWrap(p, err)
	}
	e.Route = rt

	handlers := c.handlers()
	handlers.run(BeforeExecutionStart, e)
	e.Start = time.Now()

	resp, err := c.chain()(rt, p, e)

	e.End = time.Now()
	e.Response = resp
	if err != nil {
		err = urlErrorWrap(p, err)
	}
	e.Err = err
	handlers.run(AfterExecutionEnd, e)
	return resp, err
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do.
//
// To make a request plan with custom headers, use request.NewPlan and
// Client.Do.
func (c *Client) Get(url string) (*http.Response, error) {
	return Get(c, url)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Do.
//
// To make a request plan with custom headers, use request.NewPlan and
// Client.Do.
func (c *Client) Head(url string) (*http.Response, error) {
	return Head(c, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Do.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.NewPlan and request.NewBody, namely:
// string; []byte; io.Reader; io.ReadCloser; and request.Body.
//
// To make a request plan with custom headers, use request.NewPlan and
// Client.Do.
func (c *Client) Post(url, contentType string, body interface{}) (*http.Response, error) {
	return Post(c, url, contentType, body)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
// To set other headers, use request.NewPlan and Client.Do.
func (c *Client) PostForm(url string, data url.Values) (*http.Response, error) {
	return PostForm(c, url, data)
}

// CloseIdleConnections closes the idle connections held in the
// client's connection manager. It does not interrupt any connections
// currently carrying a request.
func (c *Client) CloseIdleConnections() {
	c.connManager().CloseIdleConnections()
}

func (c *Client) connManager() conn.Manager {
	if c.ConnManager == nil {
		return DefaultManager
	}
	return c.ConnManager
}

func (c *Client) resolver() route.Resolver {
	if c.Resolver == nil {
		return route.Direct
	}
	return c.Resolver
}

func (c *Client) retryPolicy() retry.Policy {
	if c.RetryPolicy == nil {
		return retry.DefaultPolicy
	}
	return c.RetryPolicy
}

func (c *Client) timeoutPolicy() timeout.Policy {
	if c.TimeoutPolicy == nil {
		return timeout.DefaultPolicy
	}
	return c.TimeoutPolicy
}

func (c *Client) cookieSpec() cookie.Spec {
	if c.CookieSpec == nil {
		return cookie.Default
	}
	return c.CookieSpec
}

func (c *Client) maxRedirects() int {
	if c.MaxRedirects == 0 {
		return DefaultMaxRedirects
	}
	return c.MaxRedirects
}

func (c *Client) handlers() *HandlerGroup {
	if c.Handlers == nil {
		return &emptyHandlers
	}
	return c.Handlers
}

func urlErrorWrap(p *request.Plan, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.String(),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}

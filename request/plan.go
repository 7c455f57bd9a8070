// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"
)

var (
	template, _ = http.NewRequest("GET", "", nil)
)

const nilCtxMsg = "httpc/request: nil context"

// A BodyNotAllowedError is returned by NewPlan when an entity is
// supplied for a method outside the entity-enclosing set.
type BodyNotAllowedError struct {
	Method string
}

func (e *BodyNotAllowedError) Error() string {
	return "httpc/request: " + e.Method + " request cannot enclose an entity"
}

// A Plan is a logical HTTP request to be executed by a client.
//
// A Plan may result in more than one wire-level request attempt, for
// example when a failed attempt is retried, a redirect is followed, or
// an authentication challenge is answered. The plan is mutable until
// execution begins; during execution only the execution chain mutates
// it (headers may be restored between attempts, the URL is updated
// when a redirect is followed).
//
// Like the lower-level http.Request, a Plan carries a context which
// bounds the whole execution and can be used to cancel it at any time.
type Plan struct {
	// Method specifies the HTTP method. It must belong to one of the
	// recognized method sets (see Classify).
	Method string

	// Kind is the method classification computed by NewPlan. An
	// entity may only be attached when Kind is EntityEnclosing.
	Kind Kind

	// URL specifies the URL to access. It is updated in place when a
	// redirect is followed.
	URL *urlpkg.URL

	// Header contains the request header fields to be sent. Insertion
	// order within a field is preserved; lookup is case-insensitive
	// per the http.Header contract.
	Header http.Header

	// Body is the optional request entity. It is nil for entity-less
	// methods. A non-repeatable Body prevents retries after an I/O
	// failure.
	Body Body

	// Close stipulates that the connection must not be reused after
	// the exchange for this plan.
	Close bool

	// Host optionally overrides the Host header to send. If empty,
	// the value of URL.Host is sent.
	Host string

	// ctx bounds the entire plan execution. It should only be
	// modified by copying the whole Plan using WithContext.
	ctx context.Context
}

// NewPlan wraps NewPlanWithContext using the background context.
//
// Parameter body may be nil (no entity), or any of the types accepted
// by NewBody: string, []byte, io.Reader, io.ReadCloser, or Body.
func NewPlan(method, url string, body interface{}) (*Plan, error) {
	return NewPlanWithContext(context.Background(), method, url, body)
}

// NewPlanWithContext returns a new Plan given a method, URL, and
// optional body.
//
// The method is classified into the no-entity, entity-enclosing, or
// special method set (case-insensitively); an unrecognized method
// yields an UnsupportedMethodError. Supplying a body for a method
// outside the entity-enclosing set yields a BodyNotAllowedError.
func NewPlanWithContext(ctx context.Context, method, url string, body interface{}) (*Plan, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = "GET"
	}
	kind, err := Classify(method)
	if err != nil {
		return nil, err
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	b, err := NewBody(body)
	if err != nil {
		return nil, err
	}
	if b != nil && kind != EntityEnclosing {
		return nil, &BodyNotAllowedError{Method: method}
	}
	return &Plan{
		ctx:    ctx,
		Method: strings.ToUpper(method),
		Kind:   kind,
		URL:    u,
		Header: make(http.Header),
		Body:   b,
		Host:   u.Host,
	}, nil
}

// Context returns the request plan's context. The context controls
// cancellation of the overall plan execution. To change the context,
// use WithContext.
//
// The returned context is always non-nil; it defaults to the
// background context.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of p with its context changed to
// ctx, which must be non-nil.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	p2 := new(Plan)
	*p2 = *p
	p2.ctx = ctx
	return p2
}

// Repeatable reports whether the plan can safely be re-sent after an
// I/O failure. A plan with no entity is always repeatable.
func (p *Plan) Repeatable() bool {
	return p.Body == nil || p.Body.Repeatable()
}

// SetBasicAuth sets the plan's Authorization header to use HTTP Basic
// Authentication with the provided username and password, ahead of any
// server challenge.
//
// With HTTP Basic Authentication the provided username and password
// are not encrypted.
func (p *Plan) SetBasicAuth(username, password string) {
	p.Header.Set("Authorization", "Basic "+basicAuth(username, password))
}

// ToRequest creates the wire-level HTTP request for one attempt of the
// plan. The context of the new request is set to ctx, which may not be
// nil. Opening a non-repeatable body a second time fails with
// ErrBodyConsumed.
func (p *Plan) ToRequest(ctx context.Context) (*http.Request, error) {
	r := template.WithContext(ctx)
	r.Method = p.Method
	r.URL = p.URL
	r.Header = p.Header
	if p.Body != nil {
		rc, err := p.Body.Open()
		if err != nil {
			return nil, err
		}
		r.Body = rc
		r.ContentLength = p.Body.Len()
		if p.Body.Repeatable() {
			body := p.Body
			r.GetBody = func() (io.ReadCloser, error) {
				return body.Open()
			}
		}
	}
	r.Close = p.Close
	r.Host = p.Host
	return r, nil
}

// basicAuth is lifted verbatim from net/http/client.go.
//
// See 2 (end of page 4) https://www.ietf.org/rfc/rfc2617.txt
// "To receive authorization, the client sends the userid and password,
// separated by a single colon (":") character, within a base64
// encoded string in the credentials."
// It is not meant to be urlencoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// hasPort is lifted verbatim from net/http/http.go
//
// Given a string of the form "host", "host:port", or "[ipv6::address]:port",
// return true if the string includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort is lifted verbatim from net/http/http.go
//
// removeEmptyPort strips the empty port in ":port" to ""
// as mandated by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}

// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package route

import (
	"fmt"
	"strings"
)

// An Endpoint identifies one hop of a route: a host, a port, and
// whether the connection to it is expected to carry TLS.
type Endpoint struct {
	Host   string
	Port   int
	Secure bool
}

// Addr returns the endpoint in host:port form suitable for dialing.
func (ep Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", ep.Host, ep.Port)
}

// HostString returns the endpoint's host, with the port appended when
// it differs from the scheme default.
func (ep Endpoint) HostString() string {
	if (ep.Secure && ep.Port == 443) || (!ep.Secure && ep.Port == 80) {
		return ep.Host
	}
	return ep.Addr()
}

// A Route describes how a single connection to a target is to be
// established: directly, or through an ordered chain of proxies, plain
// or tunneled. A Route is immutable once resolved for an execution
// attempt; callers must not modify the Proxies slice.
type Route struct {
	// Target is the final destination of the route.
	Target Endpoint

	// Proxies is the ordered proxy chain between the client and the
	// target. Empty for a direct route.
	Proxies []Endpoint

	// Tunnel indicates that an end-to-end tunnel through the proxy
	// chain (CONNECT) must be established before the request is sent.
	Tunnel bool

	// Layered indicates that a protocol layer (TLS) must be negotiated
	// over the established tunnel.
	Layered bool

	// SOCKS indicates that the first proxy hop speaks SOCKS5 rather
	// than HTTP.
	SOCKS bool
}

// Direct reports whether the route connects to the target without any
// intermediate proxy.
func (r *Route) Direct() bool {
	return len(r.Proxies) == 0
}

// Hops returns the number of hops on the route: 1 for a direct route,
// 1 + number of proxies otherwise.
func (r *Route) Hops() int {
	return len(r.Proxies) + 1
}

// FirstHop returns the endpoint the client physically connects to: the
// first proxy if any, otherwise the target.
func (r *Route) FirstHop() Endpoint {
	if len(r.Proxies) > 0 {
		return r.Proxies[0]
	}
	return r.Target
}

// Key returns a string identifying the route for connection pooling.
// Two routes with the same key are interchangeable for reuse purposes.
func (r *Route) Key() string {
	return r.String()
}

func (r *Route) String() string {
	var b strings.Builder
	b.WriteByte('{')
	if r.Tunnel {
		b.WriteString("tunnel ")
	}
	if r.Layered {
		b.WriteString("layered ")
	}
	for _, p := range r.Proxies {
		b.WriteString(p.Addr())
		b.WriteString(" -> ")
	}
	b.WriteString(r.Target.Addr())
	b.WriteByte('}')
	return b.String()
}

// Equal reports whether two routes describe the same path with the
// same tunneling and layering flags.
func (r *Route) Equal(o *Route) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Target != o.Target || r.Tunnel != o.Tunnel || r.Layered != o.Layered || r.SOCKS != o.SOCKS {
		return false
	}
	if len(r.Proxies) != len(o.Proxies) {
		return false
	}
	for i := range r.Proxies {
		if r.Proxies[i] != o.Proxies[i] {
			return false
		}
	}
	return true
}

// An Error indicates that no viable route to the target could be
// determined.
type Error struct {
	Host   string
	Reason string
}

func (e *Error) Error() string {
	return "httpc/route: cannot route to " + e.Host + ": " + e.Reason
}

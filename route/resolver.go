// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package route

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// A Resolver computes the route to use for a target URL. Resolution is
// pure with respect to the resolver's configuration: the same target
// always yields the same route.
//
// Implementations of Resolver must be safe for concurrent use by
// multiple goroutines.
type Resolver interface {
	Resolve(target *url.URL) (*Route, error)
}

// The ResolverFunc type is an adapter to allow the use of ordinary
// functions as route resolvers.
type ResolverFunc func(target *url.URL) (*Route, error)

// Resolve calls f(target).
func (f ResolverFunc) Resolve(target *url.URL) (*Route, error) {
	return f(target)
}

// Direct is a resolver that always connects straight to the target.
var Direct Resolver = ResolverFunc(func(target *url.URL) (*Route, error) {
	ep, err := targetEndpoint(target)
	if err != nil {
		return nil, err
	}
	return &Route{Target: ep}, nil
})

// A ProxyResolver routes every request through a fixed proxy, except
// for targets matched by the bypass list. TLS targets are tunneled
// (CONNECT) through the proxy and the TLS layer is negotiated over the
// tunnel.
type ProxyResolver struct {
	// Proxy is the proxy URL. Supported schemes are "http" and
	// "socks5". A missing port defaults to 8080 for http and 1080 for
	// socks5.
	Proxy *url.URL

	// Bypass lists host suffixes which connect directly, skipping the
	// proxy ("example.com" matches "example.com" and "a.example.com").
	Bypass []string
}

// Resolve computes the route for target per the proxy configuration.
func (pr *ProxyResolver) Resolve(target *url.URL) (*Route, error) {
	ep, err := targetEndpoint(target)
	if err != nil {
		return nil, err
	}
	if pr.Proxy == nil {
		return nil, &Error{Host: target.Host, Reason: "no proxy configured"}
	}
	if pr.bypassed(ep.Host) {
		return &Route{Target: ep}, nil
	}
	pep, socks, err := proxyEndpoint(pr.Proxy)
	if err != nil {
		return nil, err
	}
	r := &Route{
		Target:  ep,
		Proxies: []Endpoint{pep},
		SOCKS:   socks,
	}
	if ep.Secure && !socks {
		r.Tunnel = true
		r.Layered = true
	}
	return r, nil
}

func (pr *ProxyResolver) bypassed(host string) bool {
	for _, suffix := range pr.Bypass {
		if strings.EqualFold(host, suffix) || strings.HasSuffix(strings.ToLower(host), "."+strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

func targetEndpoint(target *url.URL) (Endpoint, error) {
	var secure bool
	switch strings.ToLower(target.Scheme) {
	case "http":
		secure = false
	case "https":
		secure = true
	default:
		return Endpoint{}, &Error{Host: target.Host, Reason: "unsupported scheme " + strconv.Quote(target.Scheme)}
	}
	host, port, err := splitHostPort(target.Host, defaultPort(secure))
	if err != nil {
		return Endpoint{}, &Error{Host: target.Host, Reason: err.Error()}
	}
	if host == "" {
		return Endpoint{}, &Error{Host: target.Host, Reason: "empty host"}
	}
	return Endpoint{Host: host, Port: port, Secure: secure}, nil
}

func proxyEndpoint(proxy *url.URL) (Endpoint, bool, error) {
	var def int
	var socks bool
	switch strings.ToLower(proxy.Scheme) {
	case "http", "":
		def = 8080
	case "socks5":
		def = 1080
		socks = true
	default:
		return Endpoint{}, false, &Error{Host: proxy.Host, Reason: "unsupported proxy scheme " + strconv.Quote(proxy.Scheme)}
	}
	host, port, err := splitHostPort(proxy.Host, def)
	if err != nil || host == "" {
		return Endpoint{}, false, &Error{Host: proxy.Host, Reason: "invalid proxy address"}
	}
	return Endpoint{Host: host, Port: port}, socks, nil
}

func defaultPort(secure bool) int {
	if secure {
		return 443
	}
	return 80
}

func splitHostPort(hostport string, def int) (string, int, error) {
	if !strings.Contains(hostport, ":") || strings.HasSuffix(hostport, "]") {
		return hostport, def, nil
	}
	host, ps, err := net.SplitHostPort(hostport)
	if err != nil {
		return "", 0, err
	}
	if ps == "" {
		return host, def, nil
	}
	port, err := strconv.Atoi(ps)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cookie

import (
	"time"
)

// A Cookie is one HTTP state token parsed from a Set-Cookie header by
// a Spec, or loaded from a Jar.
type Cookie struct {
	// Name is the cookie name. It is never empty for a cookie
	// produced by a Spec.
	Name string

	// Value is the cookie value, with surrounding double quotes
	// removed.
	Value string

	// Domain is the domain the cookie applies to, lowercased, without
	// a leading dot.
	Domain string

	// Path is the path prefix the cookie applies to. Defaults to the
	// directory of the request path that set the cookie.
	Path string

	// Expires is the cookie's expiry instant. The zero value means a
	// session cookie which never expires on the client side.
	Expires time.Time

	// Secure restricts the cookie to secure (TLS) origins.
	Secure bool

	// HostOnly restricts the cookie to exactly the host that set it
	// (no subdomain matching). Set by specs when the Set-Cookie header
	// carried no Domain attribute.
	HostOnly bool

	// HTTPOnly marks the cookie as inaccessible to non-HTTP APIs. It
	// does not affect matching.
	HTTPOnly bool
}

// Expired reports whether the cookie is expired at instant now. A
// session cookie (zero Expires) is never expired.
func (c *Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// An Origin describes the request target a cookie is matched against:
// the host, the request path, and whether the connection is secure.
type Origin struct {
	Host   string
	Path   string
	Secure bool
}

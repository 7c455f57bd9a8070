// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cookie

import (
	"strconv"
	"strings"
	"time"
)

// A MalformedCookieError indicates that a Set-Cookie header, or one of
// its attributes, could not be parsed under the active spec. The parse
// of that single cookie is fatal; the caller decides whether to
// discard just the cookie or the whole header.
type MalformedCookieError struct {
	Reason string
}

func (e *MalformedCookieError) Error() string {
	return "httpc/cookie: " + e.Reason
}

// A Spec is a cookie policy: a strategy for parsing Set-Cookie headers
// into cookies, deciding which stored cookies apply to an outgoing
// request, and formatting the applicable cookies into a Cookie header.
//
// Implementations of Spec must be safe for concurrent use by multiple
// goroutines.
type Spec interface {
	// Parse parses a single Set-Cookie header value received from
	// origin into a Cookie. A parse failure yields a
	// MalformedCookieError.
	Parse(setCookie string, origin Origin) (*Cookie, error)
	// Match decides whether stored cookie c applies to a request to
	// origin. Expired and domain- or path-mismatched cookies do not
	// match; they are never deleted here (eviction belongs to the
	// store).
	Match(c *Cookie, origin Origin) bool
	// Format renders the applicable cookies into a single Cookie
	// header value, in the given order.
	Format(cs []*Cookie) string
}

// A Policy selects one of the built-in cookie spec variants.
type Policy int

const (
	// Netscape selects the legacy, date-lenient policy modeled on the
	// original Netscape cookie draft.
	Netscape Policy = iota
	// Strict selects the stricter RFC-style policy.
	Strict
)

// New constructs the Spec for policy p using the supplied Expires date
// patterns. If patterns is nil, the policy's default pattern set is
// used. The pattern set is copied and immutable for the lifetime of
// the spec instance.
func New(p Policy, patterns []string) Spec {
	if patterns == nil {
		if p == Strict {
			patterns = StrictDatePatterns
		} else {
			patterns = DefaultDatePatterns
		}
	}
	ps := make([]string, len(patterns))
	copy(ps, patterns)
	return &spec{policy: p, patterns: ps}
}

// Default is the spec used by a client when none is configured.
var Default = New(Strict, nil)

type spec struct {
	policy   Policy
	patterns []string
}

// attribHandler parses one recognized Set-Cookie attribute into the
// cookie under construction. hasValue distinguishes "Expires=" and
// bare "Expires" from a present value.
type attribHandler func(s *spec, c *Cookie, value string, hasValue bool) error

// Behavior table shared by both policy variants. Variant differences
// live in the handlers and in Parse/Match themselves.
var attribHandlers = map[string]attribHandler{
	"expires":  (*spec).handleExpires,
	"max-age":  (*spec).handleMaxAge,
	"domain":   (*spec).handleDomain,
	"path":     (*spec).handlePath,
	"secure":   (*spec).handleSecure,
	"httponly": (*spec).handleHTTPOnly,
}

func (s *spec) Parse(setCookie string, origin Origin) (*Cookie, error) {
	parts := strings.Split(setCookie, ";")
	name, value, ok := cutPair(parts[0])
	if !ok || name == "" {
		return nil, &MalformedCookieError{Reason: "invalid set-cookie header: " + strconv.Quote(setCookie)}
	}
	c := &Cookie{
		Name:     name,
		Value:    trimQuotes(value),
		Domain:   strings.ToLower(origin.Host),
		Path:     defaultPath(origin.Path),
		HostOnly: true,
	}
	var sawMaxAge bool
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		attrib, av, hasValue := cutPair(part)
		h := attribHandlers[strings.ToLower(attrib)]
		if h == nil {
			// Unrecognized attributes are ignored under both
			// policies.
			continue
		}
		if sawMaxAge && strings.EqualFold(attrib, "expires") {
			// Max-Age has precedence under the strict policy.
			if s.policy == Strict {
				continue
			}
		}
		if err := h(s, c, av, hasValue); err != nil {
			return nil, err
		}
		if strings.EqualFold(attrib, "max-age") {
			sawMaxAge = true
		}
	}
	return c, nil
}

func (s *spec) Match(c *Cookie, origin Origin) bool {
	if c.Expired(time.Now()) {
		return false
	}
	if c.Secure && !origin.Secure {
		return false
	}
	return domainMatch(c, origin.Host) && pathMatch(c.Path, origin.Path)
}

func (s *spec) Format(cs []*Cookie) string {
	var b strings.Builder
	for i, c := range cs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(c.Name)
		b.WriteByte('=')
		b.WriteString(c.Value)
	}
	return b.String()
}

func (s *spec) handleExpires(c *Cookie, value string, hasValue bool) error {
	if !hasValue || value == "" {
		return &MalformedCookieError{Reason: "missing value for expires attribute"}
	}
	t, ok := parseDate(value, s.patterns)
	if !ok {
		return &MalformedCookieError{Reason: "unable to parse expires attribute: " + value}
	}
	c.Expires = t
	return nil
}

func (s *spec) handleMaxAge(c *Cookie, value string, hasValue bool) error {
	if s.policy != Strict {
		// The legacy draft predates Max-Age.
		return nil
	}
	if !hasValue || value == "" {
		return &MalformedCookieError{Reason: "missing value for max-age attribute"}
	}
	secs, err := strconv.Atoi(value)
	if err != nil {
		return &MalformedCookieError{Reason: "invalid max-age attribute: " + value}
	}
	c.Expires = time.Now().Add(time.Duration(secs) * time.Second).UTC()
	return nil
}

func (s *spec) handleDomain(c *Cookie, value string, hasValue bool) error {
	if !hasValue || value == "" {
		return &MalformedCookieError{Reason: "missing value for domain attribute"}
	}
	c.Domain = strings.ToLower(strings.TrimPrefix(value, "."))
	c.HostOnly = false
	return nil
}

func (s *spec) handlePath(c *Cookie, value string, hasValue bool) error {
	if hasValue && strings.HasPrefix(value, "/") {
		c.Path = value
	}
	return nil
}

func (s *spec) handleSecure(c *Cookie, _ string, _ bool) error {
	c.Secure = true
	return nil
}

func (s *spec) handleHTTPOnly(c *Cookie, _ string, _ bool) error {
	c.HTTPOnly = true
	return nil
}

func domainMatch(c *Cookie, host string) bool {
	host = strings.ToLower(host)
	if host == c.Domain {
		return true
	}
	if c.HostOnly {
		return false
	}
	return strings.HasSuffix(host, "."+c.Domain)
}

func pathMatch(cookiePath, reqPath string) bool {
	if reqPath == "" {
		reqPath = "/"
	}
	if cookiePath == "" {
		cookiePath = "/"
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return len(reqPath) == len(cookiePath) ||
		strings.HasSuffix(cookiePath, "/") ||
		reqPath[len(cookiePath)] == '/'
}

// defaultPath returns the directory of the request path that set the
// cookie, per RFC 6265 section 5.1.4.
func defaultPath(reqPath string) string {
	if reqPath == "" || !strings.HasPrefix(reqPath, "/") {
		return "/"
	}
	i := strings.LastIndexByte(reqPath, '/')
	if i == 0 {
		return "/"
	}
	return reqPath[:i]
}

func cutPair(s string) (name, value string, hasValue bool) {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return strings.TrimSpace(s), "", false
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package auth

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrMalformedChallenge is returned by ParseChallenge when a
// WWW-Authenticate or Proxy-Authenticate header value has no scheme
// token.
var ErrMalformedChallenge = errors.New("httpc/auth: malformed challenge")

// Credentials are a username/password pair presented in response to a
// challenge.
type Credentials struct {
	Username string
	Password string
}

// A CredentialsProvider supplies credentials for a challenge issued by
// a host (the target origin, or the proxy when proxy is true).
// Implementations must be safe for concurrent use by multiple
// goroutines.
type CredentialsProvider interface {
	Credentials(host, realm string, proxy bool) (Credentials, bool)
}

// The CredentialsProviderFunc type is an adapter to allow the use of
// ordinary functions as credentials providers.
type CredentialsProviderFunc func(host, realm string, proxy bool) (Credentials, bool)

// Credentials calls f(host, realm, proxy).
func (f CredentialsProviderFunc) Credentials(host, realm string, proxy bool) (Credentials, bool) {
	return f(host, realm, proxy)
}

// Static returns a provider that answers every challenge with the same
// credentials.
func Static(username, password string) CredentialsProvider {
	c := Credentials{Username: username, Password: password}
	return CredentialsProviderFunc(func(string, string, bool) (Credentials, bool) {
		return c, true
	})
}

// A Challenge is one parsed WWW-Authenticate or Proxy-Authenticate
// header value.
type Challenge struct {
	// Scheme is the challenge scheme token ("Basic", "Digest", ...).
	// The original case is preserved; compare case-insensitively.
	Scheme string

	// Params are the auth parameters, keyed by lowercased name, with
	// surrounding quotes removed from values.
	Params map[string]string
}

// Realm returns the challenge's realm parameter, or "" if absent.
func (c *Challenge) Realm() string {
	return c.Params["realm"]
}

// ParseChallenge parses a single WWW-Authenticate or Proxy-Authenticate
// header value into a Challenge. Only the first challenge in the value
// is considered.
func ParseChallenge(header string) (*Challenge, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, ErrMalformedChallenge
	}
	scheme := header
	rest := ""
	if i := strings.IndexAny(header, " \t"); i >= 0 {
		scheme, rest = header[:i], strings.TrimSpace(header[i+1:])
	}
	if strings.ContainsAny(scheme, "=,") {
		return nil, ErrMalformedChallenge
	}
	ch := &Challenge{Scheme: scheme, Params: make(map[string]string)}
	for _, part := range splitParams(rest) {
		k, v, ok := cutParam(part)
		if !ok {
			continue
		}
		ch.Params[strings.ToLower(k)] = v
	}
	return ch, nil
}

func splitParams(s string) []string {
	var parts []string
	var b strings.Builder
	quoted := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			quoted = !quoted
			b.WriteByte(c)
		case c == ',' && !quoted:
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

func cutParam(s string) (key, value string, ok bool) {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(s[:i])
	value = strings.TrimSpace(s[i+1:])
	value = strings.Trim(value, `"`)
	return key, value, key != ""
}

// A State holds the authentication state negotiated with one party
// (target or proxy) over the course of a single execution. It is not
// shared across concurrent executions.
type State struct {
	// Scheme is the scheme currently negotiated, or "" before any
	// challenge has been seen.
	Scheme string

	// Realm is the realm of the last challenge handled.
	Realm string

	// Creds are the credentials in use for the current scheme.
	Creds Credentials

	// Answered reports that credentials for the current challenge
	// have already been sent once. A second challenge with the same
	// scheme and realm means the credentials were rejected.
	Answered bool
}

// Update records a new challenge in the state. If the challenge's
// scheme differs from the negotiated one, the state is reset so that
// the new scheme starts a fresh round. It reports whether the
// challenge may still be answered: false means the same challenge was
// already answered once and the execution must stop re-trying.
func (s *State) Update(ch *Challenge) bool {
	if !strings.EqualFold(s.Scheme, ch.Scheme) || s.Realm != ch.Realm() {
		s.Scheme = ch.Scheme
		s.Realm = ch.Realm()
		s.Creds = Credentials{}
		s.Answered = false
		return true
	}
	return !s.Answered
}

// Authorization renders the Authorization (or Proxy-Authorization)
// header value for the state's scheme and credentials. Only the Basic
// scheme is supported; an unsupported scheme yields "".
func (s *State) Authorization() string {
	if !strings.EqualFold(s.Scheme, "Basic") {
		return ""
	}
	raw := s.Creds.Username + ":" + s.Creds.Password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

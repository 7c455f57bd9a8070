// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package route determines how connections to a target host are
established: directly, or through a proxy chain, plain or tunneled.

A Route is computed once per request execution by a Resolver and is
immutable for the lifetime of an attempt. The built-in Direct resolver
connects straight to the target; ProxyResolver routes through a fixed
HTTP or SOCKS5 proxy, establishing a CONNECT tunnel with a layered TLS
handshake for https targets.
*/
package route

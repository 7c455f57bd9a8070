// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package conn is the connection layer beneath the execution chain: it
dials transport connections along routes (direct, via an HTTP or
SOCKS5 proxy, with CONNECT tunneling and TLS layering), pools idle
keep-alive connections per route, and performs the wire-level
request/response exchange.

The central contract is Manager/Connection. A Connection leased from
a Manager carries exactly one exchange; the response entity owns the
connection until it is fully consumed or closed, at which point the
connection is released back to the manager (Manage wires this up).
Release is idempotent and safe on an already-closed connection.

Errors are split into transport failures (TransportError,
NoResponseError), which the retry stage may recover from, and
protocol errors (ProtocolError), which are surfaced unchanged.
*/
package conn

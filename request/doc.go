// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Plan (describes a logical HTTP
request) and Execution (describes one execution of a Plan by the
client's execution chain).

A Plan describes how to make a logical HTTP request, potentially
involving repeated wire-level attempts if a retry, redirect, or
authentication round-trip is necessary. For those familiar with the Go
standard HTTP library, net/http, a Plan looks like a stripped-down
http.Request with all server-side fields removed and the body replaced
by the Body abstraction, which carries an explicit repeatability flag:
a non-repeatable body can be sent at most once, so it disables retries
after an I/O failure.

Methods are classified into three disjoint, case-insensitive sets: the
no-entity set (GET), the entity-enclosing set (POST, PUT, PATCH), and
the special set (HEAD, OPTIONS, DELETE, TRACE, CONNECT). NewPlan
rejects methods outside these sets with an UnsupportedMethodError, and
rejects an entity attached to a method outside the entity-enclosing
set with a BodyNotAllowedError.

Create a plan to make a reliable HTTP request:

	p, err := request.NewPlan("GET", "https://example.com", nil)
	...
	resp, err := client.Do(p)
	...

A plan may be assigned a context to bound the entire execution and to
allow it to be cancelled:

	p, err := request.NewPlanWithContext(ctx, "POST", "https://example.com/upload", body)
	...

An Execution is the per-call mutable state shared by the chain stages
of one plan execution: the resolved route, the attempt and redirect
counters, the target and proxy authentication state, and the abort
flag. It is the input type for retry and timeout policies and event
handlers. You will typically not allocate Execution instances
yourself.
*/
package request

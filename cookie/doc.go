// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package cookie implements pluggable cookie policies and cookie
storage for the client's execution chain.

A Spec is one policy: it parses Set-Cookie headers into cookies,
decides which stored cookies apply to an outgoing request, and formats
the applicable cookies into a Cookie header. Two variants are built
in, selected by a Policy value at construction: Netscape, the legacy
date-lenient policy, and Strict, the RFC-style policy. Both are
configured with an immutable set of Expires date patterns.

A parse failure on a single attribute, including an Expires value that
matches none of the configured patterns or an Expires attribute with
no value at all, is fatal to that cookie's parse and yields a
MalformedCookieError. The execution chain discards just that cookie
and keeps the rest of the response's cookies.

A Jar stores cookies between executions. MemoryJar keeps them in
process memory; SQLiteJar persists them to disk. Eviction of expired
cookies is the jar's job (both jars expose ClearExpired); the policy
engine only excludes expired cookies from matching.
*/
package cookie

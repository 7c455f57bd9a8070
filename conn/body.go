// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"io"
	"net/http"
	"sync"
)

// maxDrainBytes bounds how much of an abandoned body Close will read
// in the hope of keeping the connection reusable.
const maxDrainBytes = 256 << 10

// Manage ties the response entity to its connection: the connection
// is released exactly once, when the body is fully consumed or
// closed, and is returned to the pool only if the response was fully
// and correctly read and the exchange permits reuse. The response's
// Body field is replaced; all other fields are untouched.
func Manage(resp *http.Response, c Connection) *http.Response {
	resp.Body = &managedBody{
		rc:       resp.Body,
		c:        c,
		mayReuse: !resp.Close,
	}
	return resp
}

type managedBody struct {
	mu       sync.Mutex
	rc       io.ReadCloser
	c        Connection
	mayReuse bool
	done     bool
}

func (b *managedBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if err != nil {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.finish(err == io.EOF)
	}
	return n, err
}

// Close releases the connection. If the body was not yet fully read,
// Close drains a bounded amount first so a short remainder does not
// cost the pooled connection.
func (b *managedBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return nil
	}
	drained := false
	n, err := io.Copy(io.Discard, io.LimitReader(b.rc, maxDrainBytes))
	if err == nil && n < maxDrainBytes {
		drained = true
	}
	b.finish(drained)
	return b.rc.Close()
}

// finish releases the connection once. Callers hold b.mu, except Read
// which acquires it before calling.
func (b *managedBody) finish(clean bool) {
	if b.done {
		return
	}
	b.done = true
	b.c.Release(clean && b.mayReuse)
}

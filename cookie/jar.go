// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cookie

import (
	"sync"
	"time"
)

// A Jar stores cookies between executions. Implementations must be
// safe for concurrent use by multiple goroutines. Eviction of expired
// cookies is the jar's responsibility, not the policy engine's; the
// execution chain never deletes cookies.
type Jar interface {
	// Add stores c, replacing any stored cookie with the same name,
	// domain, and path.
	Add(c *Cookie)
	// Cookies returns a snapshot of all stored cookies, in insertion
	// order. Callers must not modify the returned cookies.
	Cookies() []*Cookie
}

// A MemoryJar is an in-memory Jar. The zero value is ready to use.
type MemoryJar struct {
	mu      sync.Mutex
	cookies []*Cookie
}

var _ Jar = (*MemoryJar)(nil)

// Add stores c, replacing any cookie with the same identity.
func (j *MemoryJar) Add(c *Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, old := range j.cookies {
		if old.Name == c.Name && old.Domain == c.Domain && old.Path == c.Path {
			j.cookies[i] = c
			return
		}
	}
	j.cookies = append(j.cookies, c)
}

// Cookies returns a snapshot of the stored cookies.
func (j *MemoryJar) Cookies() []*Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*Cookie, len(j.cookies))
	copy(out, j.cookies)
	return out
}

// ClearExpired evicts cookies expired at instant now and returns the
// number evicted.
func (j *MemoryJar) ClearExpired(now time.Time) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	kept := j.cookies[:0]
	evicted := 0
	for _, c := range j.cookies {
		if c.Expired(now) {
			evicted++
			continue
		}
		kept = append(kept, c)
	}
	j.cookies = kept
	return evicted
}

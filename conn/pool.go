// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// pool keeps idle connections keyed by route. Leasing is
// last-in-first-out so the most recently used (and least likely to
// have been dropped by the server) connection is handed out first.
type pool struct {
	mu       sync.Mutex
	idle     map[string][]*persistConn
	maxIdle  int
	idleTTL  time.Duration
	closed   bool
}

func newPool(maxIdlePerRoute int, idleTTL time.Duration) *pool {
	return &pool{
		idle:    make(map[string][]*persistConn),
		maxIdle: maxIdlePerRoute,
		idleTTL: idleTTL,
	}
}

// get pops the freshest idle connection for key, discarding stale
// ones.
func (p *pool) get(key string) *persistConn {
	p.mu.Lock()
	defer p.mu.Unlock()
	stack := p.idle[key]
	for len(stack) > 0 {
		pc := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p.idle[key] = stack
		if p.idleTTL > 0 && time.Since(pc.lastIdle) > p.idleTTL {
			_ = pc.nc.Close()
			continue
		}
		return pc
	}
	return nil
}

// put parks pc as idle for key. It reports false, and the caller must
// close pc, when the pool is full or closed.
func (p *pool) put(key string, pc *persistConn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || len(p.idle[key]) >= p.maxIdle {
		return false
	}
	pc.lastIdle = time.Now()
	p.idle[key] = append(p.idle[key], pc)
	return true
}

// closeIdle closes every idle connection, aggregating close errors.
func (p *pool) closeIdle() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var result *multierror.Error
	for key, stack := range p.idle {
		for _, pc := range stack {
			if err := pc.nc.Close(); err != nil {
				result = multierror.Append(result, err)
			}
		}
		delete(p.idle, key)
	}
	return result.ErrorOrNil()
}

// close closes the pool: idle connections are closed and future puts
// are refused.
func (p *pool) close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.closeIdle()
}

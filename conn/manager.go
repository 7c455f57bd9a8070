// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/karhu/httpc/log"
	"github.com/karhu/httpc/route"
)

const (
	// DefaultMaxIdlePerRoute bounds the idle connections kept per
	// route by a zero-value PoolManager.
	DefaultMaxIdlePerRoute = 4
	// DefaultIdleTTL is how long a zero-value PoolManager keeps an
	// idle connection before discarding it on the next lease.
	DefaultIdleTTL = 90 * time.Second
)

// A PoolManager is the built-in Manager. It dials connections along
// routes and keeps idle keep-alive connections pooled per route. The
// zero value is a valid configuration. A PoolManager is safe for
// concurrent use by multiple goroutines.
type PoolManager struct {
	// TLSConfig is the TLS configuration for secure hops. Nil means
	// a default configuration.
	TLSConfig *tls.Config

	// MaxIdlePerRoute bounds the idle connections kept per route.
	// Zero means DefaultMaxIdlePerRoute.
	MaxIdlePerRoute int

	// IdleTTL is the maximum time an idle connection is considered
	// fresh. Zero means DefaultIdleTTL.
	IdleTTL time.Duration

	once sync.Once
	pool *pool
}

var _ Manager = (*PoolManager)(nil)

func (m *PoolManager) init() {
	m.once.Do(func() {
		maxIdle := m.MaxIdlePerRoute
		if maxIdle == 0 {
			maxIdle = DefaultMaxIdlePerRoute
		}
		ttl := m.IdleTTL
		if ttl == 0 {
			ttl = DefaultIdleTTL
		}
		m.pool = newPool(maxIdle, ttl)
	})
}

// Acquire leases a connection for the route, reusing a pooled idle
// connection when one is fresh enough.
func (m *PoolManager) Acquire(ctx context.Context, rt *route.Route) (Connection, error) {
	m.init()
	key := rt.Key()
	if pc := m.pool.get(key); pc != nil {
		atomic.StoreInt32(&pc.released, 0)
		wire := log.Wire()
		wire.Trace().Str("route", rt.String()).Msg("reusing pooled connection")
		return pc, nil
	}
	nc, err := dialRoute(ctx, rt, m.TLSConfig)
	if err != nil {
		return nil, err
	}
	cr := &countReader{r: nc}
	return &persistConn{
		mgr: m,
		key: key,
		rt:  rt,
		nc:  nc,
		cr:  cr,
		br:  bufio.NewReader(cr),
	}, nil
}

// CloseIdleConnections closes connections currently idle in the pool.
func (m *PoolManager) CloseIdleConnections() {
	m.init()
	_ = m.pool.closeIdle()
}

// Close closes the manager and all idle connections. Close errors
// from individual connections are aggregated.
func (m *PoolManager) Close() error {
	m.init()
	return m.pool.close()
}

// A persistConn is a pooled transport connection. It is leased to one
// exchange at a time; the released flag guards double release.
type persistConn struct {
	mgr      *PoolManager
	key      string
	rt       *route.Route
	nc       net.Conn
	cr       *countReader
	br       *bufio.Reader
	lastIdle time.Time
	released int32
}

func (pc *persistConn) Send(req *http.Request) (*http.Response, error) {
	if deadline, ok := req.Context().Deadline(); ok {
		_ = pc.nc.SetDeadline(deadline)
		defer pc.nc.SetDeadline(time.Time{})
	}
	wire := log.Wire()
	wire.Trace().Str("method", req.Method).Str("url", req.URL.String()).Msg("send request")

	var err error
	if pc.viaPlainProxy() {
		err = req.WriteProxy(pc.nc)
	} else {
		err = req.Write(pc.nc)
	}
	if err != nil {
		return nil, &TransportError{Op: "write request", Err: err}
	}

	pc.cr.reset()
	resp, err := http.ReadResponse(pc.br, req)
	if err != nil {
		if pc.cr.count() == 0 {
			return nil, &NoResponseError{Host: pc.rt.Target.HostString()}
		}
		return nil, classifyReadError(err)
	}
	wire.Trace().Str("status", resp.Status).Msg("received response")
	return resp, nil
}

func (pc *persistConn) Release(reusable bool) {
	if !atomic.CompareAndSwapInt32(&pc.released, 0, 1) {
		return
	}
	if reusable && pc.mgr.pool.put(pc.key, pc) {
		return
	}
	_ = pc.nc.Close()
}

// viaPlainProxy reports whether requests on this connection go to an
// HTTP proxy in absolute-URI form (proxied but not tunneled).
func (pc *persistConn) viaPlainProxy() bool {
	return !pc.rt.Direct() && !pc.rt.Tunnel && !pc.rt.SOCKS
}

// classifyReadError separates transport failures (retry candidates)
// from malformed responses (protocol errors, surfaced unchanged).
func classifyReadError(err error) error {
	var ne net.Error
	var errno syscall.Errno
	if errors.As(err, &ne) || errors.As(err, &errno) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &TransportError{Op: "read response", Err: err}
	}
	return &ProtocolError{Err: err}
}

// countReader counts bytes read from the underlying connection so a
// response cut off before the first byte can be told apart from a
// malformed one.
type countReader struct {
	r io.Reader
	n int64
}

func (cr *countReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	atomic.AddInt64(&cr.n, int64(n))
	return n, err
}

func (cr *countReader) reset() { atomic.StoreInt64(&cr.n, 0) }

func (cr *countReader) count() int64 { return atomic.LoadInt64(&cr.n) }

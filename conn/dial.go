// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"bufio"
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"

	pkgerrors "github.com/pkg/errors"
	xproxy "golang.org/x/net/proxy"

	"github.com/karhu/httpc/log"
	"github.com/karhu/httpc/route"
)

// dialRoute establishes a transport connection along the route: dial
// the first hop, tunnel through the proxy chain if required, and layer
// TLS on top. Every failure comes back as a *TransportError so the
// retry stage can classify it.
func dialRoute(ctx context.Context, rt *route.Route, tlsCfg *tls.Config) (net.Conn, error) {
	var d net.Dialer
	first := rt.FirstHop()

	var nc net.Conn
	var err error
	if rt.SOCKS {
		nc, err = dialSOCKS(ctx, &d, first, rt.Target)
	} else {
		nc, err = d.DialContext(ctx, "tcp", first.Addr())
	}
	if err != nil {
		return nil, &TransportError{Op: "dial " + first.Addr(), Err: err}
	}

	if rt.Tunnel {
		if err = establishTunnel(ctx, nc, rt); err != nil {
			_ = nc.Close()
			return nil, err
		}
	}

	if rt.Target.Secure && (rt.Direct() || rt.Layered || rt.SOCKS) {
		nc, err = layerTLS(ctx, nc, rt.Target.Host, tlsCfg)
		if err != nil {
			return nil, err
		}
	}

	wire := log.Wire()
	wire.Debug().Str("route", rt.String()).Msg("connection established")
	return nc, nil
}

func dialSOCKS(ctx context.Context, forward *net.Dialer, proxyEP, target route.Endpoint) (net.Conn, error) {
	sd, err := xproxy.SOCKS5("tcp", proxyEP.Addr(), nil, forward)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to build socks dialer")
	}
	if cd, ok := sd.(xproxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", target.Addr())
	}
	return sd.Dial("tcp", target.Addr())
}

// establishTunnel sends a CONNECT for the route target over nc, which
// is connected to the first proxy, and consumes the proxy's response.
func establishTunnel(ctx context.Context, nc net.Conn, rt *route.Route) error {
	target := rt.Target.Addr()
	connectReq := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: target},
		Host:   target,
		Header: make(http.Header),
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = nc.SetDeadline(deadline)
		defer nc.SetDeadline(noDeadline)
	}
	if err := connectReq.Write(nc); err != nil {
		return &TransportError{Op: "tunnel write", Err: err}
	}
	br := bufio.NewReader(nc)
	resp, err := http.ReadResponse(br, connectReq)
	if err != nil {
		return &TransportError{Op: "tunnel read", Err: err}
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &TransportError{Op: "tunnel", Err: pkgerrors.Errorf("proxy refused CONNECT to %s: %s", target, resp.Status)}
	}
	if br.Buffered() > 0 {
		return &ProtocolError{Err: pkgerrors.New("proxy sent data after CONNECT response")}
	}
	return nil
}

func layerTLS(ctx context.Context, nc net.Conn, serverName string, tlsCfg *tls.Config) (net.Conn, error) {
	cfg := tlsCfg.Clone()
	if cfg == nil {
		cfg = &tls.Config{}
	}
	if cfg.ServerName == "" {
		cfg.ServerName = serverName
	}
	tc := tls.Client(nc, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		_ = nc.Close()
		return nil, &TransportError{Op: "tls handshake", Err: err}
	}
	return tc, nil
}

var noDeadline time.Time

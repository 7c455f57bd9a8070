// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpc

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/karhu/httpc/auth"
	"github.com/karhu/httpc/conn"
	"github.com/karhu/httpc/cookie"
	"github.com/karhu/httpc/retry"
	"github.com/karhu/httpc/timeout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	httpServer *httptest.Server
	flakyHits  int32
)

func TestMain(m *testing.M) {
	httpServer = httptest.NewServer(http.HandlerFunc(serverHandler))
	defer httpServer.Close()
	os.Exit(m.Run())
}

func serverHandler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/echo":
		body, _ := io.ReadAll(r.Body)
		fmt.Fprintf(w, "%s|%s|%s", r.Method, r.Header.Get("Content-Type"), body)
	case "/redirect":
		n, _ := strconv.Atoi(r.URL.Query().Get("n"))
		if n > 0 {
			http.Redirect(w, r, fmt.Sprintf("/redirect?n=%d", n-1), http.StatusFound)
			return
		}
		fmt.Fprint(w, "done")
	case "/cookie":
		if c, err := r.Cookie("sid"); err == nil {
			fmt.Fprintf(w, "welcome back %s", c.Value)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "s1", Path: "/"})
		fmt.Fprint(w, "cookie set")
	case "/flaky":
		if atomic.AddInt32(&flakyHits, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "recovered")
	case "/auth":
		if r.Header.Get("Authorization") == "Basic dXNlcjpwYXNz" {
			fmt.Fprint(w, "granted")
			return
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="vault"`)
		w.WriteHeader(http.StatusUnauthorized)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient() *Client {
	return &Client{
		ConnManager:   &conn.PoolManager{},
		RetryPolicy:   retry.NewPolicy(retry.Times(2).And(retry.TransientErr), retry.NewFixedWaiter(10*time.Millisecond)),
		TimeoutPolicy: timeout.Fixed(5 * time.Second),
	}
}

func readAndClose(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return string(b)
}

func TestEndToEnd(t *testing.T) {
	cl := newTestClient()
	defer cl.CloseIdleConnections()

	t.Run("Get", func(t *testing.T) {
		resp, err := cl.Get(httpServer.URL + "/echo")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "GET||", readAndClose(t, resp))
	})
	t.Run("Head", func(t *testing.T) {
		resp, err := cl.Head(httpServer.URL + "/echo")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "", readAndClose(t, resp))
	})
	t.Run("Post", func(t *testing.T) {
		resp, err := cl.Post(httpServer.URL+"/echo", "text/plain", "payload")
		require.NoError(t, err)
		assert.Equal(t, "POST|text/plain|payload", readAndClose(t, resp))
	})
	t.Run("PostForm", func(t *testing.T) {
		resp, err := cl.PostForm(httpServer.URL+"/echo", url.Values{"k": {"v"}})
		require.NoError(t, err)
		assert.Equal(t, "POST|application/x-www-form-urlencoded|k=v", readAndClose(t, resp))
	})
	t.Run("Redirect", func(t *testing.T) {
		resp, err := cl.Get(httpServer.URL + "/redirect?n=3")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "done", readAndClose(t, resp))
	})
	t.Run("RedirectLimit", func(t *testing.T) {
		limited := newTestClient()
		defer limited.CloseIdleConnections()
		limited.MaxRedirects = 2
		_, err := limited.Get(httpServer.URL + "/redirect?n=5")
		var re *RedirectError
		require.ErrorAs(t, err, &re)
	})
	t.Run("Cookie", func(t *testing.T) {
		jarred := newTestClient()
		defer jarred.CloseIdleConnections()
		jarred.Jar = &cookie.MemoryJar{}
		resp, err := jarred.Get(httpServer.URL + "/cookie")
		require.NoError(t, err)
		assert.Equal(t, "cookie set", readAndClose(t, resp))
		resp, err = jarred.Get(httpServer.URL + "/cookie")
		require.NoError(t, err)
		assert.Equal(t, "welcome back s1", readAndClose(t, resp))
	})
	t.Run("Auth", func(t *testing.T) {
		secured := newTestClient()
		defer secured.CloseIdleConnections()
		secured.Credentials = auth.Static("user", "pass")
		resp, err := secured.Get(httpServer.URL + "/auth")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "granted", readAndClose(t, resp))
	})
	t.Run("RetryOnStatus", func(t *testing.T) {
		impatient := newTestClient()
		defer impatient.CloseIdleConnections()
		impatient.RetryPolicy = retry.NewPolicy(
			retry.Times(3).And(retry.StatusCode(503).Or(retry.TransientErr)),
			retry.NewFixedWaiter(10*time.Millisecond),
		)
		resp, err := impatient.Get(httpServer.URL + "/flaky")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "recovered", readAndClose(t, resp))
		assert.Equal(t, int32(3), atomic.LoadInt32(&flakyHits))
	})
	t.Run("AuthDenied", func(t *testing.T) {
		resp, err := cl.Get(httpServer.URL + "/auth")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
		readAndClose(t, resp)
	})
	t.Run("ConnectionRefused", func(t *testing.T) {
		refused := &Client{
			ConnManager: &conn.PoolManager{},
			RetryPolicy: retry.Never,
		}
		_, err := refused.Get("http://127.0.0.1:1/nothing")
		require.Error(t, err)
		var te *conn.TransportError
		assert.ErrorAs(t, err, &te)
	})
	t.Run("KeepAliveReuse", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			resp, err := cl.Get(httpServer.URL + "/echo")
			require.NoError(t, err)
			readAndClose(t, resp)
		}
	})
}

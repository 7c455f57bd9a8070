// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httpc provides a robust HTTP/1.1 client with retry, redirect,
cookie, and authentication support within a simple and familiar
interface.

Create a Client to begin making requests.

	client := &httpc.Client{}
	resp, err := client.Get("https://www.example.com")
	...
	resp, err := client.Post("https://www.example.com/upload",
		"application/json", &buf)
	...
	resp, err := client.PostForm("http://example.com/form",
		url.Values{"key": {"Value"}, "id": {"123"}})

The response body returned by the client owns the connection it was
received on. Always close it, even when it is not read, so the
connection can return to the idle pool:

	resp, err := client.Get("https://www.example.com")
	if err != nil {
		...
	}
	defer resp.Body.Close()

Each request travels a route resolved from its URL. To send requests
through a proxy, configure a resolver from package route:

	client := &httpc.Client{
		Resolver: &route.ProxyResolver{Proxy: proxyURL},
	}

For control over the client's retry decisions and timing, create a
custom retry policy using components from package retry:

	retryWaiter := retry.NewExpWaiter(250*time.Millisecond, 5*time.Second, time.Now())
	retryPolicy := retry.NewPolicy(retry.DefaultDecider, retryWaiter)
	client := &httpc.Client{
		RetryPolicy: retryPolicy,
	}

For control over the client's individual attempt timeouts, set a custom
timeout policy using package timeout:

	client := &httpc.Client{
		TimeoutPolicy: timeout.Fixed(10 * time.Second),
	}

To send and store cookies, give the client a jar from package cookie,
and optionally a cookie spec controlling how cookies are parsed and
matched:

	client := &httpc.Client{
		Jar:        &cookie.MemoryJar{},
		CookieSpec: cookie.New(cookie.Netscape, nil),
	}

To answer Basic authentication challenges from origin servers and
proxies, install a credentials provider from package auth:

	client := &httpc.Client{
		Credentials: auth.Static("user", "password"),
	}

To hook into the fine-grained details of the client's request execution
logic, install a handler into the appropriate handler chain:

	handlers := &httpc.HandlerGroup{}
	handlers.PushBack(httpc.BeforeAttempt, httpc.HandlerFunc(
		func(_ httpc.Event, e *request.Execution) {
			log.Printf("Attempt %d to %s", e.Attempt, e.Request.URL.String())
		})
	)
	client := &httpc.Client{
		Handlers: handlers,
	}

Package httpc provides basic interfaces for each method of the robust
client (Doer, Getter, Header, Poster, FormPoster, and IdleCloser); a
combined interface that composes all the basic methods (Executor); and
utility functions for working with a Doer (Inflate, Get, Head, Post,
and PostForm).
*/
package httpc

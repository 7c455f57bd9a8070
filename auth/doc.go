// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package auth implements the challenge/response side of HTTP
authentication for the client's execution chain: parsing
WWW-Authenticate and Proxy-Authenticate challenges, tracking the
negotiated scheme and credentials per execution, and rendering Basic
Authorization header values.
*/
package auth

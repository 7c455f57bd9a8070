// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"strings"

	"golang.org/x/net/http/httpguts"
)

// A Kind classifies an HTTP method by its relationship to a request
// entity.
type Kind int

const (
	// NoEntity identifies read-only fetch methods which never carry a
	// request entity.
	NoEntity Kind = iota
	// EntityEnclosing identifies methods which submit or replace a
	// resource representation and may carry a request entity.
	EntityEnclosing
	// Special identifies probe, describe, remove, trace and
	// tunnel-establishment methods. They produce entity-less requests.
	Special
)

var methodNames = []string{"NoEntity", "EntityEnclosing", "Special"}

func (k Kind) String() string {
	return methodNames[int(k)]
}

var (
	noEntityMethods        = []string{"GET"}
	entityEnclosingMethods = []string{"POST", "PUT", "PATCH"}
	specialMethods         = []string{"HEAD", "OPTIONS", "DELETE", "TRACE", "CONNECT"}
)

// An UnsupportedMethodError is returned by NewPlan and Classify when
// the method token is not one of the recognized HTTP methods.
type UnsupportedMethodError struct {
	Method string
}

func (e *UnsupportedMethodError) Error() string {
	return "httpc/request: " + e.Method + " method not supported"
}

// Classify places an HTTP method into one of the three disjoint method
// sets. Matching is case-insensitive against the method token. An
// unrecognized or syntactically invalid method yields an
// UnsupportedMethodError.
func Classify(method string) (Kind, error) {
	if method == "" || !httpguts.ValidHeaderFieldName(method) {
		return 0, &UnsupportedMethodError{Method: method}
	}
	if isOneOf(noEntityMethods, method) {
		return NoEntity, nil
	}
	if isOneOf(entityEnclosingMethods, method) {
		return EntityEnclosing, nil
	}
	if isOneOf(specialMethods, method) {
		return Special, nil
	}
	return 0, &UnsupportedMethodError{Method: method}
}

func isOneOf(methods []string, method string) bool {
	for _, m := range methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

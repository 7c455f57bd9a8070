// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cookie

import (
	"strings"
	"time"
)

// Date layouts accepted for cookie Expires attributes, expressed as Go
// reference-time layouts. Servers in the wild emit all of these.
const (
	LayoutRFC1123  = "Mon, 02 Jan 2006 15:04:05 MST"
	LayoutRFC1036  = "Monday, 02-Jan-06 15:04:05 MST"
	LayoutNetscape = "Mon, 02-Jan-2006 15:04:05 MST"
	LayoutASCTime  = "Mon Jan _2 15:04:05 2006"
)

// DefaultDatePatterns is the lenient pattern set used when a spec is
// constructed without explicit patterns.
var DefaultDatePatterns = []string{
	LayoutRFC1123,
	LayoutRFC1036,
	LayoutNetscape,
	LayoutASCTime,
}

// StrictDatePatterns is the pattern set used by the strict spec: the
// single preferred HTTP date format.
var StrictDatePatterns = []string{
	LayoutRFC1123,
}

// parseDate parses value against each pattern in order and returns the
// first success in UTC. The second return value is false if no pattern
// matches.
func parseDate(value string, patterns []string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, p := range patterns {
		if t, err := time.Parse(p, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

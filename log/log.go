// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Package log carries the library's two logging channels: a diagnostic
// channel for request execution events (retries, redirects, auth
// round-trips) and a wire channel for connection-level traffic traces.
// Both default to stderr at the disabled level so that an embedding
// application sees nothing unless it opts in.

var (
	mu   sync.RWMutex
	diag = zerolog.New(os.Stderr).With().Timestamp().Str("chan", "diag").Logger().Level(zerolog.Disabled)
	wire = zerolog.New(os.Stderr).With().Timestamp().Str("chan", "wire").Logger().Level(zerolog.Disabled)
)

// Diag returns the diagnostic logger. The returned value is a copy; it
// is safe to derive sub-loggers from it with With().
func Diag() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return diag
}

// Wire returns the wire-traffic logger.
func Wire() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return wire
}

// SetDiagOutput redirects the diagnostic channel to w at level l.
func SetDiagOutput(w io.Writer, l zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	diag = zerolog.New(w).With().Timestamp().Str("chan", "diag").Logger().Level(l)
}

// SetWireOutput redirects the wire channel to w at level l.
func SetWireOutput(w io.Writer, l zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	wire = zerolog.New(w).With().Timestamp().Str("chan", "wire").Logger().Level(l)
}

// SetLevelString sets the level of both channels from a zerolog level
// name ("debug", "info", ...).
func SetLevelString(level string) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	diag = diag.Level(l)
	wire = wire.Level(l)
	return nil
}

// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cookie

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJar(t *testing.T) {
	var j MemoryJar
	j.Add(&Cookie{Name: "a", Value: "1", Domain: "example.com", Path: "/"})
	j.Add(&Cookie{Name: "b", Value: "2", Domain: "example.com", Path: "/"})
	assert.Len(t, j.Cookies(), 2)

	// Same identity replaces in place.
	j.Add(&Cookie{Name: "a", Value: "3", Domain: "example.com", Path: "/"})
	cs := j.Cookies()
	require.Len(t, cs, 2)
	assert.Equal(t, "3", cs[0].Value)

	// Different path is a different cookie.
	j.Add(&Cookie{Name: "a", Value: "4", Domain: "example.com", Path: "/sub"})
	assert.Len(t, j.Cookies(), 3)
}

func TestMemoryJarClearExpired(t *testing.T) {
	var j MemoryJar
	now := time.Now()
	j.Add(&Cookie{Name: "dead", Domain: "example.com", Path: "/", Expires: now.Add(-time.Hour)})
	j.Add(&Cookie{Name: "live", Domain: "example.com", Path: "/", Expires: now.Add(time.Hour)})
	j.Add(&Cookie{Name: "session", Domain: "example.com", Path: "/"})
	assert.Equal(t, 1, j.ClearExpired(now))
	cs := j.Cookies()
	require.Len(t, cs, 2)
	assert.Equal(t, "live", cs[0].Name)
	assert.Equal(t, "session", cs[1].Name)
}

func TestSQLiteJar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.db")
	j, err := OpenSQLiteJar(path)
	require.NoError(t, err)

	expiry := time.Now().Add(time.Hour).Truncate(time.Second).UTC()
	j.Add(&Cookie{Name: "sid", Value: "1", Domain: "example.com", Path: "/", Expires: expiry, Secure: true})
	j.Add(&Cookie{Name: "sid", Value: "2", Domain: "example.com", Path: "/", Expires: expiry, Secure: true})
	cs := j.Cookies()
	require.Len(t, cs, 1, "same identity replaces")
	assert.Equal(t, "2", cs[0].Value)
	assert.Equal(t, expiry, cs[0].Expires)
	assert.True(t, cs[0].Secure)
	require.NoError(t, j.Close())

	// Cookies survive reopening the jar.
	j2, err := OpenSQLiteJar(path)
	require.NoError(t, err)
	defer j2.Close()
	cs = j2.Cookies()
	require.Len(t, cs, 1)
	assert.Equal(t, "2", cs[0].Value)

	j2.Add(&Cookie{Name: "dead", Value: "x", Domain: "example.com", Path: "/", Expires: time.Now().Add(-time.Hour)})
	assert.Equal(t, 1, j2.ClearExpired(time.Now()))
	assert.Len(t, j2.Cookies(), 1)
}

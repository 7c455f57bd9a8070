// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChallenge(t *testing.T) {
	t.Run("basic with realm", func(t *testing.T) {
		ch, err := ParseChallenge(`Basic realm="protected area", charset="UTF-8"`)
		require.NoError(t, err)
		assert.Equal(t, "Basic", ch.Scheme)
		assert.Equal(t, "protected area", ch.Realm())
		assert.Equal(t, "UTF-8", ch.Params["charset"])
	})
	t.Run("scheme only", func(t *testing.T) {
		ch, err := ParseChallenge("Negotiate")
		require.NoError(t, err)
		assert.Equal(t, "Negotiate", ch.Scheme)
		assert.Empty(t, ch.Realm())
	})
	t.Run("quoted comma inside realm", func(t *testing.T) {
		ch, err := ParseChallenge(`Basic realm="a, b"`)
		require.NoError(t, err)
		assert.Equal(t, "a, b", ch.Realm())
	})
	t.Run("malformed", func(t *testing.T) {
		for _, h := range []string{"", "   ", `realm="x"`} {
			_, err := ParseChallenge(h)
			assert.ErrorIs(t, err, ErrMalformedChallenge, h)
		}
	})
}

func TestStateUpdate(t *testing.T) {
	s := &State{}
	ch, err := ParseChallenge(`Basic realm="r1"`)
	require.NoError(t, err)

	assert.True(t, s.Update(ch), "first challenge is answerable")
	s.Creds = Credentials{Username: "u", Password: "p"}
	s.Answered = true

	assert.False(t, s.Update(ch), "same challenge after answering means rejection")

	ch2, err := ParseChallenge(`Basic realm="r2"`)
	require.NoError(t, err)
	assert.True(t, s.Update(ch2), "realm change restarts the round")
	assert.False(t, s.Answered)
	assert.Empty(t, s.Creds.Username, "credentials reset on new round")

	ch3, err := ParseChallenge(`Digest realm="r2"`)
	require.NoError(t, err)
	assert.True(t, s.Update(ch3), "scheme change restarts the round")
	assert.Equal(t, "Digest", s.Scheme)
}

func TestAuthorization(t *testing.T) {
	s := &State{Scheme: "Basic", Creds: Credentials{Username: "Aladdin", Password: "open sesame"}}
	assert.Equal(t, "Basic QWxhZGRpbjpvcGVuIHNlc2FtZQ==", s.Authorization())
	s.Scheme = "Digest"
	assert.Empty(t, s.Authorization())
}

func TestStaticProvider(t *testing.T) {
	p := Static("u", "p")
	c, ok := p.Credentials("example.com", "r", false)
	require.True(t, ok)
	assert.Equal(t, Credentials{Username: "u", Password: "p"}, c)
}
